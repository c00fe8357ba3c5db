package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmacedo/prazoflow/internal/gcp"
	"github.com/rmacedo/prazoflow/internal/models"
)

// --- collaborator doubles ---

type fakeFetcher struct {
	calls atomic.Int64
	data  []byte
	err   error
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string) ([]byte, error) {
	f.calls.Add(1)
	return f.data, f.err
}

type fakeCompleter struct {
	calls    atomic.Int64
	response string
	err      error
	gotText  string
}

func (f *fakeCompleter) Analyze(_ context.Context, windowedText string) (string, error) {
	f.calls.Add(1)
	f.gotText = windowedText
	return f.response, f.err
}

type fakeWriter struct {
	mu      sync.Mutex
	calls   int
	err     error
	records []*models.AnalysisRecord
}

func (f *fakeWriter) Insert(_ context.Context, rec *models.AnalysisRecord) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	f.records = append(f.records, rec)
	return fmt.Sprintf("insight-%d", f.calls), nil
}

func newTestAnalyzer(fetcher *fakeFetcher, completer *fakeCompleter, writer *fakeWriter, now time.Time) *AnalyzerFunction {
	f := NewAnalyzer(AnalyzerConfig{}, fetcher, completer, writer)
	// Skip real PDF parsing: the doubles hand text straight through.
	f.extract = func(data []byte) (string, error) { return string(data), nil }
	f.now = func() time.Time { return now }
	return f
}

var testStart = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestProcess_ValidationFailureTouchesNoCollaborator(t *testing.T) {
	fetcher := &fakeFetcher{}
	completer := &fakeCompleter{}
	writer := &fakeWriter{}
	f := newTestAnalyzer(fetcher, completer, writer, testStart)

	tests := []struct {
		name string
		req  models.AnalyzeRequest
	}{
		{"missing storageKey", models.AnalyzeRequest{UserID: "u1"}},
		{"missing userId", models.AnalyzeRequest{StorageKey: "u1/doc.pdf"}},
		{"both missing", models.AnalyzeRequest{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Process(context.Background(), &tt.req)
			require.Error(t, err)

			stage, ok := StageOf(err)
			require.True(t, ok)
			assert.Equal(t, StageValidation, stage)

			assert.Zero(t, fetcher.calls.Load())
			assert.Zero(t, completer.calls.Load())
			assert.Zero(t, writer.calls)
		})
	}
}

func TestProcess_RetrievalFailureInsertsNothing(t *testing.T) {
	fetcher := &fakeFetcher{err: fmt.Errorf("gs://docs/u1/missing.pdf: %w", gcp.ErrObjectNotFound)}
	completer := &fakeCompleter{}
	writer := &fakeWriter{}
	f := newTestAnalyzer(fetcher, completer, writer, testStart)

	_, err := f.Process(context.Background(), &models.AnalyzeRequest{StorageKey: "u1/missing.pdf", UserID: "u1"})
	require.Error(t, err)

	stage, ok := StageOf(err)
	require.True(t, ok)
	assert.Equal(t, StageRetrieval, stage)
	assert.True(t, IsNotFound(err))

	assert.Zero(t, completer.calls.Load())
	assert.Zero(t, writer.calls)
}

func TestProcess_ExtractionFailureInsertsNothing(t *testing.T) {
	fetcher := &fakeFetcher{data: []byte("%PDF-garbage")}
	completer := &fakeCompleter{}
	writer := &fakeWriter{}
	f := newTestAnalyzer(fetcher, completer, writer, testStart)
	f.extract = func([]byte) (string, error) { return "", fmt.Errorf("not a valid PDF") }

	_, err := f.Process(context.Background(), &models.AnalyzeRequest{StorageKey: "u1/bad.pdf", UserID: "u1"})
	require.Error(t, err)

	stage, _ := StageOf(err)
	assert.Equal(t, StageExtraction, stage)
	assert.Zero(t, completer.calls.Load())
	assert.Zero(t, writer.calls)
}

func TestProcess_CompletionFailureInsertsNothing(t *testing.T) {
	fetcher := &fakeFetcher{data: []byte("texto do documento")}
	completer := &fakeCompleter{err: fmt.Errorf("vertex: deadline exceeded")}
	writer := &fakeWriter{}
	f := newTestAnalyzer(fetcher, completer, writer, testStart)

	_, err := f.Process(context.Background(), &models.AnalyzeRequest{StorageKey: "u1/doc.pdf", UserID: "u1"})
	require.Error(t, err)

	stage, _ := StageOf(err)
	assert.Equal(t, StageCompletion, stage)
	assert.Zero(t, writer.calls)
}

func TestProcess_PersistenceFailureSurfaces(t *testing.T) {
	fetcher := &fakeFetcher{data: []byte("texto do documento")}
	completer := &fakeCompleter{response: `{"urgencia":"Baixa","tem_prazo":false}`}
	writer := &fakeWriter{err: fmt.Errorf("firestore unavailable")}
	f := newTestAnalyzer(fetcher, completer, writer, testStart)

	_, err := f.Process(context.Background(), &models.AnalyzeRequest{StorageKey: "u1/doc.pdf", UserID: "u1"})
	require.Error(t, err)

	stage, _ := StageOf(err)
	assert.Equal(t, StagePersistence, stage)
}

func TestProcess_HappyPathDerivesDeadline(t *testing.T) {
	fetcher := &fakeFetcher{data: []byte("Intimação. Prazo de 10 dias para manifestação.")}
	completer := &fakeCompleter{response: `{
		"tipo_documento": "intimação",
		"resumo": "Intimação para manifestação.",
		"tem_prazo": true,
		"dias_prazo": 10,
		"urgencia": "Alta",
		"recomendacao": "Preparar manifestação."
	}`}
	writer := &fakeWriter{}
	f := newTestAnalyzer(fetcher, completer, writer, testStart)

	res, err := f.Process(context.Background(), &models.AnalyzeRequest{
		StorageKey:   "u1/c9/intimacao.pdf",
		UserID:       "u1",
		CaseID:       "c9",
		DocumentName: "intimacao.pdf",
	})
	require.NoError(t, err)

	assert.Equal(t, "success", res.Status)
	assert.Equal(t, "insight-1", res.InsightID)
	assert.Equal(t, models.UrgencyHigh, res.Urgency)
	require.NotNil(t, res.DetectedDeadline)
	assert.Equal(t, time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC), *res.DetectedDeadline)

	require.Len(t, writer.records, 1)
	rec := writer.records[0]
	assert.Equal(t, "u1", rec.UserID)
	assert.Equal(t, "c9", rec.CaseID)
	assert.Equal(t, "u1/c9/intimacao.pdf", rec.StorageKey)
	assert.Equal(t, models.UrgencyHigh, rec.Urgency)
	assert.Equal(t, rec.Insight.Urgency, rec.Urgency)
	assert.NotEmpty(t, rec.RunID)
	assert.Equal(t, testStart, rec.CreatedAt)
	require.NotNil(t, rec.DetectedDeadline)
	assert.Equal(t, time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC), *rec.DetectedDeadline)
}

func TestProcess_NoDeadlineMeansNilTimestamp(t *testing.T) {
	fetcher := &fakeFetcher{data: []byte("Sentença publicada.")}
	// Stray dias_prazo must not produce a deadline when tem_prazo is false.
	completer := &fakeCompleter{response: `{"tipo_documento":"sentença","tem_prazo":false,"dias_prazo":30,"urgencia":"Média"}`}
	writer := &fakeWriter{}
	f := newTestAnalyzer(fetcher, completer, writer, testStart)

	res, err := f.Process(context.Background(), &models.AnalyzeRequest{StorageKey: "u1/s.pdf", UserID: "u1"})
	require.NoError(t, err)

	assert.Nil(t, res.DetectedDeadline)
	require.Len(t, writer.records, 1)
	assert.Nil(t, writer.records[0].DetectedDeadline)
	assert.Equal(t, models.UrgencyMedium, writer.records[0].Urgency)
}

func TestProcess_NonJSONResponseYieldsConservativeRecord(t *testing.T) {
	fetcher := &fakeFetcher{data: []byte("texto")}
	completer := &fakeCompleter{response: "não foi possível estruturar a resposta"}
	writer := &fakeWriter{}
	f := newTestAnalyzer(fetcher, completer, writer, testStart)

	res, err := f.Process(context.Background(), &models.AnalyzeRequest{StorageKey: "u1/d.pdf", UserID: "u1"})
	require.NoError(t, err)

	assert.Equal(t, models.UrgencyLow, res.Urgency)
	assert.Nil(t, res.DetectedDeadline)
	require.Len(t, writer.records, 1)
	assert.False(t, writer.records[0].Insight.HasDeadline)
}

func TestProcess_WindowReachesCompleter(t *testing.T) {
	longText := make([]byte, 0, 40000)
	for len(longText) < 40000 {
		longText = append(longText, "lorem iuris "...)
	}
	fetcher := &fakeFetcher{data: longText}
	completer := &fakeCompleter{response: `{}`}
	writer := &fakeWriter{}
	f := newTestAnalyzer(fetcher, completer, writer, testStart)

	_, err := f.Process(context.Background(), &models.AnalyzeRequest{StorageKey: "u1/big.pdf", UserID: "u1"})
	require.NoError(t, err)

	assert.Contains(t, completer.gotText, windowHeadMarker)
	assert.Contains(t, completer.gotText, windowTailMarker)
	assert.Less(t, len(completer.gotText), 15000+5000+100)
}

func TestProcess_ConcurrentRunsAreIndependent(t *testing.T) {
	writer := &fakeWriter{}
	now := testStart

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		key := fmt.Sprintf("u%d/doc.pdf", i)
		user := fmt.Sprintf("u%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			fetcher := &fakeFetcher{data: []byte("texto " + user)}
			completer := &fakeCompleter{response: `{"urgencia":"Baixa"}`}
			f := newTestAnalyzer(fetcher, completer, writer, now)
			_, err := f.Process(context.Background(), &models.AnalyzeRequest{StorageKey: key, UserID: user})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Len(t, writer.records, 2)
	assert.NotEqual(t, writer.records[0].UserID, writer.records[1].UserID)
	assert.NotEqual(t, writer.records[0].RunID, writer.records[1].RunID)
}
