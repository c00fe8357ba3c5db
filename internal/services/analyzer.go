package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/rmacedo/prazoflow/internal/gcp"
	"github.com/rmacedo/prazoflow/internal/models"
	"github.com/rmacedo/prazoflow/internal/pdftext"
)

// ObjectFetcher retrieves the raw bytes of an uploaded document.
type ObjectFetcher interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// Completer sends the windowed document text to the language model and
// returns its raw JSON response.
type Completer interface {
	Analyze(ctx context.Context, windowedText string) (string, error)
}

// InsightWriter persists one analysis record and returns its id.
type InsightWriter interface {
	Insert(ctx context.Context, rec *models.AnalysisRecord) (string, error)
}

// AnalyzerConfig holds all configuration for the document analyzer.
type AnalyzerConfig struct {
	ProjectID          string
	VertexAIRegion     string
	ModelName          string
	DocumentsBucket    string
	InsightsCollection string
	HeadChars          int
	TailChars          int
	FetchTimeout       time.Duration
	CompletionTimeout  time.Duration
}

// AnalyzerFunction holds the dependencies for the document analysis logic.
// Collaborators are interfaces so tests can substitute doubles.
type AnalyzerFunction struct {
	fetcher   ObjectFetcher
	completer Completer
	writer    InsightWriter
	extract   func([]byte) (string, error)
	config    AnalyzerConfig
	now       func() time.Time
}

// NewAnalyzer wires an analyzer from explicit collaborators.
func NewAnalyzer(config AnalyzerConfig, fetcher ObjectFetcher, completer Completer, writer InsightWriter) *AnalyzerFunction {
	if config.HeadChars <= 0 {
		config.HeadChars = 15000
	}
	if config.TailChars <= 0 {
		config.TailChars = 5000
	}
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = 30 * time.Second
	}
	if config.CompletionTimeout <= 0 {
		config.CompletionTimeout = 120 * time.Second
	}
	return &AnalyzerFunction{
		fetcher:   fetcher,
		completer: completer,
		writer:    writer,
		extract:   pdftext.Extract,
		config:    config,
		now:       time.Now,
	}
}

// NewAnalyzerFromEnv builds the production analyzer with real GCP clients.
func NewAnalyzerFromEnv(ctx context.Context) (*AnalyzerFunction, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}

	config := AnalyzerConfig{
		ProjectID:          projectID,
		VertexAIRegion:     gcp.GetEnv("VERTEX_AI_REGION", "us-central1"),
		ModelName:          gcp.GetEnv("ANALYST_MODEL", "gemini-1.5-pro"),
		DocumentsBucket:    gcp.GetEnv("DOCUMENTS_BUCKET", ""),
		InsightsCollection: gcp.GetEnv("INSIGHTS_COLLECTION", "insights"),
	}
	if config.DocumentsBucket == "" {
		return nil, fmt.Errorf("DOCUMENTS_BUCKET environment variable must be set")
	}

	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	vertexClient, err := gcp.NewVertexClient(ctx, config.ProjectID, config.VertexAIRegion, config.ModelName)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex client: %w", err)
	}
	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	fetcher := &gcsFetcher{client: storageClient, bucket: config.DocumentsBucket}
	writer := &firestoreWriter{client: firestoreClient, collection: config.InsightsCollection}

	f := NewAnalyzer(config, fetcher, vertexClient, writer)
	slog.Info("Document analyzer initialized.", "bucket", config.DocumentsBucket, "model", config.ModelName)
	return f, nil
}

// Process runs the full pipeline for one uploaded document: fetch, extract,
// window, complete, parse, derive the deadline, persist. The insert at the
// end is the only side effect; any earlier failure leaves no trace. Process
// is not idempotent — running it twice inserts two records.
func (f *AnalyzerFunction) Process(ctx context.Context, req *models.AnalyzeRequest) (*models.AnalyzeResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, stageError(StageValidation, err)
	}

	runID := uuid.NewString()
	logCtx := slog.With("runId", runID, "storageKey", req.StorageKey, "userId", req.UserID)
	logCtx.Info("Starting document analysis.", "documentName", req.DocumentName)

	fetchCtx, cancelFetch := context.WithTimeout(ctx, f.config.FetchTimeout)
	defer cancelFetch()
	data, err := f.fetcher.Fetch(fetchCtx, req.StorageKey)
	if err != nil {
		logCtx.Error("Failed to fetch document from storage", "error", err)
		return nil, stageError(StageRetrieval, err)
	}

	text, err := f.extract(data)
	if err != nil {
		logCtx.Error("Failed to extract text from PDF", "error", err, "sizeBytes", len(data))
		return nil, stageError(StageExtraction, err)
	}
	logCtx.Info("Extracted document text.", "chars", len(text))

	window := WindowText(text, f.config.HeadChars, f.config.TailChars)

	completionCtx, cancelCompletion := context.WithTimeout(ctx, f.config.CompletionTimeout)
	defer cancelCompletion()
	raw, err := f.completer.Analyze(completionCtx, window)
	if err != nil {
		logCtx.Error("Completion service call failed", "error", err)
		return nil, stageError(StageCompletion, err)
	}

	// Lenient by design: a malformed-but-mostly-usable response still yields
	// a conservative low-urgency record instead of losing the analysis.
	insight := models.DecodeInsight(raw)

	now := f.now()
	rec := &models.AnalysisRecord{
		UserID:           req.UserID,
		CaseID:           req.CaseID,
		StorageKey:       req.StorageKey,
		DocumentName:     req.DocumentName,
		Insight:          insight,
		Urgency:          insight.Urgency,
		DetectedDeadline: insight.DeadlineAfter(now),
		RunID:            runID,
		CreatedAt:        now,
	}

	insightID, err := f.writer.Insert(ctx, rec)
	if err != nil {
		// Worst-case failure: the model already did its work and we lost it.
		logCtx.Error("Failed to persist insight record", "error", err)
		return nil, stageError(StagePersistence, err)
	}

	logCtx.Info("Analysis complete.",
		"insightId", insightID,
		"urgency", rec.Urgency,
		"hasDeadline", insight.HasDeadline,
	)

	return &models.AnalyzeResponse{
		Status:           "success",
		InsightID:        insightID,
		RunID:            runID,
		Urgency:          rec.Urgency,
		DetectedDeadline: rec.DetectedDeadline,
	}, nil
}

// IsNotFound reports whether a retrieval failure was a missing object, as
// opposed to a transport error.
func IsNotFound(err error) bool {
	return errors.Is(err, gcp.ErrObjectNotFound)
}

// gcsFetcher adapts a GCS client to the ObjectFetcher interface.
type gcsFetcher struct {
	client *storage.Client
	bucket string
}

func (g *gcsFetcher) Fetch(ctx context.Context, key string) ([]byte, error) {
	return gcp.ReadObject(ctx, g.client, g.bucket, key)
}

// firestoreWriter adapts a Firestore collection to the InsightWriter interface.
type firestoreWriter struct {
	client     *firestore.Client
	collection string
}

func (w *firestoreWriter) Insert(ctx context.Context, rec *models.AnalysisRecord) (string, error) {
	docRef, _, err := w.client.Collection(w.collection).Add(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("failed to insert insight record: %w", err)
	}
	return docRef.ID, nil
}
