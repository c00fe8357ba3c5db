package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Urgency levels as emitted by the analysis model. The values are the
// Portuguese labels the model is instructed to use; they are stored as-is.
const (
	UrgencyHigh   = "Alta"
	UrgencyMedium = "Média"
	UrgencyLow    = "Baixa"
)

// Insight is the structured result of one document analysis. The JSON tags
// match the schema the model is instructed to produce; the firestore tags
// define how the blob is stored inside an AnalysisRecord.
type Insight struct {
	DocumentType   string `json:"tipo_documento" firestore:"tipoDocumento"`
	Summary        string `json:"resumo" firestore:"resumo"`
	HasDeadline    bool   `json:"tem_prazo" firestore:"temPrazo"`
	DeadlineDays   *int   `json:"dias_prazo" firestore:"diasPrazo"`
	Urgency        string `json:"urgencia" firestore:"urgencia"`
	Recommendation string `json:"recomendacao" firestore:"recomendacao"`
}

// maxDeadlineDays caps the plausible relative deadline at ten years. No
// procedural deadline runs longer; anything above it is model garbage.
const maxDeadlineDays = 3650

// rawInsight accepts the model output before normalization. DeadlineDays is
// decoded as a float because models occasionally emit "10.0" for an integer
// field.
type rawInsight struct {
	DocumentType   string   `json:"tipo_documento"`
	Summary        string   `json:"resumo"`
	HasDeadline    bool     `json:"tem_prazo"`
	DeadlineDays   *float64 `json:"dias_prazo"`
	Urgency        string   `json:"urgencia"`
	Recommendation string   `json:"recomendacao"`
}

// DecodeInsight parses model output into a normalized Insight. It never
// fails: unparseable output is treated as an empty object, unknown or
// missing urgency falls back to UrgencyLow, and a deadline day count is kept
// only when the deadline flag is set and the count is non-negative. The low
// urgency floor is deliberate — a degraded response must surface as a
// conservative record needing human review, not silently claim urgency.
func DecodeInsight(raw string) Insight {
	var r rawInsight
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		r = rawInsight{}
	}

	out := Insight{
		DocumentType:   strings.TrimSpace(r.DocumentType),
		Summary:        strings.TrimSpace(r.Summary),
		HasDeadline:    r.HasDeadline,
		Urgency:        normalizeUrgency(r.Urgency),
		Recommendation: strings.TrimSpace(r.Recommendation),
	}

	if r.HasDeadline && r.DeadlineDays != nil && *r.DeadlineDays >= 0 && *r.DeadlineDays <= maxDeadlineDays {
		days := int(*r.DeadlineDays) // truncate toward zero
		out.DeadlineDays = &days
	} else {
		// A deadline flag without a usable day count carries no information.
		// The upper bound also keeps the float-to-int conversion defined:
		// an absurd value like 1e308 would otherwise overflow into garbage.
		out.HasDeadline = false
	}

	return out
}

func normalizeUrgency(s string) string {
	switch strings.TrimSpace(s) {
	case UrgencyHigh, UrgencyMedium, UrgencyLow:
		return strings.TrimSpace(s)
	default:
		return UrgencyLow
	}
}

// DeadlineAfter derives the absolute deadline from the relative day count,
// using calendar-day addition from the given instant. Returns nil when no
// deadline was detected.
func (i Insight) DeadlineAfter(now time.Time) *time.Time {
	if !i.HasDeadline || i.DeadlineDays == nil || *i.DeadlineDays < 0 {
		return nil
	}
	d := now.AddDate(0, 0, *i.DeadlineDays)
	return &d
}

// AnalysisRecord is the persisted outcome of one pipeline run. Records are
// append-only: re-analysis inserts a new record rather than mutating an
// existing one.
type AnalysisRecord struct {
	UserID           string     `firestore:"userId"`
	CaseID           string     `firestore:"caseId,omitempty"`
	StorageKey       string     `firestore:"storageKey"`
	DocumentName     string     `firestore:"documentName,omitempty"`
	Insight          Insight    `firestore:"insight"`
	Urgency          string     `firestore:"urgency"`
	DetectedDeadline *time.Time `firestore:"detectedDeadline"`
	RunID            string     `firestore:"runId"`
	CreatedAt        time.Time  `firestore:"createdAt"`
}
