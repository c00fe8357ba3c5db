package models

import (
	"fmt"
	"strings"
	"time"
)

// These structs define the JSON payloads crossing the function boundaries:
// the upload webhook into the analyzer, the scheduler ping into the scanner,
// and the responses each hands back.

// AnalyzeRequest is the trigger payload for the document analyzer.
type AnalyzeRequest struct {
	StorageKey   string `json:"storageKey"`
	UserID       string `json:"userId"`
	CaseID       string `json:"caseId,omitempty"`
	DocumentName string `json:"documentName,omitempty"`
}

// Validate checks the required trigger fields. It runs before any
// collaborator is touched.
func (r *AnalyzeRequest) Validate() error {
	if strings.TrimSpace(r.StorageKey) == "" {
		return fmt.Errorf("storageKey is required")
	}
	if strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("userId is required")
	}
	return nil
}

// AnalyzeResponse reports the outcome of a successful analysis run.
type AnalyzeResponse struct {
	Status           string     `json:"status"`
	InsightID        string     `json:"insightId"`
	RunID            string     `json:"runId"`
	Urgency          string     `json:"urgency"`
	DetectedDeadline *time.Time `json:"detectedDeadline,omitempty"`
}

// ScanResponse reports the outcome of one deadline-scanner sweep.
type ScanResponse struct {
	Status        string `json:"status"`
	UsersScanned  int    `json:"usersScanned"`
	Notifications int    `json:"notifications"`
}

// TestNotificationResponse confirms a test delivery was dispatched.
type TestNotificationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ProcessoUpdate carries a partial update; nil fields are left untouched.
type ProcessoUpdate struct {
	CaseNumber    *string    `json:"numeroProcesso,omitempty"`
	Title         *string    `json:"titulo,omitempty"`
	OpposingParty *string    `json:"parteContraria,omitempty"`
	Court         *string    `json:"juizo,omitempty"`
	OpenedAt      *time.Time `json:"dataAbertura,omitempty"`
	NextDeadline  *time.Time `json:"proximoPrazo,omitempty"`
	DeadlineNote  *string    `json:"descricaoPrazo,omitempty"`
	Status        *string    `json:"status,omitempty"`
	Type          *string    `json:"tipoProcesso,omitempty"`
	ClaimValue    *string    `json:"valorCausa,omitempty"`
	Notes         *string    `json:"anotacoes,omitempty"`
}

// PreferencesUpdate carries a partial update of notification preferences.
type PreferencesUpdate struct {
	EmailEnabled   *bool   `json:"emailEnabled,omitempty"`
	NotifyOverdue  *bool   `json:"notifyVencidos,omitempty"`
	NotifyUrgent   *bool   `json:"notifyUrgentes,omitempty"`
	NotifyUpcoming *bool   `json:"notifyProximos,omitempty"`
	LeadDays       *int    `json:"diasAntecedencia,omitempty"`
	NotifyTime     *string `json:"horarioNotificacao,omitempty"`
}
