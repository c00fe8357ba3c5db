package models

import "time"

// Processo status values, mirroring the practice-management lifecycle.
const (
	StatusAtivo         = "ativo"
	StatusProximoVencer = "proximo_vencer"
	StatusUrgente       = "urgente"
	StatusAguardando    = "aguardando"
	StatusVeredicto     = "veredicto"
)

// Processo type values.
const (
	TipoCivel          = "cível"
	TipoCriminal       = "criminal"
	TipoTrabalhista    = "trabalhista"
	TipoAdministrativo = "administrativo"
)

// Processo is a legal case record owned by a single user.
type Processo struct {
	ID            string     `firestore:"-" json:"id"`
	UserID        string     `firestore:"userId" json:"userId"`
	CaseNumber    string     `firestore:"numeroProcesso" json:"numeroProcesso"`
	Title         string     `firestore:"titulo" json:"titulo"`
	OpposingParty string     `firestore:"parteContraria" json:"parteContraria"`
	Court         string     `firestore:"juizo" json:"juizo"`
	OpenedAt      *time.Time `firestore:"dataAbertura" json:"dataAbertura,omitempty"`
	NextDeadline  *time.Time `firestore:"proximoPrazo" json:"proximoPrazo,omitempty"`
	DeadlineNote  string     `firestore:"descricaoPrazo,omitempty" json:"descricaoPrazo,omitempty"`
	Status        string     `firestore:"status" json:"status"`
	Type          string     `firestore:"tipoProcesso" json:"tipoProcesso"`
	ClaimValue    string     `firestore:"valorCausa,omitempty" json:"valorCausa,omitempty"`
	Notes         string     `firestore:"anotacoes,omitempty" json:"anotacoes,omitempty"`
	CreatedAt     time.Time  `firestore:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time  `firestore:"updatedAt" json:"updatedAt"`
}

// ValidStatus reports whether s is a known processo status.
func ValidStatus(s string) bool {
	switch s {
	case StatusAtivo, StatusProximoVencer, StatusUrgente, StatusAguardando, StatusVeredicto:
		return true
	}
	return false
}

// ValidTipo reports whether s is a known processo type.
func ValidTipo(s string) bool {
	switch s {
	case TipoCivel, TipoCriminal, TipoTrabalhista, TipoAdministrativo:
		return true
	}
	return false
}

// NotificationPreferences holds a user's deadline-alert settings. The
// document id in Firestore is the user id, one document per user.
type NotificationPreferences struct {
	UserID         string    `firestore:"userId" json:"userId"`
	EmailEnabled   bool      `firestore:"emailEnabled" json:"emailEnabled"`
	NotifyOverdue  bool      `firestore:"notifyVencidos" json:"notifyVencidos"`
	NotifyUrgent   bool      `firestore:"notifyUrgentes" json:"notifyUrgentes"`
	NotifyUpcoming bool      `firestore:"notifyProximos" json:"notifyProximos"`
	LeadDays       int       `firestore:"diasAntecedencia" json:"diasAntecedencia"`
	NotifyTime     string    `firestore:"horarioNotificacao" json:"horarioNotificacao"`
	UpdatedAt      time.Time `firestore:"updatedAt" json:"updatedAt"`
}

// DefaultPreferences returns the settings applied to users who never saved
// any: everything enabled, one week of lead time, morning delivery.
func DefaultPreferences(userID string) NotificationPreferences {
	return NotificationPreferences{
		UserID:         userID,
		EmailEnabled:   true,
		NotifyOverdue:  true,
		NotifyUrgent:   true,
		NotifyUpcoming: true,
		LeadDays:       7,
		NotifyTime:     "09:00",
	}
}

// Notification kinds, ordered by severity.
const (
	NotifyKindOverdue  = "vencido"
	NotifyKindUrgent   = "urgente"
	NotifyKindUpcoming = "proximo"
)

// Notification delivery states.
const (
	NotifyStatusSent    = "enviado"
	NotifyStatusFailed  = "falha"
	NotifyStatusPending = "pendente"
)

// NotificationRecord is one entry in a user's notification history.
type NotificationRecord struct {
	ID          string     `firestore:"-" json:"id"`
	UserID      string     `firestore:"userId" json:"userId"`
	ProcessoID  string     `firestore:"processoId,omitempty" json:"processoId,omitempty"`
	CaseNumber  string     `firestore:"numeroProcesso,omitempty" json:"numeroProcesso,omitempty"`
	Kind        string     `firestore:"tipo" json:"tipo"`
	Subject     string     `firestore:"assunto" json:"assunto"`
	Status      string     `firestore:"status" json:"status"`
	DeadlineAt  *time.Time `firestore:"dataPrazo" json:"dataPrazo,omitempty"`
	DeliveredAt *time.Time `firestore:"dataEnvio" json:"dataEnvio,omitempty"`
	CreatedAt   time.Time  `firestore:"createdAt" json:"createdAt"`
}
