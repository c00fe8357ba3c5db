package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/rmacedo/prazoflow/internal/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrProcessoNotFound is returned when a processo does not exist or belongs
// to a different user. The two cases are indistinguishable on purpose.
var ErrProcessoNotFound = errors.New("processo not found")

// ErrInvalidProcesso marks payload validation failures.
var ErrInvalidProcesso = errors.New("invalid processo")

// ProcessoStore provides per-user CRUD over the processos collection.
type ProcessoStore struct {
	client     *firestore.Client
	collection string
	now        func() time.Time
}

// NewProcessoStore creates a store over the given collection.
func NewProcessoStore(client *firestore.Client, collection string) *ProcessoStore {
	return &ProcessoStore{client: client, collection: collection, now: time.Now}
}

// List returns all processos owned by the user, newest first.
func (s *ProcessoStore) List(ctx context.Context, userID string) ([]models.Processo, error) {
	docs, err := s.client.Collection(s.collection).
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list processos: %w", err)
	}

	out := make([]models.Processo, 0, len(docs))
	for _, doc := range docs {
		var p models.Processo
		if err := doc.DataTo(&p); err != nil {
			return nil, fmt.Errorf("failed to decode processo %s: %w", doc.Ref.ID, err)
		}
		p.ID = doc.Ref.ID
		out = append(out, p)
	}
	return out, nil
}

// Get returns one processo if it exists and belongs to the user.
func (s *ProcessoStore) Get(ctx context.Context, userID, id string) (*models.Processo, error) {
	snap, err := s.client.Collection(s.collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrProcessoNotFound
		}
		return nil, fmt.Errorf("failed to get processo %s: %w", id, err)
	}

	var p models.Processo
	if err := snap.DataTo(&p); err != nil {
		return nil, fmt.Errorf("failed to decode processo %s: %w", id, err)
	}
	if p.UserID != userID {
		return nil, ErrProcessoNotFound
	}
	p.ID = snap.Ref.ID
	return &p, nil
}

// Create inserts a new processo for the user and returns its id. Status and
// type fall back to their defaults when absent; unknown values are rejected.
func (s *ProcessoStore) Create(ctx context.Context, userID string, p *models.Processo) (string, error) {
	if p.CaseNumber == "" || p.Title == "" {
		return "", fmt.Errorf("%w: numeroProcesso and titulo are required", ErrInvalidProcesso)
	}
	if p.Status == "" {
		p.Status = models.StatusAtivo
	}
	if p.Type == "" {
		p.Type = models.TipoCivel
	}
	if !models.ValidStatus(p.Status) {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidProcesso, p.Status)
	}
	if !models.ValidTipo(p.Type) {
		return "", fmt.Errorf("%w: unknown tipoProcesso %q", ErrInvalidProcesso, p.Type)
	}

	p.UserID = userID
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt

	docRef, _, err := s.client.Collection(s.collection).Add(ctx, p)
	if err != nil {
		return "", fmt.Errorf("failed to create processo: %w", err)
	}
	return docRef.ID, nil
}

// Update applies a partial update to a processo owned by the user. Only the
// fields present in the payload are written; unknown enum values reject the
// whole request rather than silently vanishing from it.
func (s *ProcessoStore) Update(ctx context.Context, userID, id string, upd *models.ProcessoUpdate) error {
	if upd.Status != nil && !models.ValidStatus(*upd.Status) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidProcesso, *upd.Status)
	}
	if upd.Type != nil && !models.ValidTipo(*upd.Type) {
		return fmt.Errorf("%w: unknown tipoProcesso %q", ErrInvalidProcesso, *upd.Type)
	}

	// Ownership check before writing anything.
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}

	updates := buildProcessoUpdates(upd)
	if len(updates) == 0 {
		return nil
	}
	updates = append(updates, firestore.Update{Path: "updatedAt", Value: s.now()})

	if _, err := s.client.Collection(s.collection).Doc(id).Update(ctx, updates); err != nil {
		return fmt.Errorf("failed to update processo %s: %w", id, err)
	}
	return nil
}

// Delete removes a processo owned by the user.
func (s *ProcessoStore) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if _, err := s.client.Collection(s.collection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete processo %s: %w", id, err)
	}
	return nil
}

func buildProcessoUpdates(upd *models.ProcessoUpdate) []firestore.Update {
	var updates []firestore.Update
	add := func(path string, v any) {
		updates = append(updates, firestore.Update{Path: path, Value: v})
	}

	if upd.CaseNumber != nil {
		add("numeroProcesso", *upd.CaseNumber)
	}
	if upd.Title != nil {
		add("titulo", *upd.Title)
	}
	if upd.OpposingParty != nil {
		add("parteContraria", *upd.OpposingParty)
	}
	if upd.Court != nil {
		add("juizo", *upd.Court)
	}
	if upd.OpenedAt != nil {
		add("dataAbertura", *upd.OpenedAt)
	}
	if upd.NextDeadline != nil {
		add("proximoPrazo", *upd.NextDeadline)
	}
	if upd.DeadlineNote != nil {
		add("descricaoPrazo", *upd.DeadlineNote)
	}
	if upd.Status != nil {
		add("status", *upd.Status)
	}
	if upd.Type != nil {
		add("tipoProcesso", *upd.Type)
	}
	if upd.ClaimValue != nil {
		add("valorCausa", *upd.ClaimValue)
	}
	if upd.Notes != nil {
		add("anotacoes", *upd.Notes)
	}
	return updates
}
