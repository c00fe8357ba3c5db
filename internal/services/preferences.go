package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/rmacedo/prazoflow/internal/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var notifyTimePattern = regexp.MustCompile(`^\d{2}:\d{2}$`)

// ErrInvalidPreferences marks payload validation failures.
var ErrInvalidPreferences = errors.New("invalid preferences")

// PreferencesStore manages notification preferences and history. Preference
// documents are keyed by user id; history is append-only.
type PreferencesStore struct {
	client            *firestore.Client
	prefsCollection   string
	historyCollection string
	now               func() time.Time
}

// NewPreferencesStore creates a store over the given collections.
func NewPreferencesStore(client *firestore.Client, prefsCollection, historyCollection string) *PreferencesStore {
	return &PreferencesStore{
		client:            client,
		prefsCollection:   prefsCollection,
		historyCollection: historyCollection,
		now:               time.Now,
	}
}

// Get returns the user's preferences, or the defaults if none were saved.
func (s *PreferencesStore) Get(ctx context.Context, userID string) (models.NotificationPreferences, error) {
	snap, err := s.client.Collection(s.prefsCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return models.DefaultPreferences(userID), nil
		}
		return models.NotificationPreferences{}, fmt.Errorf("failed to get preferences for %s: %w", userID, err)
	}

	var prefs models.NotificationPreferences
	if err := snap.DataTo(&prefs); err != nil {
		return models.NotificationPreferences{}, fmt.Errorf("failed to decode preferences for %s: %w", userID, err)
	}
	prefs.UserID = userID
	return prefs, nil
}

// Upsert overlays the provided fields on the stored (or default) preferences
// and writes the whole document back.
func (s *PreferencesStore) Upsert(ctx context.Context, userID string, upd *models.PreferencesUpdate) (models.NotificationPreferences, error) {
	prefs, err := s.Get(ctx, userID)
	if err != nil {
		return models.NotificationPreferences{}, err
	}

	if upd.EmailEnabled != nil {
		prefs.EmailEnabled = *upd.EmailEnabled
	}
	if upd.NotifyOverdue != nil {
		prefs.NotifyOverdue = *upd.NotifyOverdue
	}
	if upd.NotifyUrgent != nil {
		prefs.NotifyUrgent = *upd.NotifyUrgent
	}
	if upd.NotifyUpcoming != nil {
		prefs.NotifyUpcoming = *upd.NotifyUpcoming
	}
	if upd.LeadDays != nil {
		if *upd.LeadDays < 1 || *upd.LeadDays > 30 {
			return models.NotificationPreferences{}, fmt.Errorf("%w: diasAntecedencia must be between 1 and 30", ErrInvalidPreferences)
		}
		prefs.LeadDays = *upd.LeadDays
	}
	if upd.NotifyTime != nil {
		if !notifyTimePattern.MatchString(*upd.NotifyTime) {
			return models.NotificationPreferences{}, fmt.Errorf("%w: horarioNotificacao must be HH:MM", ErrInvalidPreferences)
		}
		prefs.NotifyTime = *upd.NotifyTime
	}
	prefs.UpdatedAt = s.now()

	if _, err := s.client.Collection(s.prefsCollection).Doc(userID).Set(ctx, prefs); err != nil {
		return models.NotificationPreferences{}, fmt.Errorf("failed to save preferences for %s: %w", userID, err)
	}
	return prefs, nil
}

// SendTest dispatches a test notification so users can verify their alert
// settings. Delivery is the logging collaborator's concern; nothing is
// written to history.
func (s *PreferencesStore) SendTest(_ context.Context, userID string) models.TestNotificationResponse {
	slog.Info("Test notification dispatched.", "userId", userID)
	return models.TestNotificationResponse{
		Success: true,
		Message: fmt.Sprintf("E-mail de teste enviado para o usuário %s", userID),
	}
}

// History returns the user's most recent notification records, newest first.
// Limit is clamped to [1, 100]; zero means the default of 50.
func (s *PreferencesStore) History(ctx context.Context, userID string, limit int) ([]models.NotificationRecord, error) {
	switch {
	case limit <= 0:
		limit = 50
	case limit > 100:
		limit = 100
	}

	docs, err := s.client.Collection(s.historyCollection).
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc).
		Limit(limit).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list notification history: %w", err)
	}

	out := make([]models.NotificationRecord, 0, len(docs))
	for _, doc := range docs {
		var rec models.NotificationRecord
		if err := doc.DataTo(&rec); err != nil {
			return nil, fmt.Errorf("failed to decode notification %s: %w", doc.Ref.ID, err)
		}
		rec.ID = doc.Ref.ID
		out = append(out, rec)
	}
	return out, nil
}
