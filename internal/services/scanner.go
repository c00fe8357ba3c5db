package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/rmacedo/prazoflow/internal/gcp"
	"github.com/rmacedo/prazoflow/internal/models"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
)

// Notifier delivers one deadline alert. Real delivery (email provider) is an
// external collaborator; the default implementation only logs, which keeps
// the history record as the source of truth.
type Notifier interface {
	Send(ctx context.Context, prefs models.NotificationPreferences, rec *models.NotificationRecord) error
}

// logNotifier logs the alert and reports success.
type logNotifier struct{}

func (logNotifier) Send(_ context.Context, prefs models.NotificationPreferences, rec *models.NotificationRecord) error {
	slog.Info("Deadline notification", "userId", prefs.UserID, "tipo", rec.Kind, "assunto", rec.Subject)
	return nil
}

// ScannerConfig holds all configuration for the deadline scanner.
type ScannerConfig struct {
	ProjectID           string
	PrefsCollection     string
	ProcessosCollection string
	HistoryCollection   string
	UrgentWindowDays    int
	Concurrency         int
}

// ScannerFunction sweeps every opted-in user's processos and records one
// notification per deadline that is overdue, urgent, or inside the user's
// lead window.
type ScannerFunction struct {
	client   *firestore.Client
	notifier Notifier
	config   ScannerConfig
	now      func() time.Time
}

// NewScanner wires a scanner from explicit collaborators.
func NewScanner(client *firestore.Client, notifier Notifier, config ScannerConfig) *ScannerFunction {
	if config.UrgentWindowDays <= 0 {
		config.UrgentWindowDays = 2
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 8
	}
	if notifier == nil {
		notifier = logNotifier{}
	}
	return &ScannerFunction{client: client, notifier: notifier, config: config, now: time.Now}
}

// NewScannerFromEnv builds the production scanner.
func NewScannerFromEnv(ctx context.Context) (*ScannerFunction, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}

	config := ScannerConfig{
		ProjectID:           projectID,
		PrefsCollection:     gcp.GetEnv("PREFS_COLLECTION", "notificationPreferences"),
		ProcessosCollection: gcp.GetEnv("PROCESSOS_COLLECTION", "processos"),
		HistoryCollection:   gcp.GetEnv("HISTORY_COLLECTION", "notificationHistory"),
	}
	if v := gcp.GetEnv("SCANNER_CONCURRENCY", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Concurrency = n
		}
	}

	client, err := gcp.NewFirestoreClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	f := NewScanner(client, nil, config)
	slog.Info("Deadline scanner initialized.", "concurrency", f.config.Concurrency)
	return f, nil
}

// Process runs one sweep across all users with email notifications enabled.
// Users are independent, so they are scanned concurrently with a bounded
// group; one user's failure aborts the sweep so the scheduler retries it.
func (f *ScannerFunction) Process(ctx context.Context) (*models.ScanResponse, error) {
	now := f.now()
	var usersScanned, notifications atomic.Int64

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(f.config.Concurrency)

	iter := f.client.Collection(f.config.PrefsCollection).Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate preferences: %w", err)
		}

		var prefs models.NotificationPreferences
		if err := snap.DataTo(&prefs); err != nil {
			slog.Warn("Skipping undecodable preferences document.", "docId", snap.Ref.ID, "error", err)
			continue
		}
		prefs.UserID = snap.Ref.ID
		if !prefs.EmailEnabled {
			continue
		}

		eg.Go(func() error {
			n, err := f.scanUser(gctx, now, prefs)
			if err != nil {
				return fmt.Errorf("user %s: %w", prefs.UserID, err)
			}
			usersScanned.Add(1)
			notifications.Add(int64(n))
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	slog.Info("Deadline sweep complete.",
		"usersScanned", usersScanned.Load(),
		"notifications", notifications.Load(),
	)
	return &models.ScanResponse{
		Status:        "success",
		UsersScanned:  int(usersScanned.Load()),
		Notifications: int(notifications.Load()),
	}, nil
}

func (f *ScannerFunction) scanUser(ctx context.Context, now time.Time, prefs models.NotificationPreferences) (int, error) {
	docs, err := f.client.Collection(f.config.ProcessosCollection).
		Where("userId", "==", prefs.UserID).
		Documents(ctx).GetAll()
	if err != nil {
		return 0, fmt.Errorf("failed to list processos: %w", err)
	}

	var created int
	for _, doc := range docs {
		var p models.Processo
		if err := doc.DataTo(&p); err != nil {
			slog.Warn("Skipping undecodable processo.", "docId", doc.Ref.ID, "error", err)
			continue
		}
		if p.NextDeadline == nil {
			continue
		}

		kind, ok := classifyDeadline(now, *p.NextDeadline, f.config.UrgentWindowDays, prefs.LeadDays)
		if !ok || !wantsKind(prefs, kind) {
			continue
		}

		rec := &models.NotificationRecord{
			UserID:     prefs.UserID,
			ProcessoID: doc.Ref.ID,
			CaseNumber: p.CaseNumber,
			Kind:       kind,
			Subject:    notificationSubject(kind, p.CaseNumber),
			Status:     models.NotifyStatusPending,
			DeadlineAt: p.NextDeadline,
			CreatedAt:  now,
		}

		if err := f.notifier.Send(ctx, prefs, rec); err != nil {
			rec.Status = models.NotifyStatusFailed
			slog.Error("Notification delivery failed.", "userId", prefs.UserID, "processoId", doc.Ref.ID, "error", err)
		} else {
			sentAt := f.now()
			rec.Status = models.NotifyStatusSent
			rec.DeliveredAt = &sentAt
		}

		if _, _, err := f.client.Collection(f.config.HistoryCollection).Add(ctx, rec); err != nil {
			return created, fmt.Errorf("failed to record notification: %w", err)
		}
		created++
	}
	return created, nil
}

// classifyDeadline buckets a due date relative to now. Overdue wins over
// urgent, urgent over upcoming; deadlines beyond the lead window produce
// nothing.
func classifyDeadline(now, deadline time.Time, urgentWindowDays, leadDays int) (string, bool) {
	switch {
	case deadline.Before(now):
		return models.NotifyKindOverdue, true
	case !deadline.After(now.AddDate(0, 0, urgentWindowDays)):
		return models.NotifyKindUrgent, true
	case !deadline.After(now.AddDate(0, 0, leadDays)):
		return models.NotifyKindUpcoming, true
	default:
		return "", false
	}
}

func wantsKind(prefs models.NotificationPreferences, kind string) bool {
	switch kind {
	case models.NotifyKindOverdue:
		return prefs.NotifyOverdue
	case models.NotifyKindUrgent:
		return prefs.NotifyUrgent
	case models.NotifyKindUpcoming:
		return prefs.NotifyUpcoming
	default:
		return false
	}
}

func notificationSubject(kind, caseNumber string) string {
	switch kind {
	case models.NotifyKindOverdue:
		return fmt.Sprintf("Prazo vencido no processo %s", caseNumber)
	case models.NotifyKindUrgent:
		return fmt.Sprintf("Prazo urgente no processo %s", caseNumber)
	default:
		return fmt.Sprintf("Prazo se aproximando no processo %s", caseNumber)
	}
}
