package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rmacedo/prazoflow/internal/models"
)

func TestClassifyDeadline(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	const urgentWindow, leadDays = 2, 7

	tests := []struct {
		name     string
		deadline time.Time
		wantKind string
		wantOK   bool
	}{
		{
			name:     "yesterday is overdue",
			deadline: now.AddDate(0, 0, -1),
			wantKind: models.NotifyKindOverdue,
			wantOK:   true,
		},
		{
			name:     "long past is overdue",
			deadline: now.AddDate(0, -2, 0),
			wantKind: models.NotifyKindOverdue,
			wantOK:   true,
		},
		{
			name:     "one hour from now is urgent",
			deadline: now.Add(time.Hour),
			wantKind: models.NotifyKindUrgent,
			wantOK:   true,
		},
		{
			name:     "exactly two days out is urgent",
			deadline: now.AddDate(0, 0, 2),
			wantKind: models.NotifyKindUrgent,
			wantOK:   true,
		},
		{
			name:     "three days out is upcoming",
			deadline: now.AddDate(0, 0, 3),
			wantKind: models.NotifyKindUpcoming,
			wantOK:   true,
		},
		{
			name:     "exactly at the lead window is upcoming",
			deadline: now.AddDate(0, 0, 7),
			wantKind: models.NotifyKindUpcoming,
			wantOK:   true,
		},
		{
			name:     "beyond the lead window is silent",
			deadline: now.AddDate(0, 0, 8),
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := classifyDeadline(now, tt.deadline, urgentWindow, leadDays)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantKind, kind)
			}
		})
	}
}

func TestWantsKind(t *testing.T) {
	prefs := models.DefaultPreferences("u1")
	assert.True(t, wantsKind(prefs, models.NotifyKindOverdue))
	assert.True(t, wantsKind(prefs, models.NotifyKindUrgent))
	assert.True(t, wantsKind(prefs, models.NotifyKindUpcoming))

	prefs.NotifyUrgent = false
	assert.False(t, wantsKind(prefs, models.NotifyKindUrgent))
	assert.True(t, wantsKind(prefs, models.NotifyKindOverdue))

	prefs.NotifyOverdue = false
	prefs.NotifyUpcoming = false
	assert.False(t, wantsKind(prefs, models.NotifyKindOverdue))
	assert.False(t, wantsKind(prefs, models.NotifyKindUpcoming))

	assert.False(t, wantsKind(prefs, "desconhecido"))
}

func TestNotificationSubject(t *testing.T) {
	assert.Equal(t, "Prazo vencido no processo 0001234-56.2026.8.26.0100",
		notificationSubject(models.NotifyKindOverdue, "0001234-56.2026.8.26.0100"))
	assert.Contains(t, notificationSubject(models.NotifyKindUrgent, "X"), "urgente")
	assert.Contains(t, notificationSubject(models.NotifyKindUpcoming, "X"), "aproximando")
}
