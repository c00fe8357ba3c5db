package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreferencesStore_SendTest(t *testing.T) {
	// SendTest only logs; it never touches Firestore.
	store := NewPreferencesStore(nil, "notificationPreferences", "notificationHistory")

	res := store.SendTest(context.Background(), "user-123")

	assert.True(t, res.Success)
	assert.Contains(t, res.Message, "user-123")
}
