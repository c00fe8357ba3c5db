package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/rmacedo/prazoflow/internal/gcp"
	"github.com/rmacedo/prazoflow/internal/models"
	"github.com/rmacedo/prazoflow/internal/services"
)

// userIDHeader carries the authenticated user id, set by the API gateway.
const userIDHeader = "X-User-Id"

var (
	store   *services.PreferencesStore
	once    sync.Once
	initErr error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("Notifications", handleNotifications)
}

// main is required by the Go Functions Framework.
func main() {}

// handleNotifications serves notification preferences and history:
//
//	GET  ?view=preferences  -> current (or default) preferences
//	POST ?view=preferences  -> partial update, returns the merged result
//	GET  ?view=history&limit=N -> recent notification records
//	POST ?view=test         -> dispatch a test notification
func handleNotifications(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		projectID := gcp.GetEnv("PROJECT_ID", "")
		client, err := gcp.NewFirestoreClient(context.Background(), projectID)
		if err != nil {
			initErr = err
			return
		}
		store = services.NewPreferencesStore(client,
			gcp.GetEnv("PREFS_COLLECTION", "notificationPreferences"),
			gcp.GetEnv("HISTORY_COLLECTION", "notificationHistory"),
		)
	})
	if initErr != nil {
		slog.Error("Critical: notification API initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		http.Error(w, "Unauthorized: missing user", http.StatusUnauthorized)
		return
	}

	view := r.URL.Query().Get("view")
	switch {
	case r.Method == http.MethodPost && view == "test":
		writeJSON(w, store.SendTest(r.Context(), userID), nil)
	case r.Method == http.MethodGet && view == "history":
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		history, err := store.History(r.Context(), userID, limit)
		writeJSON(w, history, err)
	case r.Method == http.MethodGet:
		prefs, err := store.Get(r.Context(), userID)
		writeJSON(w, prefs, err)
	case r.Method == http.MethodPost || r.Method == http.MethodPatch:
		var upd models.PreferencesUpdate
		if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
			slog.Warn("Could not decode request body", "error", err)
			http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
			return
		}
		prefs, err := store.Upsert(r.Context(), userID, &upd)
		if errors.Is(err, services.ErrInvalidPreferences) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, prefs, err)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, v any, err error) {
	if err != nil {
		slog.Error("Notification operation failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}
