package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/rmacedo/prazoflow/internal/gcp"
	"github.com/rmacedo/prazoflow/internal/models"
	"github.com/rmacedo/prazoflow/internal/services"
)

// userIDHeader carries the authenticated user id, set by the API gateway
// after session validation. Auth itself happens upstream of this function.
const userIDHeader = "X-User-Id"

var (
	store   *services.ProcessoStore
	once    sync.Once
	initErr error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("Processos", handleProcessos)
}

// main is required by the Go Functions Framework.
func main() {}

func handleProcessos(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		projectID := gcp.GetEnv("PROJECT_ID", "")
		client, err := gcp.NewFirestoreClient(context.Background(), projectID)
		if err != nil {
			initErr = err
			return
		}
		store = services.NewProcessoStore(client, gcp.GetEnv("PROCESSOS_COLLECTION", "processos"))
	})
	if initErr != nil {
		slog.Error("Critical: processo API initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		http.Error(w, "Unauthorized: missing user", http.StatusUnauthorized)
		return
	}
	id := r.URL.Query().Get("id")

	switch {
	case r.Method == http.MethodGet && id == "":
		list, err := store.List(r.Context(), userID)
		respond(w, list, err)
	case r.Method == http.MethodGet:
		p, err := store.Get(r.Context(), userID, id)
		respond(w, p, err)
	case r.Method == http.MethodPost:
		var p models.Processo
		if !decodeBody(w, r, &p) {
			return
		}
		newID, err := store.Create(r.Context(), userID, &p)
		if err != nil {
			respond(w, nil, err)
			return
		}
		p.ID = newID
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(p); err != nil {
			slog.Error("Failed to write response", "error", err)
		}
	case (r.Method == http.MethodPatch || r.Method == http.MethodPut) && id != "":
		var upd models.ProcessoUpdate
		if !decodeBody(w, r, &upd) {
			return
		}
		if err := store.Update(r.Context(), userID, id, &upd); err != nil {
			respond(w, nil, err)
			return
		}
		p, err := store.Get(r.Context(), userID, id)
		respond(w, p, err)
	case r.Method == http.MethodDelete && id != "":
		if err := store.Delete(r.Context(), userID, id); err != nil {
			respond(w, nil, err)
			return
		}
		respond(w, map[string]bool{"success": true}, nil)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		slog.Warn("Could not decode request body", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return false
	}
	return true
}

func respond(w http.ResponseWriter, v any, err error) {
	if err != nil {
		if errors.Is(err, services.ErrProcessoNotFound) {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		if errors.Is(err, services.ErrInvalidProcesso) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("Processo operation failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}
