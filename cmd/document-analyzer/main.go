package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/rmacedo/prazoflow/internal/models"
	"github.com/rmacedo/prazoflow/internal/services"
)

var (
	analyzerInstance *services.AnalyzerFunction
	once             sync.Once
	initErr          error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Register the HTTP function with the framework.
	// "AnalyzeDocument" is the entry point name configured in GCP.
	functions.HTTP("AnalyzeDocument", handleAnalyzeDocument)
}

// main is required by the Go Functions Framework.
func main() {}

// handleAnalyzeDocument is the HTTP handler invoked by the document-upload
// webhook. The payload carries the storage key and owning user of one
// freshly uploaded PDF.
func handleAnalyzeDocument(w http.ResponseWriter, r *http.Request) {
	// Use sync.Once for robust, one-time initialization of clients. The
	// clients outlive this request, so they must not inherit its context.
	once.Do(func() {
		analyzerInstance, initErr = services.NewAnalyzerFromEnv(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical: document analyzer initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	var req models.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Could not decode request body", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}

	res, err := analyzerInstance.Process(r.Context(), &req)
	if err != nil {
		// The specific error is already logged inside the Process method.
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Error("Failed to write response", "error", err, "storageKey", req.StorageKey)
		http.Error(w, "Internal Server Error: failed to encode response", http.StatusInternalServerError)
	}
}

// statusForError maps pipeline stages onto HTTP status codes so the trigger
// infrastructure can tell caller mistakes from transient failures.
func statusForError(err error) int {
	stage, ok := services.StageOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch stage {
	case services.StageValidation:
		return http.StatusBadRequest
	case services.StageRetrieval:
		if services.IsNotFound(err) {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	case services.StageExtraction:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}
