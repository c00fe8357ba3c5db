package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/rmacedo/prazoflow/internal/services"
)

var (
	scannerInstance *services.ScannerFunction
	once            sync.Once
	initErr         error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Invoked by Cloud Scheduler once per day, at the notification hour.
	functions.HTTP("ScanDeadlines", handleScanDeadlines)
}

// main is required by the Go Functions Framework.
func main() {}

func handleScanDeadlines(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		scannerInstance, initErr = services.NewScannerFromEnv(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical: deadline scanner initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	res, err := scannerInstance.Process(r.Context())
	if err != nil {
		slog.Error("Deadline sweep failed", "error", err)
		http.Error(w, "Internal Server Error: sweep failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Error("Failed to write response", "error", err)
		http.Error(w, "Internal Server Error: failed to encode response", http.StatusInternalServerError)
	}
}
