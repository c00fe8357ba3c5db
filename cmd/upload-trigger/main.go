package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/rmacedo/prazoflow/internal/models"
	"github.com/rmacedo/prazoflow/internal/services"
)

var (
	analyzerInstance *services.AnalyzerFunction
	once             sync.Once
	initErr          error
)

// GCSEvent is the payload of a storage object-finalize event.
type GCSEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Register the CloudEvent function. The framework routes the event here.
	functions.CloudEvent("AnalyzeOnUpload", analyzeOnUpload)
}

// main is required by the Go Functions Framework.
func main() {}

// analyzeOnUpload fires on every object finalized in the documents bucket.
// Uploads are namespaced as <userId>/<caseId>/<filename> (caseId optional),
// so the owner can be derived from the object path without a lookup.
func analyzeOnUpload(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		analyzerInstance, initErr = services.NewAnalyzerFromEnv(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var gcsEvent GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	req, ok := requestFromObjectName(gcsEvent.Name)
	if !ok {
		// Not an analyzable upload. Swallow it so the trigger is not retried.
		slog.Info("Skipping object.", "gcsObject", gcsEvent.Name)
		return nil
	}

	if _, err := analyzerInstance.Process(ctx, req); err != nil {
		// Returning the error marks the invocation as failed; retry policy
		// belongs to the trigger infrastructure.
		return err
	}
	return nil
}

// requestFromObjectName derives the analyze request from the upload path.
// Non-PDF objects and paths without a user segment are skipped.
func requestFromObjectName(name string) (*models.AnalyzeRequest, bool) {
	if !strings.EqualFold(path.Ext(name), ".pdf") {
		return nil, false
	}

	parts := strings.Split(name, "/")
	req := &models.AnalyzeRequest{
		StorageKey:   name,
		DocumentName: path.Base(name),
	}
	switch len(parts) {
	case 2:
		req.UserID = parts[0]
	case 3:
		req.UserID = parts[0]
		req.CaseID = parts[1]
	default:
		return nil, false
	}
	if req.UserID == "" {
		return nil, false
	}
	return req, true
}
