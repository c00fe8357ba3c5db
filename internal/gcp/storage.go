package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// ErrObjectNotFound is returned by ReadObject when the requested key does
// not exist in the bucket.
var ErrObjectNotFound = errors.New("object not found")

// ReadObject downloads the full contents of a GCS object into memory.
// Uploaded legal documents are capped well below function memory limits, so
// buffering the whole file is fine here.
func ReadObject(ctx context.Context, client *storage.Client, bucket, key string) ([]byte, error) {
	reader, err := client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("gs://%s/%s: %w", bucket, key, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to open GCS object gs://%s/%s: %w", bucket, key, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read GCS object gs://%s/%s: %w", bucket, key, err)
	}
	return data, nil
}

func isNotFound(err error) bool {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return true
	}
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == 404
}
