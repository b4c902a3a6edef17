package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// ObjectStore keeps archived documents such as drawing transcripts and schedule snapshots.
type ObjectStore interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// PutJSON encodes v and uploads it under key.
func PutJSON(ctx context.Context, store ObjectStore, key string, v any) (*UploadResult, error) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}
	return store.Upload(ctx, key, "application/json", bytes.NewReader(body))
}
