// Package objectstore abstracts raw-item archival behind Put/Get/Exists,
// with S3-compatible and GCS-native backends.
package objectstore

import (
	"context"
	"errors"
	"fmt"

	"sentinel-pipeline/internal/domain/model"
)

// ErrNotFound is returned by Get/Exists-adjacent calls when a key is absent.
var ErrNotFound = errors.New("object not found")

// Store is the abstraction the processor archives raw items through.
// Overwrite on collision is permitted and expected (idempotent re-archive).
type Store interface {
	// Put stores data at key and returns the canonical URI of the object.
	Put(ctx context.Context, key string, data []byte) (string, error)

	// Get retrieves the bytes stored at key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Exists reports whether an object exists at key.
	Exists(ctx context.Context, key string) (bool, error)

	// HealthCheck verifies the storage service is accessible.
	HealthCheck(ctx context.Context) bool
}

// RawKey builds the deterministic raw-content key convention:
// raw/{source_type}/{id}.json.
func RawKey(sourceType model.SourceType, id string) string {
	return fmt.Sprintf("raw/%s/%s.json", sourceType, id)
}
