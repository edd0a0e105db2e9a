package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSConfig configures the GCS-native backend. Authentication uses
// Application Default Credentials; no explicit key material is accepted.
type GCSConfig struct {
	Bucket string

	// Endpoint overrides the GCS JSON API base URL, for pointing at a local
	// fake (e.g. fake-gcs-server) in tests. Authentication is skipped
	// whenever this is set, since local fakes don't check credentials.
	Endpoint string
}

// GCSStore implements Store against Google Cloud Storage.
type GCSStore struct {
	bucket *storage.BucketHandle
	name   string
}

// NewGCSStore constructs a GCSStore using Application Default Credentials.
func NewGCSStore(ctx context.Context, cfg GCSConfig) (*GCSStore, error) {
	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("new gcs client: %w", err)
	}
	return &GCSStore{bucket: client.Bucket(cfg.Bucket), name: cfg.Bucket}, nil
}

func (s *GCSStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	w := s.bucket.Object(key).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs put %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs put %s: close: %w", key, err)
	}
	return fmt.Sprintf("gs://%s/%s", s.name, key), nil
}

func (s *GCSStore) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := s.bucket.Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("gcs get %s: %w", key, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read gcs object body %s: %w", key, err)
	}
	return data, nil
}

func (s *GCSStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.bucket.Object(key).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("gcs attrs %s: %w", key, err)
	}
	return true, nil
}

func (s *GCSStore) HealthCheck(ctx context.Context) bool {
	if _, err := s.bucket.Attrs(ctx); err != nil {
		slog.Warn("gcs health check failed", slog.String("bucket", s.name), slog.Any("error", err))
		return false
	}
	return true
}
