// Package llm defines the content-analysis contract the processor calls
// into, with Claude, OpenAI, and gateway-mediated Vertex backends.
package llm

import (
	"context"
	"errors"

	"sentinel-pipeline/internal/domain/model"
)

// ErrProviderUnavailable wraps a backend-level failure (HTTP/gRPC transport,
// circuit breaker open, non-2xx status).
var ErrProviderUnavailable = errors.New("llm provider unavailable")

// ErrMalformedResponse indicates the provider responded but its payload
// didn't parse into a valid Analysis.
var ErrMalformedResponse = errors.New("llm response malformed")

// Client analyzes a collected item's title and content for themes,
// sentiment, a summary, key points, and named entities.
type Client interface {
	Analyze(ctx context.Context, title, content, searchPhrase string) (model.Analysis, error)
	HealthCheck(ctx context.Context) bool
}
