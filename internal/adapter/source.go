// Package adapter defines the Source contract every ingestion adapter
// implements, and the lazy ItemStream consumers pull from.
package adapter

import (
	"context"
	"errors"

	"sentinel-pipeline/internal/domain/model"
)

// Sentinel errors shared by every Source implementation.
var (
	// ErrSourceUnreachable indicates the upstream provider could not be
	// reached at all (network failure, DNS, connection refused).
	ErrSourceUnreachable = errors.New("source unreachable")

	// ErrSourceAPI indicates the upstream provider responded but signaled
	// an application-level error (non-"ok" status, an errors[] array, ...).
	ErrSourceAPI = errors.New("source api error")

	// ErrAuthFailed indicates the adapter could not obtain or refresh
	// credentials against the upstream provider.
	ErrAuthFailed = errors.New("source authentication failed")
)

// Source is the polymorphic interface every ingestion adapter implements.
// The collector never branches on concrete adapter type; it only calls
// through this interface.
type Source interface {
	// SourceType returns the constant tag identifying this adapter family.
	SourceType() model.SourceType

	// Name returns a human-readable display name for this adapter instance
	// (a configured feed name, a forum subreddit handle, ...).
	Name() string

	// Search returns a lazy stream of items matching req. Callers must pull
	// items one at a time via ItemStream.Next; adapters must not
	// materialize the full result set in memory.
	Search(ctx context.Context, req model.SearchRequest) (ItemStream, error)

	// HealthCheck reports whether the adapter can currently reach its
	// upstream provider. Never blocks longer than a short, adapter-internal
	// timeout, and never panics.
	HealthCheck(ctx context.Context) bool
}

// ItemStream is a pull-based iterator over CollectedItems. Next returns
// (item, true, nil) while items remain, (zero, false, nil) on clean
// exhaustion, and (zero, false, err) on failure. Once it returns false the
// stream must not be reused.
type ItemStream interface {
	Next(ctx context.Context) (model.CollectedItem, bool, error)
}

// ItemStreamFunc adapts a plain function to the ItemStream interface,
// useful for adapters whose pagination logic is naturally expressed as a
// single closure over mutable cursor state.
type ItemStreamFunc func(ctx context.Context) (model.CollectedItem, bool, error)

func (f ItemStreamFunc) Next(ctx context.Context) (model.CollectedItem, bool, error) {
	return f(ctx)
}

// Drain pulls every remaining item from s and returns them as a slice. It
// exists for tests and for the rare caller that genuinely needs the full
// set; production code (the collector) must use s.Next directly so
// publication stays item-at-a-time.
func Drain(ctx context.Context, s ItemStream) ([]model.CollectedItem, error) {
	var out []model.CollectedItem
	for {
		item, ok, err := s.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, item)
	}
}
