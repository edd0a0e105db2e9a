// Package collector fans out a search request across every configured
// source adapter and publishes each resulting item to the queue.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"sentinel-pipeline/internal/adapter"
	"sentinel-pipeline/internal/domain/model"
	"sentinel-pipeline/internal/observability/metrics"
)

// Publisher is the subset of internal/queue.Client the collector needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, item model.CollectedItem) error
	HealthCheck(ctx context.Context) bool
}

// Config controls collection behavior.
type Config struct {
	Topic string
}

// Service drives every configured Source sequentially against one
// SearchRequest, publishing each yielded item to the queue. One adapter's
// failure is logged and counted; it never stops the remaining adapters.
type Service struct {
	Sources   []adapter.Source
	Publisher Publisher
	Config    Config
}

// New constructs a Service from its dependencies.
func New(sources []adapter.Source, publisher Publisher, cfg Config) *Service {
	return &Service{Sources: sources, Publisher: publisher, Config: cfg}
}

// SourceError records one adapter's failure for a CollectStats.
type SourceError struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

// CollectStats aggregates the outcome of one Collect call.
type CollectStats struct {
	SourcesQueried int            `json:"sources_queried"`
	ItemsFound     int            `json:"items_found"`
	ItemsPublished int            `json:"items_published"`
	BySource       map[string]int `json:"by_source"`
	Errors         []SourceError  `json:"errors"`
	Duration       time.Duration  `json:"duration_ns"`
}

// Collect runs req against every configured source, sequentially, per
// spec's concurrency model (no adapter-level fan-out parallelism in v1).
// A source that errors is recorded in stats.Errors; collection continues
// with the next source.
func (s *Service) Collect(ctx context.Context, req model.SearchRequest) (*CollectStats, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid search request: %w", err)
	}

	start := time.Now()
	stats := &CollectStats{SourcesQueried: len(s.Sources), BySource: make(map[string]int)}

	for _, src := range s.Sources {
		if err := s.collectFromSource(ctx, src, req, stats); err != nil {
			slog.Warn("collector: source failed",
				slog.String("source", src.Name()),
				slog.Any("error", err))
			stats.Errors = append(stats.Errors, SourceError{Source: src.Name(), Message: err.Error()})
			metrics.RecordCollectError(src.Name())
			continue
		}
	}

	stats.Duration = time.Since(start)
	metrics.RecordCollectDuration(stats.Duration)
	slog.Info("collector: collection complete",
		slog.Int("sources_queried", stats.SourcesQueried),
		slog.Int("items_found", stats.ItemsFound),
		slog.Int("items_published", stats.ItemsPublished),
		slog.Int("errors", len(stats.Errors)),
		slog.Duration("duration", stats.Duration))

	return stats, nil
}

// collectFromSource drains one adapter's stream item-by-item, publishing
// each as it arrives rather than materializing the full result set.
func (s *Service) collectFromSource(ctx context.Context, src adapter.Source, req model.SearchRequest, stats *CollectStats) error {
	stream, err := src.Search(ctx, req)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	for {
		item, ok, err := stream.Next(ctx)
		if err != nil {
			return fmt.Errorf("stream: %w", err)
		}
		if !ok {
			return nil
		}
		stats.ItemsFound++
		metrics.RecordItemCollected(string(item.SourceType), src.Name())

		if err := s.Publisher.Publish(ctx, s.Config.Topic, item); err != nil {
			return fmt.Errorf("publish item %s: %w", item.ID, err)
		}
		stats.ItemsPublished++
		stats.BySource[src.Name()]++
		metrics.RecordItemPublished(string(item.SourceType), src.Name())
	}
}

// HealthCheck reports whether the queue publisher is reachable. Per-adapter
// upstream reachability is each Source's own HealthCheck, surfaced
// separately (see Handler.ServeHealth) rather than folded into this gate.
func (s *Service) HealthCheck(ctx context.Context) bool {
	return s.Publisher.HealthCheck(ctx)
}
