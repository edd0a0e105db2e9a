// Package processor implements the central invariant of the pipeline:
// consume a CollectedItem, archive it, analyze it with an LLM, and upsert
// the result — one item at a time, with per-item failure isolation.
package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sentinel-pipeline/internal/adapter"
	"sentinel-pipeline/internal/domain/model"
	"sentinel-pipeline/internal/llm"
	"sentinel-pipeline/internal/observability/metrics"
)

// ObjectStore is the subset of internal/objectstore.Store the processor needs.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
	HealthCheck(ctx context.Context) bool
}

// RelationalStore is the subset of internal/store/postgres.Store the
// processor needs.
type RelationalStore interface {
	Insert(ctx context.Context, item *model.ProcessedItem) error
	Exists(ctx context.Context, id string) (bool, error)
	HealthCheck(ctx context.Context) bool
}

// Queue is the subset of internal/queue.Client the processor consumes from.
type Queue interface {
	Consume(ctx context.Context, topic string, batch int) adapter.ItemStream
	HealthCheck(ctx context.Context) bool
}

// Config controls per-item behavior.
type Config struct {
	Topic        string
	SkipExisting bool // cost optimization: skip re-archiving/re-analyzing items already in the store
}

// Service wires the queue, object store, LLM, and relational store together
// and drives them through the single per-item invariant.
type Service struct {
	Queue   Queue
	Objects ObjectStore
	LLM     llm.Client
	Store   RelationalStore
	Config  Config
}

// New constructs a Service from its dependencies.
func New(q Queue, objects ObjectStore, llmClient llm.Client, store RelationalStore, cfg Config) *Service {
	return &Service{Queue: q, Objects: objects, LLM: llmClient, Store: store, Config: cfg}
}

// ItemError records a single item's processing failure for batch stats.
type ItemError struct {
	ItemID  string `json:"item_id"`
	Message string `json:"message"`
}

// BatchStats aggregates the outcome of a ProcessBatch (or one pass of
// ProcessContinuous) call.
type BatchStats struct {
	Processed int         `json:"processed"`
	Skipped   int         `json:"skipped"`
	Errors    []ItemError `json:"errors"`
	Duration  time.Duration `json:"duration_ns"`
}

// ProcessBatch consumes up to max messages from the queue, processing each
// through the full archive/analyze/upsert invariant. A single item's failure
// is captured in stats.Errors and does not stop the batch; there is no
// automatic re-queue, since at-least-once delivery plus idempotent upsert
// already makes replay safe.
func (s *Service) ProcessBatch(ctx context.Context, max int) (*BatchStats, error) {
	start := time.Now()
	stats := &BatchStats{}

	stream := s.Queue.Consume(ctx, s.Config.Topic, max)
	for i := 0; i < max; i++ {
		item, ok, err := stream.Next(ctx)
		if err != nil {
			stats.Duration = time.Since(start)
			return stats, fmt.Errorf("consume queue message: %w", err)
		}
		if !ok {
			break
		}

		if err := s.processItem(ctx, &item); err != nil {
			if errors.Is(err, errSkipped) {
				stats.Skipped++
				metrics.RecordItemSkipped()
				continue
			}
			slog.Warn("processor: item failed",
				slog.String("item_id", item.ID),
				slog.Any("error", err))
			stats.Errors = append(stats.Errors, ItemError{ItemID: item.ID, Message: err.Error()})
			metrics.RecordProcessError()
			continue
		}
		stats.Processed++
		metrics.RecordItemProcessed()
	}

	stats.Duration = time.Since(start)
	metrics.RecordProcessBatchDuration(stats.Duration)
	slog.Info("processor: batch complete",
		slog.Int("processed", stats.Processed),
		slog.Int("skipped", stats.Skipped),
		slog.Int("errors", len(stats.Errors)),
		slog.Duration("duration", stats.Duration))
	return stats, nil
}

// ProcessContinuous loops ProcessBatch until ctx is canceled, logging a
// final processed/error tally on graceful shutdown. Each iteration polls
// batchSize messages; when the queue is drained the iteration simply
// returns quickly (the queue's own blocking timeout governs idle sleep).
func (s *Service) ProcessContinuous(ctx context.Context, batchSize int) BatchStats {
	var total BatchStats
	for {
		select {
		case <-ctx.Done():
			slog.Info("processor: shutting down",
				slog.Int("total_processed", total.Processed),
				slog.Int("total_skipped", total.Skipped),
				slog.Int("total_errors", len(total.Errors)))
			return total
		default:
		}

		stats, err := s.ProcessBatch(ctx, batchSize)
		if err != nil {
			if ctx.Err() != nil {
				continue // loop will exit via the Done() check above
			}
			slog.Error("processor: batch error, continuing", slog.Any("error", err))
			continue
		}

		total.Processed += stats.Processed
		total.Skipped += stats.Skipped
		total.Errors = append(total.Errors, stats.Errors...)
	}
}

// errSkipped is a sentinel used internally to distinguish a deliberate skip
// (skip_existing hit) from a genuine processing failure.
var errSkipped = errors.New("item skipped: already processed")

// processItem runs the single-item invariant: skip check, archive, analyze,
// upsert. Archival always precedes the LLM call so raw evidence survives an
// analysis failure and can be replayed later.
func (s *Service) processItem(ctx context.Context, item *model.CollectedItem) error {
	if s.Config.SkipExisting {
		exists, err := s.Store.Exists(ctx, item.ID)
		if err != nil {
			return fmt.Errorf("check existing: %w", err)
		}
		if exists {
			return errSkipped
		}
	}

	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal raw item: %w", err)
	}
	key := fmt.Sprintf("raw/%s/%s.json", item.SourceType, item.ID)
	rawPath, err := s.Objects.Put(ctx, key, raw)
	if err != nil {
		return fmt.Errorf("archive raw item: %w", err)
	}

	analyzeStart := time.Now()
	analysis, err := s.LLM.Analyze(ctx, item.Title, item.Content, item.SearchPhrase)
	metrics.RecordLLMAnalysisDuration(time.Since(analyzeStart))
	if err != nil {
		return fmt.Errorf("analyze item: %w", err)
	}

	processed := model.FromCollectedItem(item)
	processed.ProcessedAt = time.Now().UTC()
	processed.Analysis = analysis
	processed.RawStoragePath = rawPath

	if err := s.Store.Insert(ctx, processed); err != nil {
		return fmt.Errorf("insert processed item: %w", err)
	}
	return nil
}

// HealthCheck reports whether the processor's queue and relational store
// are reachable. LLM and object-storage checks are deliberately skipped: they
// are slow and/or cost money per call, unsuitable for a startup probe that
// may be hit frequently.
func (s *Service) HealthCheck(ctx context.Context) bool {
	return s.Queue.HealthCheck(ctx) && s.Store.HealthCheck(ctx)
}
