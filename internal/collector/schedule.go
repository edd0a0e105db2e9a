package collector

import (
	"context"
	"log/slog"
	"time"

	"sentinel-pipeline/internal/domain/model"

	"github.com/robfig/cron/v3"
)

// ScheduleConfig configures an optional periodic re-collection job. Empty
// Expression (the default) disables scheduling entirely; spec.md's
// collection model is HTTP-triggered (POST /collect) and this is a strictly
// additive operator convenience.
type ScheduleConfig struct {
	Expression string        // standard 5-field cron expression; empty disables scheduling
	Timezone   string        // IANA timezone name; defaults to UTC
	Timeout    time.Duration // per-run timeout; defaults to 5 minutes

	// SearchPhrase and Sources are forwarded to every cron-triggered
	// Collect call; Lookback sets how far back each run's window starts,
	// computed fresh at fire time (not baked in once at startup).
	SearchPhrase string
	Sources      []string
	Lookback     time.Duration
}

func (c ScheduleConfig) withDefaults() ScheduleConfig {
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Minute
	}
	if c.Lookback <= 0 {
		c.Lookback = 24 * time.Hour
	}
	return c
}

// Scheduler drives periodic Collect calls on a cron schedule.
type Scheduler struct {
	cron *cron.Cron
}

// StartScheduler builds and starts a cron scheduler that invokes
// svc.Collect(cfg.Request) on cfg.Expression. Returns nil, nil if
// cfg.Expression is empty (scheduling disabled).
func StartScheduler(svc *Service, cfg ScheduleConfig) (*Scheduler, error) {
	if cfg.Expression == "" {
		return nil, nil
	}
	cfg = cfg.withDefaults()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		slog.Warn("collector: invalid timezone, using UTC", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(cfg.Expression, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		defer cancel()

		now := time.Now().In(loc)
		req := model.SearchRequest{
			Phrase:    cfg.SearchPhrase,
			StartDate: now.Add(-cfg.Lookback),
			EndDate:   now,
			JobID:     "scheduled",
			Sources:   cfg.Sources,
		}

		stats, err := svc.Collect(ctx, req)
		if err != nil {
			slog.Error("collector: scheduled collection failed", slog.Any("error", err))
			return
		}
		slog.Info("collector: scheduled collection complete",
			slog.Int("items_published", stats.ItemsPublished),
			slog.Int("errors", len(stats.Errors)))
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	slog.Info("collector: scheduler started", slog.String("schedule", cfg.Expression), slog.String("timezone", cfg.Timezone))
	return &Scheduler{cron: c}, nil
}

// Stop halts the scheduler, waiting for any in-flight run to complete.
func (s *Scheduler) Stop() {
	if s == nil || s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}
