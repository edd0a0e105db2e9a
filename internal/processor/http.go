package processor

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"sentinel-pipeline/internal/handler/http/respond"
)

// Handler exposes the processor's control plane: a one-shot batch trigger,
// a long-running continuous-mode trigger, and a health probe.
type Handler struct {
	Service   *Service
	BatchSize int

	cancelContinuous context.CancelFunc
}

// NewHandler wires svc into an HTTP surface. batchSize is the default batch
// size for both /process and each iteration of /process/continuous.
func NewHandler(svc *Service, batchSize int) *Handler {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Handler{Service: svc, BatchSize: batchSize}
}

type processResponse struct {
	Processed int         `json:"processed"`
	Skipped   int         `json:"skipped"`
	Errors    []ItemError `json:"errors"`
	DurationMS int64      `json:"duration_ms"`
}

// ServeProcess handles POST /process: runs one batch and returns its stats.
func (h *Handler) ServeProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats, err := h.Service.ProcessBatch(r.Context(), h.BatchSize)
	if err != nil {
		respond.JSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	respond.JSON(w, http.StatusOK, processResponse{
		Processed:  stats.Processed,
		Skipped:    stats.Skipped,
		Errors:     stats.Errors,
		DurationMS: stats.Duration.Milliseconds(),
	})
}

// ServeProcessContinuous handles POST /process/continuous: starts a
// background continuous-mode loop if one is not already running. The loop
// stops when the server shuts down (its context is canceled) or when
// StopContinuous is called.
func (h *Handler) ServeProcessContinuous(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.cancelContinuous != nil {
		respond.JSON(w, http.StatusConflict, map[string]string{"error": "continuous processing already running"})
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.cancelContinuous = cancel

	go func() {
		stats := h.Service.ProcessContinuous(ctx, h.BatchSize)
		slog.Info("processor: continuous mode stopped",
			slog.Int("total_processed", stats.Processed),
			slog.Int("total_skipped", stats.Skipped),
			slog.Int("total_errors", len(stats.Errors)))
	}()

	respond.JSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

// StopContinuous cancels a running continuous-mode loop, if any. Safe to
// call from a shutdown handler even when no loop is running.
func (h *Handler) StopContinuous() {
	if h.cancelContinuous != nil {
		h.cancelContinuous()
		h.cancelContinuous = nil
	}
}

type healthResponse struct {
	Status string `json:"status"`
}

// ServeHealth handles GET /health: queue and relational-store reachability
// only, per the processor's documented health-check scope.
func (h *Handler) ServeHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if !h.Service.HealthCheck(ctx) {
		respond.JSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unhealthy"})
		return
	}
	respond.JSON(w, http.StatusOK, healthResponse{Status: "healthy"})
}
