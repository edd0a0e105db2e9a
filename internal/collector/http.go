package collector

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"sentinel-pipeline/internal/domain/model"
	"sentinel-pipeline/internal/handler/http/respond"
)

// Handler exposes the collector's control plane: a collection trigger and a
// health probe.
type Handler struct {
	Service *Service
}

// NewHandler wires svc into an HTTP surface.
func NewHandler(svc *Service) *Handler {
	return &Handler{Service: svc}
}

type collectRequest struct {
	Phrase    string   `json:"phrase"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	JobID     string   `json:"job_id"`
	Sources   []string `json:"sources,omitempty"`
}

// ServeCollect handles POST /collect: decodes a SearchRequest from the body
// and runs one collection pass across every configured source.
func (h *Handler) ServeCollect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body collectRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	req, err := toSearchRequest(body)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err)
		return
	}

	stats, err := h.Service.Collect(r.Context(), req)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err)
		return
	}

	respond.JSON(w, http.StatusOK, stats)
}

func toSearchRequest(body collectRequest) (model.SearchRequest, error) {
	var req model.SearchRequest
	req.Phrase = body.Phrase
	req.JobID = body.JobID
	req.Sources = body.Sources

	if body.StartDate != "" {
		t, err := parseDate(body.StartDate)
		if err != nil {
			return req, err
		}
		req.StartDate = t
	}
	if body.EndDate != "" {
		t, err := parseDate(body.EndDate)
		if err != nil {
			return req, err
		}
		req.EndDate = t
	}
	return req, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want RFC3339: %w", s, err)
	}
	return t, nil
}

// ServeHealth handles GET /health.
func (h *Handler) ServeHealth(w http.ResponseWriter, r *http.Request) {
	if !h.Service.HealthCheck(r.Context()) {
		respond.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
