package queryapi

import (
	"context"
	"net/http"
	"time"

	"sentinel-pipeline/internal/handler/http/respond"
)

// Store is the subset of internal/store/postgres.Store the health stub
// needs: reachability of the relational store the external reader queries.
type Store interface {
	HealthCheck(ctx context.Context) bool
}

// Handler exposes the query API's documented boundary: a health probe over
// the relational store it reads from. No read-side routes are implemented
// here (see package doc).
type Handler struct {
	Store Store
}

// NewHandler wires store into the health stub.
func NewHandler(store Store) *Handler {
	return &Handler{Store: store}
}

type healthResponse struct {
	Status string `json:"status"`
}

// ServeHealth handles GET /health: relational-store reachability only.
func (h *Handler) ServeHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if !h.Store.HealthCheck(ctx) {
		respond.JSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unhealthy"})
		return
	}
	respond.JSON(w, http.StatusOK, healthResponse{Status: "healthy"})
}
