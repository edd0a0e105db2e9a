package collector

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"sentinel-pipeline/internal/adapter"
	"sentinel-pipeline/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_ServeCollect(t *testing.T) {
	sourceA := &fakeSource{name: "A", items: []model.CollectedItem{item("a1")}}
	pub := &fakePublisher{healthy: true}
	svc := New([]adapter.Source{sourceA}, pub, Config{Topic: "items"})
	h := NewHandler(svc)

	body, _ := json.Marshal(collectRequest{
		Phrase:    "supply chain",
		StartDate: "2026-01-01T00:00:00Z",
		EndDate:   "2026-01-02T00:00:00Z",
		JobID:     "job-1",
	})
	req := httptest.NewRequest(http.MethodPost, "/collect", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeCollect(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var stats CollectStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.ItemsPublished)
}

func TestHandler_ServeCollect_RejectsInvalidBody(t *testing.T) {
	svc := New(nil, &fakePublisher{healthy: true}, Config{Topic: "items"})
	h := NewHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/collect", bytes.NewReader([]byte("not json")))
	w := httptest.NewRecorder()
	h.ServeCollect(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_ServeCollect_RejectsMissingPhrase(t *testing.T) {
	svc := New(nil, &fakePublisher{healthy: true}, Config{Topic: "items"})
	h := NewHandler(svc)

	body, _ := json.Marshal(collectRequest{StartDate: "2026-01-01T00:00:00Z", EndDate: "2026-01-02T00:00:00Z"})
	req := httptest.NewRequest(http.MethodPost, "/collect", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeCollect(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_ServeHealth(t *testing.T) {
	svc := New(nil, &fakePublisher{healthy: true}, Config{Topic: "items"})
	h := NewHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
