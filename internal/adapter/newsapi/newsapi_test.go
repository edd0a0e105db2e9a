package newsapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sentinel-pipeline/internal/adapter"
	"sentinel-pipeline/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, pages []newsAPIResponse) *httptest.Server {
	t.Helper()
	call := 0
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/top-headlines" {
			w.WriteHeader(http.StatusOK)
			return
		}
		if call >= len(pages) {
			t.Fatalf("unexpected extra page request")
		}
		resp := pages[call]
		call++
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestAdapter_Search_PaginatesUntilExhausted(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	mid := start.Add(3 * 24 * time.Hour)

	page1 := newsAPIResponse{Status: "ok", TotalResults: 3, Articles: []newsAPIArticle{
		{URL: "https://example.com/1", Title: "one", PublishedAt: mid.Format(time.RFC3339)},
		{URL: "https://example.com/2", Title: "two", PublishedAt: mid.Format(time.RFC3339)},
	}}
	page2 := newsAPIResponse{Status: "ok", TotalResults: 3, Articles: []newsAPIArticle{
		{URL: "https://example.com/3", Title: "three", PublishedAt: mid.Format(time.RFC3339)},
	}}

	srv := newTestServer(t, []newsAPIResponse{page1, page2})
	defer srv.Close()

	a := New(Config{APIKey: "key", BaseURL: srv.URL, PageSize: 2}, srv.Client())
	stream, err := a.Search(context.Background(), model.SearchRequest{
		Phrase: "climate", StartDate: start, EndDate: end,
	})
	require.NoError(t, err)

	items, err := adapter.Drain(context.Background(), stream)
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.Equal(t, "https://example.com/1", items[0].URL)
}

func TestAdapter_Search_NonOkStatusIsError(t *testing.T) {
	srv := newTestServer(t, []newsAPIResponse{{Status: "error", Message: "rate limited"}})
	defer srv.Close()

	a := New(Config{APIKey: "key", BaseURL: srv.URL}, srv.Client())
	stream, err := a.Search(context.Background(), model.SearchRequest{
		Phrase: "climate", StartDate: time.Now().Add(-time.Hour), EndDate: time.Now(),
	})
	require.NoError(t, err)

	_, _, err = stream.Next(context.Background())
	assert.ErrorIs(t, err, adapter.ErrSourceAPI)
}

func TestAdapter_Search_DropsOutOfWindowArticles(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	outOfWindow := end.Add(48 * time.Hour)

	page := newsAPIResponse{Status: "ok", TotalResults: 1, Articles: []newsAPIArticle{
		{URL: "https://example.com/late", Title: "late", PublishedAt: outOfWindow.Format(time.RFC3339)},
	}}
	srv := newTestServer(t, []newsAPIResponse{page})
	defer srv.Close()

	a := New(Config{APIKey: "key", BaseURL: srv.URL}, srv.Client())
	stream, err := a.Search(context.Background(), model.SearchRequest{Phrase: "x", StartDate: start, EndDate: end})
	require.NoError(t, err)

	_, ok, err := stream.Next(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAdapter_HealthCheck(t *testing.T) {
	srv := newTestServer(t, nil)
	defer srv.Close()

	a := New(Config{APIKey: "key", BaseURL: srv.URL}, srv.Client())
	assert.True(t, a.HealthCheck(context.Background()))
}
