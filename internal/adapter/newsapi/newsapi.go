// Package newsapi implements the Source adapter for NewsAPI.org-style
// windowed article search endpoints.
package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"sentinel-pipeline/internal/adapter"
	"sentinel-pipeline/internal/domain/model"
	"sentinel-pipeline/internal/resilience/circuitbreaker"
	"sentinel-pipeline/internal/resilience/retry"

	"github.com/sony/gobreaker"
)

const (
	defaultBaseURL  = "https://newsapi.org/v2"
	defaultPageSize = 100
)

// Config configures an Adapter instance.
type Config struct {
	APIKey   string
	BaseURL  string
	PageSize int
}

// Adapter implements adapter.Source against the NewsAPI /everything endpoint.
type Adapter struct {
	cfg            Config
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// New constructs a News-API adapter. httpClient may be nil to use
// http.DefaultClient.
func New(cfg Config, httpClient *http.Client) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Adapter{
		cfg:            cfg,
		client:         httpClient,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(),
	}
}

func (a *Adapter) SourceType() model.SourceType { return model.SourceNews }

func (a *Adapter) Name() string { return "NewsAPI" }

// newsAPIResponse mirrors the subset of the NewsAPI /everything payload this
// adapter consumes.
type newsAPIResponse struct {
	Status       string           `json:"status"`
	Message      string           `json:"message"`
	TotalResults int              `json:"totalResults"`
	Articles     []newsAPIArticle `json:"articles"`
}

type newsAPIArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content"`
}

// Search streams articles matching req, paginating the underlying API
// internally. Termination per spec: page*pageSize >= totalResults, or an
// empty page.
func (a *Adapter) Search(ctx context.Context, req model.SearchRequest) (adapter.ItemStream, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	page := 0
	totalResults := -1
	var pending []newsAPIArticle
	idx := 0
	exhausted := false

	fetchNextPage := func(ctx context.Context) error {
		page++
		resp, err := a.fetchPage(ctx, req, page)
		if err != nil {
			return err
		}
		if resp.Status != "ok" {
			return fmt.Errorf("%w: %s", adapter.ErrSourceAPI, resp.Message)
		}
		if totalResults < 0 {
			totalResults = resp.TotalResults
		}
		pending = resp.Articles
		idx = 0
		if page*a.cfg.PageSize >= totalResults || len(resp.Articles) == 0 {
			exhausted = true
		}
		return nil
	}

	return adapter.ItemStreamFunc(func(ctx context.Context) (model.CollectedItem, bool, error) {
		for {
			if idx < len(pending) {
				article := pending[idx]
				idx++
				item, ok := a.toCollectedItem(article, req)
				if !ok {
					continue
				}
				return item, true, nil
			}
			if exhausted {
				return model.CollectedItem{}, false, nil
			}
			if err := fetchNextPage(ctx); err != nil {
				return model.CollectedItem{}, false, err
			}
		}
	}), nil
}

func (a *Adapter) fetchPage(ctx context.Context, req model.SearchRequest, page int) (*newsAPIResponse, error) {
	var result *newsAPIResponse

	retryErr := retry.WithBackoff(ctx, a.retryConfig, func() error {
		cbResult, err := a.circuitBreaker.Execute(func() (interface{}, error) {
			return a.doFetchPage(ctx, req, page)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("newsapi circuit breaker open, request rejected",
					slog.String("service", "newsapi"),
					slog.Int("page", page))
			}
			return err
		}
		result = cbResult.(*newsAPIResponse)
		return nil
	})
	if retryErr != nil {
		return nil, fmt.Errorf("%w: %w", adapter.ErrSourceUnreachable, retryErr)
	}
	return result, nil
}

func (a *Adapter) doFetchPage(ctx context.Context, req model.SearchRequest, page int) (*newsAPIResponse, error) {
	q := url.Values{}
	q.Set("q", req.Phrase)
	q.Set("from", req.StartDate.Format("2006-01-02"))
	q.Set("to", req.EndDate.Format("2006-01-02"))
	q.Set("pageSize", strconv.Itoa(a.cfg.PageSize))
	q.Set("page", strconv.Itoa(page))
	q.Set("sortBy", "publishedAt")
	q.Set("language", "en")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.BaseURL+"/everything?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build newsapi request: %w", err)
	}
	httpReq.Header.Set("X-Api-Key", a.cfg.APIKey)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("newsapi request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: "newsapi request failed"}
	}

	var decoded newsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode newsapi response: %w", err)
	}
	return &decoded, nil
}

func (a *Adapter) toCollectedItem(article newsAPIArticle, req model.SearchRequest) (model.CollectedItem, bool) {
	externalID := article.URL
	publishedAt, err := time.Parse(time.RFC3339, article.PublishedAt)
	if err != nil {
		slog.Warn("newsapi: unparsable publishedAt, skipping article",
			slog.String("url", article.URL), slog.String("published_at", article.PublishedAt))
		return model.CollectedItem{}, false
	}
	publishedAt = publishedAt.UTC()

	item := model.CollectedItem{
		ID:           model.DeriveID(model.SourceNews, externalID),
		SourceType:   model.SourceNews,
		SourceName:   firstNonEmpty(article.Source.Name, "unknown"),
		ExternalID:   externalID,
		URL:          article.URL,
		Title:        article.Title,
		Content:      firstNonEmpty(article.Content, article.Description),
		Author:       article.Author,
		PublishedAt:  publishedAt,
		CollectedAt:  time.Now().UTC(),
		SearchPhrase: req.Phrase,
		Metadata: map[string]any{
			"description": article.Description,
			"image_url":   article.URLToImage,
		},
	}

	if !item.InWindow(req.StartDate, req.EndDate) {
		return model.CollectedItem{}, false
	}
	return item, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// HealthCheck probes the top-headlines endpoint with a minimal page size.
func (a *Adapter) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		a.cfg.BaseURL+"/top-headlines?country=us&pageSize=1", nil)
	if err != nil {
		return false
	}
	httpReq.Header.Set("X-Api-Key", a.cfg.APIKey)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
