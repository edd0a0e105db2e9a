// Package feed implements the Source adapter for configured syndication
// (RSS/Atom) feeds, reusing the teacher's gofeed-based fetch pattern.
package feed

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"sentinel-pipeline/internal/adapter"
	"sentinel-pipeline/internal/domain/model"
	"sentinel-pipeline/internal/resilience/circuitbreaker"
	"sentinel-pipeline/internal/resilience/retry"

	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"
)

// Config maps a display feed name to its URL, e.g. {"Reuters World": "https://..."}.
type Config struct {
	Feeds map[string]string
}

// Adapter implements adapter.Source over a fixed set of syndication feeds.
type Adapter struct {
	cfg            Config
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// New constructs a syndication-feed adapter.
func New(cfg Config, httpClient *http.Client) *Adapter {
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

func (a *Adapter) SourceType() model.SourceType { return model.SourceFeed }

func (a *Adapter) Name() string { return "RSS" }

// Search streams entries across every configured feed. Entries are filtered
// by case-insensitive substring match of req.Phrase against title∪summary,
// then by the [start_date, end_date] window. A failing feed is logged and
// skipped; remaining feeds still run.
func (a *Adapter) Search(ctx context.Context, req model.SearchRequest) (adapter.ItemStream, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	feedNames := make([]string, 0, len(a.cfg.Feeds))
	for name := range a.cfg.Feeds {
		feedNames = append(feedNames, name)
	}

	phraseLower := strings.ToLower(req.Phrase)
	feedIdx := 0
	var pending []*gofeed.Item
	var pendingFeedName string
	idx := 0

	fetchNextFeed := func(ctx context.Context) {
		for feedIdx < len(feedNames) {
			name := feedNames[feedIdx]
			url := a.cfg.Feeds[name]
			feedIdx++

			parsed, err := a.fetchFeed(ctx, url)
			if err != nil {
				slog.Warn("feed adapter: skipping unreachable feed",
					slog.String("feed_name", name), slog.String("url", url), slog.Any("error", err))
				continue
			}
			pending = parsed.Items
			pendingFeedName = name
			idx = 0
			return
		}
		pending = nil
	}

	return adapter.ItemStreamFunc(func(ctx context.Context) (model.CollectedItem, bool, error) {
		for {
			for idx < len(pending) {
				entry := pending[idx]
				idx++
				if !matchesPhrase(entry, phraseLower) {
					continue
				}
				item := toCollectedItem(entry, pendingFeedName, req.Phrase)
				if !item.InWindow(req.StartDate, req.EndDate) {
					continue
				}
				return item, true, nil
			}
			if feedIdx >= len(feedNames) && pending == nil && idx == 0 {
				return model.CollectedItem{}, false, nil
			}
			beforeIdx := feedIdx
			fetchNextFeed(ctx)
			if pending == nil {
				if beforeIdx >= len(feedNames) {
					return model.CollectedItem{}, false, nil
				}
				continue
			}
		}
	}), nil
}

func matchesPhrase(entry *gofeed.Item, phraseLower string) bool {
	title := strings.ToLower(entry.Title)
	summary := strings.ToLower(entry.Description)
	return strings.Contains(title, phraseLower) || strings.Contains(summary, phraseLower)
}

func toCollectedItem(entry *gofeed.Item, feedName, phrase string) model.CollectedItem {
	published := timestampFor(entry)

	externalID := entry.GUID
	if externalID == "" {
		externalID = entry.Link
	}

	tags := make([]string, 0, len(entry.Categories))
	tags = append(tags, entry.Categories...)

	content := entry.Content
	if content == "" {
		content = entry.Description
	}

	author := ""
	if entry.Author != nil {
		author = entry.Author.Name
	}

	return model.CollectedItem{
		ID:           model.DeriveID(model.SourceFeed, externalID),
		SourceType:   model.SourceFeed,
		SourceName:   feedName,
		ExternalID:   externalID,
		URL:          entry.Link,
		Title:        entry.Title,
		Content:      content,
		Author:       author,
		PublishedAt:  published,
		CollectedAt:  time.Now().UTC(),
		SearchPhrase: phrase,
		Metadata: map[string]any{
			"tags": tags,
		},
	}
}

// timestampFor applies the published -> updated -> now() priority, UTC-normalized.
func timestampFor(entry *gofeed.Item) time.Time {
	if entry.PublishedParsed != nil {
		return entry.PublishedParsed.UTC()
	}
	if entry.UpdatedParsed != nil {
		return entry.UpdatedParsed.UTC()
	}
	return time.Now().UTC()
}

func (a *Adapter) fetchFeed(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	var result *gofeed.Feed

	retryErr := retry.WithBackoff(ctx, a.retryConfig, func() error {
		cbResult, err := a.circuitBreaker.Execute(func() (interface{}, error) {
			fp := gofeed.NewParser()
			fp.UserAgent = "SentinelPipelineBot"
			fp.Client = a.client
			return fp.ParseURLWithContext(feedURL, ctx)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("feed circuit breaker open, request rejected",
					slog.String("service", "feed-fetch"), slog.String("url", feedURL),
					slog.String("state", a.circuitBreaker.State().String()))
			}
			return err
		}
		result = cbResult.(*gofeed.Feed)
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}
	return result, nil
}

// HealthCheck probes the first configured feed with a HEAD request.
func (a *Adapter) HealthCheck(ctx context.Context) bool {
	if len(a.cfg.Feeds) == 0 {
		return false
	}
	var firstURL string
	for _, u := range a.cfg.Feeds {
		firstURL = u
		break
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, firstURL, nil)
	if err != nil {
		return false
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
