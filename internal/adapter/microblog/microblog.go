// Package microblog implements the Source adapter for X/Twitter-API-v2-style
// microblog search endpoints.
package microblog

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

const defaultBaseURL = "https://api.twitter.com/2"

// Config configures a microblog Adapter.
type Config struct {
	BearerToken string
	MaxResults  int // clamped to [10,100], default 100
	BaseURL     string
}

// Adapter implements adapter.Source against a microblog search API.
type Adapter struct {
	cfg            Config
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// New constructs a microblog adapter.
func New(cfg Config, httpClient *http.Client) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.MaxResults < 10 {
		cfg.MaxResults = 10
	}
	if cfg.MaxResults > 100 {
		cfg.MaxResults = 100
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

func (a *Adapter) SourceType() model.SourceType { return model.SourceMicroblog }

func (a *Adapter) Name() string { return "Microblog" }

type searchResponse struct {
	Data     []tweet `json:"data"`
	Includes struct {
		Users []user `json:"users"`
	} `json:"includes"`
	Meta struct {
		NextToken string `json:"next_token"`
	} `json:"meta"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type tweet struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	AuthorID    string `json:"author_id"`
	CreatedAt   string `json:"created_at"`
	PublicMetrics struct {
		RetweetCount int `json:"retweet_count"`
		ReplyCount   int `json:"reply_count"`
		LikeCount    int `json:"like_count"`
		QuoteCount   int `json:"quote_count"`
	} `json:"public_metrics"`
	Entities struct {
		Hashtags []struct {
			Tag string `json:"tag"`
		} `json:"hashtags"`
		Mentions []struct {
			Username string `json:"username"`
		} `json:"mentions"`
	} `json:"entities"`
}

type user struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// Search streams tweets matching req, following next_token cursors until the
// API reports no further page.
func (a *Adapter) Search(ctx context.Context, req model.SearchRequest) (adapter.ItemStream, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	nextToken := ""
	started := false
	var pending []tweet
	var users map[string]user
	idx := 0
	done := false

	fetch := func(ctx context.Context) error {
		resp, err := a.fetchPage(ctx, req, nextToken)
		if err != nil {
			return err
		}
		if len(resp.Errors) > 0 && resp.Data == nil {
			return fmt.Errorf("%w: %s", adapter.ErrSourceAPI, resp.Errors[0].Message)
		}
		if resp.Data == nil {
			done = true
			return nil
		}
		pending = resp.Data
		idx = 0
		users = make(map[string]user, len(resp.Includes.Users))
		for _, u := range resp.Includes.Users {
			users[u.ID] = u
		}
		nextToken = resp.Meta.NextToken
		if nextToken == "" {
			done = true
		}
		return nil
	}

	return adapter.ItemStreamFunc(func(ctx context.Context) (model.CollectedItem, bool, error) {
		for {
			if idx < len(pending) {
				tw := pending[idx]
				idx++
				return toCollectedItem(tw, users[tw.AuthorID], req.Phrase), true, nil
			}
			if !started {
				started = true
				if err := fetch(ctx); err != nil {
					return model.CollectedItem{}, false, err
				}
				continue
			}
			if done {
				return model.CollectedItem{}, false, nil
			}
			if err := fetch(ctx); err != nil {
				return model.CollectedItem{}, false, err
			}
		}
	}), nil
}

func (a *Adapter) fetchPage(ctx context.Context, req model.SearchRequest, nextToken string) (*searchResponse, error) {
	var result *searchResponse

	retryErr := retry.WithBackoff(ctx, a.retryConfig, func() error {
		cbResult, err := a.circuitBreaker.Execute(func() (interface{}, error) {
			return a.doFetchPage(ctx, req, nextToken)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("microblog circuit breaker open, request rejected", slog.String("service", "microblog"))
			}
			return err
		}
		result = cbResult.(*searchResponse)
		return nil
	})
	if retryErr != nil {
		return nil, fmt.Errorf("%w: %w", adapter.ErrSourceUnreachable, retryErr)
	}
	return result, nil
}

func (a *Adapter) doFetchPage(ctx context.Context, req model.SearchRequest, nextToken string) (*searchResponse, error) {
	q := url.Values{}
	q.Set("query", req.Phrase+" lang:en -is:retweet")
	q.Set("max_results", strconv.Itoa(a.cfg.MaxResults))
	q.Set("start_time", req.StartDate.UTC().Format("2006-01-02T15:04:05Z"))
	q.Set("end_time", req.EndDate.UTC().Format("2006-01-02T15:04:05Z"))
	q.Set("tweet.fields", "id,text,author_id,created_at,public_metrics,entities")
	q.Set("user.fields", "username,name")
	q.Set("expansions", "author_id")
	if nextToken != "" {
		q.Set("next_token", nextToken)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		a.cfg.BaseURL+"/tweets/search/recent?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build microblog search request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+a.cfg.BearerToken)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("microblog search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusTooManyRequests {
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: "microblog search failed"}
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode microblog search response: %w", err)
	}
	return &decoded, nil
}

func toCollectedItem(tw tweet, author user, phrase string) model.CollectedItem {
	published, err := time.Parse(time.RFC3339, tw.CreatedAt)
	if err != nil {
		published = time.Now().UTC()
	}
	published = published.UTC()

	username := author.Username
	if username == "" {
		username = "unknown"
	}
	authorName := author.Name
	if authorName == "" {
		authorName = username
	}

	hashtags := make([]string, 0, len(tw.Entities.Hashtags))
	for _, h := range tw.Entities.Hashtags {
		hashtags = append(hashtags, h.Tag)
	}
	mentions := make([]string, 0, len(tw.Entities.Mentions))
	for _, m := range tw.Entities.Mentions {
		mentions = append(mentions, m.Username)
	}

	return model.CollectedItem{
		ID:           model.DeriveID(model.SourceMicroblog, tw.ID),
		SourceType:   model.SourceMicroblog,
		SourceName:   "@" + username,
		ExternalID:   tw.ID,
		URL:          fmt.Sprintf("https://twitter.com/%s/status/%s", username, tw.ID),
		Title:        "",
		Content:      tw.Text,
		Author:       authorName,
		PublishedAt:  published,
		CollectedAt:  time.Now().UTC(),
		SearchPhrase: phrase,
		Metadata: map[string]any{
			"username":      username,
			"author_id":     tw.AuthorID,
			"retweet_count": tw.PublicMetrics.RetweetCount,
			"reply_count":   tw.PublicMetrics.ReplyCount,
			"like_count":    tw.PublicMetrics.LikeCount,
			"quote_count":   tw.PublicMetrics.QuoteCount,
			"hashtags":      hashtags,
			"mentions":      mentions,
		},
	}
}

// HealthCheck issues a minimal search request; 200 and 429 (rate-limited but
// authenticated) both count as healthy, matching the original adapter.
func (a *Adapter) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		a.cfg.BaseURL+"/tweets/search/recent?query=test&max_results=10", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.BearerToken)

	resp, err := a.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusTooManyRequests
}
