// Package forum implements the Source adapter for OAuth client-credentials
// discussion-forum APIs (the teacher's pack grounds this on Reddit's API
// shape: subreddit search, "after" cursors, newest-first ordering).
package forum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"sentinel-pipeline/internal/adapter"
	"sentinel-pipeline/internal/domain/model"
	"sentinel-pipeline/internal/resilience/circuitbreaker"
	"sentinel-pipeline/internal/resilience/retry"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sony/gobreaker"
)

const (
	defaultAuthURL = "https://www.reddit.com/api/v1/access_token"
	defaultBaseURL = "https://oauth.reddit.com"
	pageLimit      = 100
	refreshSkew    = 30 * time.Second
)

// Config configures a forum Adapter.
type Config struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
	Scopes       []string // forum scopes to search, e.g. subreddit names; defaults to ["all"]
	AuthURL      string
	BaseURL      string
}

// Adapter implements adapter.Source against an OAuth client-credentials
// discussion forum API.
type Adapter struct {
	cfg            Config
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

// New constructs a forum Adapter. Scopes default to ["all"] when unset.
func New(cfg Config, httpClient *http.Client) *Adapter {
	if cfg.AuthURL == "" {
		cfg.AuthURL = defaultAuthURL
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{"all"}
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

func (a *Adapter) SourceType() model.SourceType { return model.SourceForum }

func (a *Adapter) Name() string { return "Forum" }

// token returns a valid bearer token, authenticating or proactively
// refreshing it when it is absent or close to expiry.
func (a *Adapter) token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.accessToken != "" && time.Now().Before(a.expiresAt) {
		return a.accessToken, nil
	}
	return a.authenticate(ctx)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (a *Adapter) authenticate(ctx context.Context) (string, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build auth request: %w", err)
	}
	req.SetBasicAuth(a.cfg.ClientID, a.cfg.ClientSecret)
	req.Header.Set("User-Agent", a.cfg.UserAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", adapter.ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: status %d", adapter.ErrAuthFailed, resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("%w: decode token response: %w", adapter.ErrAuthFailed, err)
	}

	a.accessToken = tok.AccessToken
	a.expiresAt = expiryFromToken(tok)
	return a.accessToken, nil
}

// expiryFromToken prefers the JWT "exp" claim (refreshed refreshSkew early)
// when the access token happens to be a JWT; otherwise it falls back to the
// provider's expires_in field, and finally to reactive re-auth-on-401 alone.
func expiryFromToken(tok tokenResponse) time.Time {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(tok.AccessToken, claims); err == nil {
		if expClaim, ok := claims["exp"]; ok {
			if expSeconds, ok := toFloat(expClaim); ok {
				return time.Unix(int64(expSeconds), 0).Add(-refreshSkew)
			}
		}
	}
	if tok.ExpiresIn > 0 {
		return time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - refreshSkew)
	}
	return time.Now()
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

type searchResponse struct {
	Data struct {
		Children []struct {
			Data postData `json:"data"`
		} `json:"children"`
		After string `json:"after"`
	} `json:"data"`
}

type postData struct {
	ID          string  `json:"id"`
	Subreddit   string  `json:"subreddit"`
	Permalink   string  `json:"permalink"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Author      string  `json:"author"`
	CreatedUTC  float64 `json:"created_utc"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	IsSelf      bool    `json:"is_self"`
	URL         string  `json:"url"`
}

// Search iterates every configured scope, streaming posts newest-first and
// breaking out of each scope's pagination the moment a post's published_at
// falls before req.StartDate.
func (a *Adapter) Search(ctx context.Context, req model.SearchRequest) (adapter.ItemStream, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	scopeIdx := 0
	after := ""
	var pending []postData
	idx := 0
	scopeDone := true // forces the first fetch
	stopped := false

	return adapter.ItemStreamFunc(func(ctx context.Context) (model.CollectedItem, bool, error) {
		for {
			if stopped {
				return model.CollectedItem{}, false, nil
			}
			if idx < len(pending) {
				post := pending[idx]
				idx++
				published := time.Unix(int64(post.CreatedUTC), 0).UTC()
				if published.Before(req.StartDate) {
					// Newest-first: everything after this is even older.
					scopeDone = true
					pending = nil
					idx = 0
					continue
				}
				if published.After(req.EndDate) {
					continue
				}
				return a.toCollectedItem(post, req), true, nil
			}
			if !scopeDone {
				resp, err := a.fetchPage(ctx, a.cfg.Scopes[scopeIdx], req.Phrase, after)
				if err != nil {
					return model.CollectedItem{}, false, err
				}
				if len(resp.Data.Children) == 0 {
					scopeDone = true
					continue
				}
				pending = make([]postData, len(resp.Data.Children))
				for i, c := range resp.Data.Children {
					pending[i] = c.Data
				}
				idx = 0
				after = resp.Data.After
				if after == "" {
					scopeDone = true
				}
				continue
			}
			scopeIdx++
			if scopeIdx >= len(a.cfg.Scopes) {
				stopped = true
				return model.CollectedItem{}, false, nil
			}
			after = ""
			scopeDone = false
		}
	}), nil
}

func (a *Adapter) fetchPage(ctx context.Context, scope, phrase, after string) (*searchResponse, error) {
	var result *searchResponse

	retryErr := retry.WithBackoff(ctx, a.retryConfig, func() error {
		cbResult, err := a.circuitBreaker.Execute(func() (interface{}, error) {
			return a.doFetchPage(ctx, scope, phrase, after)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("forum circuit breaker open, request rejected",
					slog.String("service", "forum"), slog.String("scope", scope))
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

func (a *Adapter) doFetchPage(ctx context.Context, scope, phrase, after string) (*searchResponse, error) {
	tok, err := a.token(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("q", phrase)
	q.Set("restrict_sr", strconv.FormatBool(scope != "all"))
	q.Set("sort", "new")
	q.Set("t", "all")
	q.Set("limit", strconv.Itoa(pageLimit))
	if after != "" {
		q.Set("after", after)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/r/%s/search?%s", a.cfg.BaseURL, scope, q.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("build forum search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("User-Agent", a.cfg.UserAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forum search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		a.mu.Lock()
		a.accessToken = ""
		a.mu.Unlock()
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: "forum token rejected"}
	}
	if resp.StatusCode >= 400 {
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: "forum search failed"}
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode forum search response: %w", err)
	}
	return &decoded, nil
}

func (a *Adapter) toCollectedItem(post postData, req model.SearchRequest) model.CollectedItem {
	externalID := post.ID
	linkURL := ""
	if !post.IsSelf {
		linkURL = post.URL
	}
	return model.CollectedItem{
		ID:           model.DeriveID(model.SourceForum, externalID),
		SourceType:   model.SourceForum,
		SourceName:   "r/" + post.Subreddit,
		ExternalID:   externalID,
		URL:          "https://reddit.com" + post.Permalink,
		Title:        post.Title,
		Content:      post.Selftext,
		Author:       post.Author,
		PublishedAt:  time.Unix(int64(post.CreatedUTC), 0).UTC(),
		CollectedAt:  time.Now().UTC(),
		SearchPhrase: req.Phrase,
		Metadata: map[string]any{
			"score":         post.Score,
			"num_comments":  post.NumComments,
			"subreddit":     post.Subreddit,
			"is_self":       post.IsSelf,
			"link_url":      linkURL,
		},
	}
}

// HealthCheck probes the authenticated identity endpoint.
func (a *Adapter) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tok, err := a.token(ctx)
	if err != nil {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.BaseURL+"/api/v1/me", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("User-Agent", a.cfg.UserAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
