// Package claude implements llm.Client against Anthropic's Claude API.
package claude

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sony/gobreaker"

	"sentinel-pipeline/internal/domain/model"
	"sentinel-pipeline/internal/llm"
	"sentinel-pipeline/internal/resilience/circuitbreaker"
	"sentinel-pipeline/internal/resilience/retry"
)

// Config configures the Claude backend.
type Config struct {
	Model     string
	MaxTokens int
	Timeout   time.Duration
	BaseURL   string // optional override, used in tests
}

// DefaultConfig returns the Claude backend's default model parameters.
func DefaultConfig() Config {
	return Config{
		Model:     string(anthropic.ModelClaudeSonnet4_5_20250929),
		MaxTokens: 1024,
		Timeout:   60 * time.Second,
	}
}

// Client analyzes content using Claude's Messages API.
type Client struct {
	client         anthropic.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	config         Config
}

// New constructs a Claude-backed llm.Client.
func New(apiKey string, cfg Config) *Client {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		client:         anthropic.NewClient(opts...),
		circuitBreaker: circuitbreaker.New(circuitbreaker.ClaudeAPIConfig()),
		retryConfig:    retry.AIAPIConfig(),
		config:         cfg,
	}
}

// Analyze implements llm.Client.
func (c *Client) Analyze(ctx context.Context, title, content, searchPhrase string) (model.Analysis, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var result model.Analysis

	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doAnalyze(ctx, title, content, searchPhrase)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("claude api circuit breaker open, request rejected",
					slog.String("service", "claude-api"),
					slog.String("state", c.circuitBreaker.State().String()))
				return fmt.Errorf("%w: circuit breaker open", llm.ErrProviderUnavailable)
			}
			return err
		}
		result = cbResult.(model.Analysis)
		return nil
	})
	if retryErr != nil {
		return model.Analysis{}, fmt.Errorf("claude analyze failed after retries: %w", retryErr)
	}
	return result, nil
}

func (c *Client) doAnalyze(ctx context.Context, title, content, searchPhrase string) (model.Analysis, error) {
	prompt := llm.BuildAnalysisPrompt(title, content, searchPhrase)

	start := time.Now()
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.Model),
		MaxTokens: int64(c.config.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	duration := time.Since(start)

	if err != nil {
		slog.ErrorContext(ctx, "claude analysis call failed",
			slog.Duration("duration", duration), slog.Any("error", err))
		return model.Analysis{}, fmt.Errorf("%w: %v", llm.ErrProviderUnavailable, err)
	}

	if len(message.Content) == 0 {
		return model.Analysis{}, fmt.Errorf("%w: empty response", llm.ErrMalformedResponse)
	}

	textBlock, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		return model.Analysis{}, fmt.Errorf("%w: unexpected content block type", llm.ErrMalformedResponse)
	}

	analysis, err := llm.ParseAnalysisResponse(textBlock.Text)
	if err != nil {
		return model.Analysis{}, err
	}

	slog.InfoContext(ctx, "claude analysis completed",
		slog.Duration("duration", duration), slog.Int("theme_count", len(analysis.Themes)))
	return analysis, nil
}

// HealthCheck verifies Claude's API is reachable with a cheap completion.
func (c *Client) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.Model),
		MaxTokens: 10,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock("Hi"))},
	})
	return err == nil
}
