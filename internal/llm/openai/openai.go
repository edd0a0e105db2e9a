// Package openai implements llm.Client against OpenAI's chat completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"sentinel-pipeline/internal/domain/model"
	"sentinel-pipeline/internal/llm"
	"sentinel-pipeline/internal/resilience/circuitbreaker"
	"sentinel-pipeline/internal/resilience/retry"
)

// Config configures the OpenAI backend.
type Config struct {
	Model     string
	MaxTokens int
	Timeout   time.Duration
	BaseURL   string // optional override, used in tests
}

// DefaultConfig returns the OpenAI backend's default model parameters.
func DefaultConfig() Config {
	return Config{
		Model:     "gpt-4o",
		MaxTokens: 1024,
		Timeout:   60 * time.Second,
	}
}

// Client analyzes content using OpenAI's chat completions API.
type Client struct {
	client         *openai.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	config         Config
}

// New constructs an OpenAI-backed llm.Client.
func New(apiKey string, cfg Config) *Client {
	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Client{
		client:         openai.NewClientWithConfig(clientCfg),
		circuitBreaker: circuitbreaker.New(circuitbreaker.OpenAIAPIConfig()),
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
				slog.Warn("openai api circuit breaker open, request rejected",
					slog.String("service", "openai-api"),
					slog.String("state", c.circuitBreaker.State().String()))
				return fmt.Errorf("%w: circuit breaker open", llm.ErrProviderUnavailable)
			}
			return err
		}
		result = cbResult.(model.Analysis)
		return nil
	})
	if retryErr != nil {
		return model.Analysis{}, fmt.Errorf("openai analyze failed after retries: %w", retryErr)
	}
	return result, nil
}

func (c *Client) doAnalyze(ctx context.Context, title, content, searchPhrase string) (model.Analysis, error) {
	prompt := llm.BuildAnalysisPrompt(title, content, searchPhrase)

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.config.Model,
		MaxTokens: c.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	duration := time.Since(start)

	if err != nil {
		slog.ErrorContext(ctx, "openai analysis call failed",
			slog.Duration("duration", duration), slog.Any("error", err))
		return model.Analysis{}, fmt.Errorf("%w: %v", llm.ErrProviderUnavailable, err)
	}

	if len(resp.Choices) == 0 {
		return model.Analysis{}, fmt.Errorf("%w: empty response", llm.ErrMalformedResponse)
	}

	analysis, err := llm.ParseAnalysisResponse(resp.Choices[0].Message.Content)
	if err != nil {
		return model.Analysis{}, err
	}

	slog.InfoContext(ctx, "openai analysis completed",
		slog.Duration("duration", duration), slog.Int("theme_count", len(analysis.Themes)))
	return analysis, nil
}

// HealthCheck verifies OpenAI's API is reachable with a cheap completion.
func (c *Client) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.config.Model,
		MaxTokens: 10,
		Messages:  []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "Hi"}},
	})
	return err == nil
}
