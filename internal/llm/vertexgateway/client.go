// Package vertexgateway implements llm.Client against an internal gRPC
// gateway that mediates calls to a cloud-hosted model (standing in for a
// Vertex-AI-mediated Claude deployment billed through a cloud project
// rather than a direct Anthropic API key).
package vertexgateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"sentinel-pipeline/internal/domain/model"
	"sentinel-pipeline/internal/llm"
	"sentinel-pipeline/internal/resilience/circuitbreaker"
)

// analyzeRequest/analyzeResponse are the plain JSON wire messages the
// gateway's Analyze RPC exchanges, carried by jsonCodec.
type analyzeRequest struct {
	Title        string `json:"title"`
	Content      string `json:"content"`
	SearchPhrase string `json:"search_phrase"`
}

type analyzeResponse struct {
	AnalysisJSON string `json:"analysis_json"`
}

const analyzeMethod = "/sentinelpipeline.llmgateway.v1.LLMGateway/Analyze"

// Config configures the gateway connection.
type Config struct {
	Address           string
	ConnectionTimeout time.Duration
	RequestTimeout    time.Duration
}

func (c Config) withDefaults() Config {
	if c.ConnectionTimeout <= 0 {
		c.ConnectionTimeout = 10 * time.Second
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 60 * time.Second
	}
	return c
}

// Client analyzes content by delegating to a gRPC-mediated gateway.
type Client struct {
	conn           *grpc.ClientConn
	circuitBreaker *circuitbreaker.CircuitBreaker
	config         Config
}

// New dials the gateway and blocks until the connection is ready or
// ConnectionTimeout elapses.
func New(cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectionTimeout)
	defer cancel()

	conn, err := grpc.NewClient(cfg.Address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("vertexgateway: dial: %w", err)
	}
	conn.Connect()

	if !waitForConnection(ctx, conn) {
		_ = conn.Close()
		return nil, fmt.Errorf("vertexgateway: connection timeout")
	}

	return &Client{
		conn:           conn,
		circuitBreaker: circuitbreaker.New(circuitbreaker.ClaudeAPIConfig()),
		config:         cfg,
	}, nil
}

// Analyze implements llm.Client.
func (c *Client) Analyze(ctx context.Context, title, content, searchPhrase string) (model.Analysis, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		req := &analyzeRequest{Title: title, Content: content, SearchPhrase: searchPhrase}
		var resp analyzeResponse

		if err := c.conn.Invoke(ctx, analyzeMethod, req, &resp, grpc.CallContentSubtype(codecName)); err != nil {
			return nil, c.mapError(err)
		}

		analysis, err := llm.ParseAnalysisResponse(resp.AnalysisJSON)
		if err != nil {
			return nil, err
		}
		return analysis, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			slog.Warn("vertex gateway circuit breaker open, request rejected",
				slog.String("state", c.circuitBreaker.State().String()))
			return model.Analysis{}, fmt.Errorf("%w: circuit breaker open", llm.ErrProviderUnavailable)
		}
		return model.Analysis{}, err
	}
	return result.(model.Analysis), nil
}

// HealthCheck reports whether the gateway connection is ready.
func (c *Client) HealthCheck(ctx context.Context) bool {
	if c.circuitBreaker.State() == gobreaker.StateOpen {
		return false
	}
	return c.conn.GetState() == connectivity.Ready
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) mapError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("%w: %v", llm.ErrProviderUnavailable, err)
	}
	switch st.Code() {
	case codes.DeadlineExceeded, codes.Unavailable:
		return fmt.Errorf("%w: %s", llm.ErrProviderUnavailable, st.Message())
	default:
		return fmt.Errorf("vertex gateway error: %s", st.Message())
	}
}

func waitForConnection(ctx context.Context, conn *grpc.ClientConn) bool {
	for {
		state := conn.GetState()
		if state == connectivity.Ready {
			return true
		}
		if !conn.WaitForStateChange(ctx, state) {
			return false
		}
	}
}
