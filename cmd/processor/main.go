// Command processor runs the sentiment-analysis pipeline stage: it drains
// the collected-items queue, archives each item's raw form, analyzes it
// with an LLM, and upserts the result into the relational store.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"sentinel-pipeline/internal/config"
	httpmw "sentinel-pipeline/internal/handler/http"
	"sentinel-pipeline/internal/handler/http/requestid"
	"sentinel-pipeline/internal/handler/http/responsewriter"
	"sentinel-pipeline/internal/llm"
	"sentinel-pipeline/internal/llm/claude"
	"sentinel-pipeline/internal/llm/openai"
	"sentinel-pipeline/internal/llm/vertexgateway"
	"sentinel-pipeline/internal/objectstore"
	"sentinel-pipeline/internal/observability/logging"
	"sentinel-pipeline/internal/observability/metrics"
	"sentinel-pipeline/internal/observability/tracing"
	"sentinel-pipeline/internal/processor"
	"sentinel-pipeline/internal/queue"
	"sentinel-pipeline/internal/store/postgres"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, config.LoadPostgresConfig().DSN, postgres.DefaultConnectionConfig())
	if err != nil {
		logger.Error("failed to connect to postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := postgres.MigrateUp(db); err != nil {
		logger.Error("failed to migrate postgres schema", slog.Any("error", err))
		os.Exit(1)
	}
	store := postgres.New(db)

	objects, err := newObjectStore(ctx, config.LoadObjectStoreConfig())
	if err != nil {
		logger.Error("failed to initialize object store", slog.Any("error", err))
		os.Exit(1)
	}

	llmClient, err := newLLMClient(config.LoadLLMConfig())
	if err != nil {
		logger.Error("failed to initialize LLM client", slog.Any("error", err))
		os.Exit(1)
	}

	redisCfg := config.LoadRedisConfig()
	rdb := redis.NewClient(&redis.Options{Addr: redisCfg.Addr, Password: redisCfg.Password, DB: redisCfg.DB})
	defer func() { _ = rdb.Close() }()

	q := queue.New(rdb, queue.Config{Mode: queueMode(redisCfg.Mode)})

	procCfg := config.LoadProcessorConfig()
	svc := processor.New(q, objects, llmClient, store, processor.Config{
		Topic:        procCfg.Topic,
		SkipExisting: procCfg.SkipExisting,
	})

	handler := processor.NewHandler(svc, procCfg.BatchSize)
	mux := http.NewServeMux()
	mux.HandleFunc("/process", handler.ServeProcess)
	mux.HandleFunc("/process/continuous", handler.ServeProcessContinuous)
	mux.HandleFunc("/health", handler.ServeHealth)
	mux.Handle("/metrics", promhttp.Handler())

	var handlerChain http.Handler = mux
	handlerChain = recordHTTPMetrics(handlerChain)
	handlerChain = tracing.Middleware(handlerChain)
	handlerChain = requestid.Middleware(handlerChain)
	handlerChain = httpmw.Timeout(60 * time.Second)(handlerChain)
	handlerChain = httpmw.InputValidation()(handlerChain)

	server := &http.Server{
		Addr:              ":" + procCfg.HTTPPort,
		Handler:           handlerChain,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("processor listening", slog.String("port", procCfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("processor http server failed", slog.Any("error", err))
		}
	}()

	<-ctx.Done()
	logger.Info("processor shutting down")
	handler.StopContinuous()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("processor shutdown error", slog.Any("error", err))
	}
}

// recordHTTPMetrics wraps next so every request's method, path, status, and
// duration land in the http_requests_total/http_request_duration_seconds metrics.
func recordHTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := responsewriter.Wrap(w)
		next.ServeHTTP(rw, r)
		metrics.RecordHTTPRequest(r.Method, r.URL.Path, strconv.Itoa(rw.StatusCode()), time.Since(start), 0, rw.BytesWritten())
	})
}

func queueMode(mode string) queue.Mode {
	if mode == "stream" {
		return queue.ModeStream
	}
	return queue.ModeList
}

func newObjectStore(ctx context.Context, cfg config.ObjectStoreConfig) (processor.ObjectStore, error) {
	if cfg.Backend == "gcs" {
		return objectstore.NewGCSStore(ctx, objectstore.GCSConfig{Bucket: cfg.Bucket, Endpoint: cfg.Endpoint})
	}
	return objectstore.NewS3Store(ctx, objectstore.S3Config{
		Bucket:          cfg.Bucket,
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		UsePathStyle:    cfg.UsePathStyle,
	})
}

func newLLMClient(cfg config.LLMConfig) (llm.Client, error) {
	switch cfg.Backend {
	case "openai":
		oaiCfg := openai.DefaultConfig()
		if cfg.Model != "" {
			oaiCfg.Model = cfg.Model
		}
		if cfg.BaseURL != "" {
			oaiCfg.BaseURL = cfg.BaseURL
		}
		oaiCfg.Timeout = cfg.Timeout
		return openai.New(cfg.APIKey, oaiCfg), nil
	case "vertexgateway":
		return vertexgateway.New(vertexgateway.Config{
			Address:        cfg.GatewayAddress,
			RequestTimeout: cfg.Timeout,
		})
	default:
		claudeCfg := claude.DefaultConfig()
		if cfg.Model != "" {
			claudeCfg.Model = cfg.Model
		}
		if cfg.BaseURL != "" {
			claudeCfg.BaseURL = cfg.BaseURL
		}
		claudeCfg.Timeout = cfg.Timeout
		return claude.New(cfg.APIKey, claudeCfg), nil
	}
}
