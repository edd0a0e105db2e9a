// Command collector runs the ingestion pipeline stage: it fans a search
// request out across every configured source adapter and publishes each
// yielded item to the queue for the processor to pick up.
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

	"sentinel-pipeline/internal/adapter"
	"sentinel-pipeline/internal/adapter/feed"
	"sentinel-pipeline/internal/adapter/forum"
	"sentinel-pipeline/internal/adapter/microblog"
	"sentinel-pipeline/internal/adapter/newsapi"
	"sentinel-pipeline/internal/collector"
	"sentinel-pipeline/internal/config"
	httpmw "sentinel-pipeline/internal/handler/http"
	"sentinel-pipeline/internal/handler/http/requestid"
	"sentinel-pipeline/internal/handler/http/responsewriter"
	"sentinel-pipeline/internal/observability/logging"
	"sentinel-pipeline/internal/observability/metrics"
	"sentinel-pipeline/internal/observability/tracing"
	"sentinel-pipeline/internal/queue"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisCfg := config.LoadRedisConfig()
	rdb := redis.NewClient(&redis.Options{Addr: redisCfg.Addr, Password: redisCfg.Password, DB: redisCfg.DB})
	defer func() { _ = rdb.Close() }()

	mode := queue.ModeList
	if redisCfg.Mode == "stream" {
		mode = queue.ModeStream
	}
	q := queue.New(rdb, queue.Config{Mode: mode})

	sources := buildSources(logger)
	collCfg := config.LoadCollectorConfig()
	svc := collector.New(sources, q, collector.Config{Topic: collCfg.Topic})

	scheduler, err := collector.StartScheduler(svc, collector.ScheduleConfig{
		Expression:   collCfg.CronSchedule,
		Timezone:     collCfg.CronTimezone,
		SearchPhrase: collCfg.CronSearchPhrase,
		Lookback:     collCfg.CronLookback,
	})
	if err != nil {
		logger.Error("failed to start collector scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	defer scheduler.Stop()

	handler := collector.NewHandler(svc)
	mux := http.NewServeMux()
	mux.HandleFunc("/collect", handler.ServeCollect)
	mux.HandleFunc("/health", handler.ServeHealth)
	mux.Handle("/metrics", promhttp.Handler())

	var handlerChain http.Handler = mux
	handlerChain = recordHTTPMetrics(handlerChain)
	handlerChain = tracing.Middleware(handlerChain)
	handlerChain = requestid.Middleware(handlerChain)
	handlerChain = httpmw.Timeout(30 * time.Second)(handlerChain)
	handlerChain = httpmw.InputValidation()(handlerChain)

	server := &http.Server{
		Addr:              ":" + collCfg.HTTPPort,
		Handler:           handlerChain,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("collector listening", slog.String("port", collCfg.HTTPPort), slog.Int("sources", len(sources)))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("collector http server failed", slog.Any("error", err))
		}
	}()

	<-ctx.Done()
	logger.Info("collector shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("collector shutdown error", slog.Any("error", err))
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

// buildSources constructs one adapter per source type whose credentials are
// present in the environment; a source with no credentials is silently
// omitted rather than failing startup, since operators may only want a
// subset active at a time.
func buildSources(logger *slog.Logger) []adapter.Source {
	var sources []adapter.Source
	httpClient := &http.Client{Timeout: 30 * time.Second}

	newsCfg := config.LoadNewsAPIConfig()
	if newsCfg.Enabled {
		sources = append(sources, newsapi.New(newsapi.Config{
			APIKey:   newsCfg.APIKey,
			BaseURL:  newsCfg.BaseURL,
			PageSize: newsCfg.PageSize,
		}, httpClient))
		logger.Info("news adapter enabled")
	}

	forumCfg := config.LoadForumConfig()
	if forumCfg.Enabled {
		sources = append(sources, forum.New(forum.Config{
			ClientID:     forumCfg.ClientID,
			ClientSecret: forumCfg.ClientSecret,
			UserAgent:    forumCfg.UserAgent,
			AuthURL:      forumCfg.AuthURL,
			BaseURL:      forumCfg.BaseURL,
		}, httpClient))
		logger.Info("forum adapter enabled")
	}

	feedCfg := config.LoadFeedConfig()
	if feedCfg.Enabled {
		sources = append(sources, feed.New(feed.Config{Feeds: feedCfg.Feeds}, httpClient))
		logger.Info("feed adapter enabled", slog.Int("feeds", len(feedCfg.Feeds)))
	}

	microblogCfg := config.LoadMicroblogConfig()
	if microblogCfg.Enabled {
		sources = append(sources, microblog.New(microblog.Config{
			BearerToken: microblogCfg.BearerToken,
			MaxResults:  microblogCfg.MaxResults,
			BaseURL:     microblogCfg.BaseURL,
		}, httpClient))
		logger.Info("microblog adapter enabled")
	}

	return sources
}
