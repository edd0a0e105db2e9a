package config

import (
	"strings"
	"time"
)

// RedisConfig configures the queue's Redis connection.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Mode     string // "list" or "stream"
}

// LoadRedisConfig loads queue configuration from the environment.
func LoadRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		Password: getEnvOrDefault("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
		Mode:     getEnvOrDefault("QUEUE_MODE", "list"),
	}
}

// ObjectStoreConfig selects and configures the raw-archive backend.
type ObjectStoreConfig struct {
	Backend         string // "s3" or "gcs"
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// LoadObjectStoreConfig loads object store configuration from the environment.
func LoadObjectStoreConfig() ObjectStoreConfig {
	return ObjectStoreConfig{
		Backend:         getEnvOrDefault("OBJECT_STORE_BACKEND", "s3"),
		Bucket:          getEnvOrDefault("OBJECT_STORE_BUCKET", "sentinel-pipeline-raw"),
		Region:          getEnvOrDefault("OBJECT_STORE_REGION", "us-east-1"),
		Endpoint:        getEnvOrDefault("OBJECT_STORE_ENDPOINT", ""),
		AccessKeyID:     getEnvOrDefault("OBJECT_STORE_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnvOrDefault("OBJECT_STORE_SECRET_ACCESS_KEY", ""),
		UsePathStyle:    getEnvBool("OBJECT_STORE_USE_PATH_STYLE", false),
	}
}

// LLMConfig selects and configures the analysis backend.
type LLMConfig struct {
	Backend        string // "claude", "openai", or "vertexgateway"
	APIKey         string
	Model          string
	BaseURL        string
	GatewayAddress string
	Timeout        time.Duration
}

// LoadLLMConfig loads LLM configuration from the environment.
func LoadLLMConfig() LLMConfig {
	return LLMConfig{
		Backend:        getEnvOrDefault("LLM_BACKEND", "claude"),
		APIKey:         getEnvOrDefault("LLM_API_KEY", ""),
		Model:          getEnvOrDefault("LLM_MODEL", ""),
		BaseURL:        getEnvOrDefault("LLM_BASE_URL", ""),
		GatewayAddress: getEnvOrDefault("LLM_GATEWAY_ADDRESS", "localhost:50061"),
		Timeout:        getEnvDuration("LLM_TIMEOUT", 60*time.Second),
	}
}

// PostgresConfig configures the relational store's connection.
type PostgresConfig struct {
	DSN string
}

// LoadPostgresConfig loads relational store configuration from the environment.
func LoadPostgresConfig() PostgresConfig {
	return PostgresConfig{
		DSN: getEnvOrDefault("DATABASE_URL", "postgres://localhost:5432/sentinel_pipeline?sslmode=disable"),
	}
}

// ProcessorConfig controls the processor service's behavior.
type ProcessorConfig struct {
	Topic        string
	BatchSize    int
	SkipExisting bool
	HTTPPort     string
}

// LoadProcessorConfig loads processor configuration from the environment.
func LoadProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		Topic:        getEnvOrDefault("QUEUE_TOPIC", "collected-items"),
		BatchSize:    getEnvInt("PROCESSOR_BATCH_SIZE", 10),
		SkipExisting: getEnvBool("PROCESSOR_SKIP_EXISTING", true),
		HTTPPort:     getEnvOrDefault("PROCESSOR_HTTP_PORT", "8081"),
	}
}

// CollectorConfig controls the collector service's behavior.
type CollectorConfig struct {
	Topic        string
	CronSchedule string // empty disables scheduled collection
	CronTimezone string
	HTTPPort     string

	// CronSearchPhrase and CronLookback build the SearchRequest the
	// scheduler passes to every cron-triggered Collect call; irrelevant
	// when CronSchedule is empty.
	CronSearchPhrase string
	CronLookback     time.Duration
}

// LoadCollectorConfig loads collector configuration from the environment.
func LoadCollectorConfig() CollectorConfig {
	return CollectorConfig{
		Topic:            getEnvOrDefault("QUEUE_TOPIC", "collected-items"),
		CronSchedule:     getEnvOrDefault("COLLECTOR_CRON_SCHEDULE", ""),
		CronTimezone:     getEnvOrDefault("COLLECTOR_CRON_TIMEZONE", "UTC"),
		HTTPPort:         getEnvOrDefault("COLLECTOR_HTTP_PORT", "8080"),
		CronSearchPhrase: getEnvOrDefault("COLLECTOR_CRON_SEARCH_PHRASE", ""),
		CronLookback:     getEnvDuration("COLLECTOR_CRON_LOOKBACK", 24*time.Hour),
	}
}

// NewsAPIConfig configures the news adapter. Enabled is false unless an API
// key is present in the environment.
type NewsAPIConfig struct {
	Enabled  bool
	APIKey   string
	BaseURL  string
	PageSize int
}

// LoadNewsAPIConfig loads news adapter configuration from the environment.
func LoadNewsAPIConfig() NewsAPIConfig {
	apiKey := getEnvOrDefault("NEWSAPI_API_KEY", "")
	return NewsAPIConfig{
		Enabled:  apiKey != "",
		APIKey:   apiKey,
		BaseURL:  getEnvOrDefault("NEWSAPI_BASE_URL", ""),
		PageSize: getEnvInt("NEWSAPI_PAGE_SIZE", 100),
	}
}

// ForumConfig configures the forum adapter. Enabled is false unless OAuth
// client credentials are present in the environment.
type ForumConfig struct {
	Enabled      bool
	ClientID     string
	ClientSecret string
	UserAgent    string
	AuthURL      string
	BaseURL      string
}

// LoadForumConfig loads forum adapter configuration from the environment.
func LoadForumConfig() ForumConfig {
	clientID := getEnvOrDefault("FORUM_CLIENT_ID", "")
	clientSecret := getEnvOrDefault("FORUM_CLIENT_SECRET", "")
	return ForumConfig{
		Enabled:      clientID != "" && clientSecret != "",
		ClientID:     clientID,
		ClientSecret: clientSecret,
		UserAgent:    getEnvOrDefault("FORUM_USER_AGENT", "sentinel-pipeline/1.0"),
		AuthURL:      getEnvOrDefault("FORUM_AUTH_URL", ""),
		BaseURL:      getEnvOrDefault("FORUM_BASE_URL", ""),
	}
}

// MicroblogConfig configures the microblog adapter. Enabled is false unless
// a bearer token is present in the environment.
type MicroblogConfig struct {
	Enabled     bool
	BearerToken string
	MaxResults  int
	BaseURL     string
}

// LoadMicroblogConfig loads microblog adapter configuration from the environment.
func LoadMicroblogConfig() MicroblogConfig {
	token := getEnvOrDefault("MICROBLOG_BEARER_TOKEN", "")
	return MicroblogConfig{
		Enabled:     token != "",
		BearerToken: token,
		MaxResults:  getEnvInt("MICROBLOG_MAX_RESULTS", 100),
		BaseURL:     getEnvOrDefault("MICROBLOG_BASE_URL", ""),
	}
}

// FeedConfig configures the syndication-feed adapter: a name-to-URL map
// parsed from a "name1=url1,name2=url2" environment variable.
type FeedConfig struct {
	Enabled bool
	Feeds   map[string]string
}

// LoadFeedConfig loads syndication-feed configuration from the environment.
func LoadFeedConfig() FeedConfig {
	raw := getEnvOrDefault("FEED_SOURCES", "")
	feeds := map[string]string{}
	for _, pair := range strings.Split(raw, ",") {
		name, url, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			continue
		}
		feeds[name] = url
	}
	return FeedConfig{Enabled: len(feeds) > 0, Feeds: feeds}
}
