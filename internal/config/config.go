package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/banking/sanctions-screening/internal/screening"
	"github.com/banking/sanctions-screening/internal/watchlist"
)

// Config holds all configuration for the sanctions screening service
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Elasticsearch ElasticsearchConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	S3            S3Config
	Encryption    EncryptionConfig
	Auth          AuthConfig
	Logging       LoggingConfig
	Tracing       TracingConfig
	Screening     ScreeningConfig
	Sources       SourcesConfig
	Scheduler     SchedulerConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	BodyLimit       string        `mapstructure:"body_limit"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// DSN returns the database connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// ElasticsearchConfig holds Elasticsearch configuration
type ElasticsearchConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	KeyPrefix    string `mapstructure:"key_prefix"`
}

// Addr returns the Redis address
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	Brokers          []string `mapstructure:"brokers"`
	ConsumerGroup    string   `mapstructure:"consumer_group"`
	RequestTopic     string   `mapstructure:"request_topic"`
	AlertTopic       string   `mapstructure:"alert_topic"`
	EnableIdempotent bool     `mapstructure:"enable_idempotent"`
	MaxRetries       int      `mapstructure:"max_retries"`
}

// S3Config holds AWS S3 configuration for feed snapshots and batch archives
type S3Config struct {
	Enabled       bool   `mapstructure:"enabled"`
	Region        string `mapstructure:"region"`
	FeedBucket    string `mapstructure:"feed_bucket"`
	ArchiveBucket string `mapstructure:"archive_bucket"`
	Endpoint      string `mapstructure:"endpoint"` // For local testing with MinIO
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
}

// EncryptionConfig holds the keys sealing stored profiles and signing records
type EncryptionConfig struct {
	EncryptionKeysBase64 []string `mapstructure:"keys"`
	CurrentKeyVersion    int      `mapstructure:"current_key_version"`
	RecordHMACSecret     string   `mapstructure:"record_hmac_secret"`
}

// AuthConfig holds authentication settings
type AuthConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	JWTPublicKeyPath string `mapstructure:"jwt_public_key_path"`
	JWTIssuer        string `mapstructure:"jwt_issuer"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level         string `mapstructure:"level"`
	Format        string `mapstructure:"format"`
	EnablePIIMask bool   `mapstructure:"enable_pii_mask"`
}

// TracingConfig holds OpenTelemetry context propagation settings. Spans go
// to the global tracer provider installed by the deployment.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

// ScreeningConfig holds the engine defaults
type ScreeningConfig struct {
	Threshold         float64       `mapstructure:"threshold"`
	MaxResults        int           `mapstructure:"max_results"`
	BatchSize         int           `mapstructure:"batch_size"`
	MaxBatchProfiles  int           `mapstructure:"max_batch_profiles"`
	IncludeAliases    bool          `mapstructure:"include_aliases"`
	SearchConcurrency int           `mapstructure:"search_concurrency"`
	ResultCacheTTL    time.Duration `mapstructure:"result_cache_ttl"`
}

// FeedConfig configures one watchlist feed
type FeedConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// URL and ConsolidatedURL of the OFAC feed must serve the sdnList XML
	// layout (sdn.xml), not the sdn_advanced.xml schema
	URL             string `mapstructure:"url"`
	ConsolidatedURL string `mapstructure:"consolidated_url"`
	// Weight multiplies each candidate's confidence. Weighted confidence is
	// capped at 1, so a weight above 1 only lifts weaker candidates and can
	// never push a match past certainty.
	Weight float64 `mapstructure:"weight"`

	// IncludeConsolidated also screens against the list at ConsolidatedURL
	IncludeConsolidated bool `mapstructure:"include_consolidated"`
}

// SourcesConfig holds watchlist ingestion settings
type SourcesConfig struct {
	StaleAfter     time.Duration `mapstructure:"stale_after"`
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout"`
	MaxFeedBytes   int64         `mapstructure:"max_feed_bytes"`
	UserAgent      string        `mapstructure:"user_agent"`
	FailureBackoff time.Duration `mapstructure:"failure_backoff"`
	OFAC           FeedConfig    `mapstructure:"ofac"`
	UN             FeedConfig    `mapstructure:"un"`
}

// SchedulerConfig holds the feed refresh schedule
type SchedulerConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	RefreshSchedule string `mapstructure:"refresh_schedule"` // Cron expression
	RefreshOnStart  bool   `mapstructure:"refresh_on_start"`
}

// ScreenOptions returns the configured engine defaults
func (c *Config) ScreenOptions() screening.ScreenOptions {
	include := c.Screening.IncludeAliases
	return screening.ScreenOptions{
		Threshold:      c.Screening.Threshold,
		IncludeAliases: &include,
		MaxResults:     c.Screening.MaxResults,
	}
}

// Load loads configuration from environment and config files
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// SCREENING_SOURCES_OFAC_URL overrides sources.ofac.url
	v.SetEnvPrefix("SCREENING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8086)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "2m")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.body_limit", "2M")

	// Database
	v.SetDefault("database.enabled", true)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "screening_db")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.conn_max_idle_time", "5m")

	// Elasticsearch
	v.SetDefault("elasticsearch.enabled", false)
	v.SetDefault("elasticsearch.addresses", []string{"http://localhost:9200"})
	v.SetDefault("elasticsearch.username", "elastic")
	v.SetDefault("elasticsearch.password", "changeme")
	v.SetDefault("elasticsearch.index", "screening-results")

	// Redis
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 3)
	v.SetDefault("redis.key_prefix", "screening:result:")

	// Kafka
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.consumer_group", "sanctions-screening-service")
	v.SetDefault("kafka.request_topic", "banking.screening.requests")
	v.SetDefault("kafka.alert_topic", "banking.compliance.alerts")
	v.SetDefault("kafka.enable_idempotent", true)
	v.SetDefault("kafka.max_retries", 3)

	// S3
	v.SetDefault("s3.enabled", false)
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.feed_bucket", "banking-sanctions-feeds")
	v.SetDefault("s3.archive_bucket", "banking-screening-archive")

	// Encryption
	v.SetDefault("encryption.current_key_version", 1)

	// Auth
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.jwt_public_key_path", "./keys/jwt_public.pem")
	v.SetDefault("auth.jwt_issuer", "banking-auth-service")

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.enable_pii_mask", true)

	// Tracing
	v.SetDefault("tracing.enabled", true)
	v.SetDefault("tracing.service_name", "sanctions-screening-service")

	// Screening
	v.SetDefault("screening.threshold", screening.DefaultThreshold)
	v.SetDefault("screening.max_results", screening.DefaultMaxResults)
	v.SetDefault("screening.batch_size", screening.DefaultBatchSize)
	v.SetDefault("screening.max_batch_profiles", 1000)
	v.SetDefault("screening.include_aliases", true)
	v.SetDefault("screening.search_concurrency", screening.DefaultSearchLimit)
	v.SetDefault("screening.result_cache_ttl", "15m")

	// Sources
	v.SetDefault("sources.stale_after", watchlist.DefaultStaleAfter)
	v.SetDefault("sources.fetch_timeout", watchlist.DefaultFetchTimeout)
	v.SetDefault("sources.max_feed_bytes", watchlist.DefaultMaxFeedBytes)
	v.SetDefault("sources.user_agent", "sanctions-screening/1.0")
	v.SetDefault("sources.failure_backoff", watchlist.DefaultFailureBackoff)
	v.SetDefault("sources.ofac.enabled", true)
	v.SetDefault("sources.ofac.url", watchlist.OFACSDNURL)
	v.SetDefault("sources.ofac.consolidated_url", watchlist.OFACConsolidatedURL)
	v.SetDefault("sources.ofac.include_consolidated", false)
	v.SetDefault("sources.ofac.weight", 1.0)
	v.SetDefault("sources.un.enabled", true)
	v.SetDefault("sources.un.url", watchlist.UNConsolidatedURL)
	v.SetDefault("sources.un.weight", 1.0)

	// Scheduler
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.refresh_schedule", "0 2 * * *") // 2 AM daily
	v.SetDefault("scheduler.refresh_on_start", true)
}
