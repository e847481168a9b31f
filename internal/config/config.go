package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Dashboard refresh bounds observed in production.
const (
	MinPollInterval = 100 * time.Millisecond
	MaxPollInterval = 60 * time.Second
)

// Config holds all configuration for the transcription services
type Config struct {
	// Ingestion server configuration
	Port         string `envconfig:"PORT" default:"8080"`
	DatabasePath string `envconfig:"DATABASE_PATH" default:"transcriptions.db"`

	// Kafka fan-out of processed events (disabled by default; log-only when off)
	KafkaEnabled      bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	KafkaBrokers      []string `envconfig:"KAFKA_BROKERS" default:""`
	KafkaTopicStored  string   `envconfig:"KAFKA_TOPIC_STORED" default:"transcription.utterance.stored"`
	KafkaTopicPartial string   `envconfig:"KAFKA_TOPIC_PARTIAL" default:"transcription.utterance.partial"`

	// Publisher circuit breaker
	PublisherMaxFailures  int `envconfig:"PUBLISHER_MAX_FAILURES" default:"5"`   // Failures before opening circuit
	PublisherResetTimeout int `envconfig:"PUBLISHER_RESET_TIMEOUT" default:"30"` // Seconds before attempting recovery

	// Dashboard configuration
	DashboardPort    string        `envconfig:"DASHBOARD_PORT" default:"8081"`
	PollInterval     time.Duration `envconfig:"POLL_INTERVAL" default:"2s"`       // Store polling cadence
	RefreshStrategy  string        `envconfig:"REFRESH_STRATEGY" default:"interval"` // interval or manual
	PollMaxRetries   int           `envconfig:"POLL_MAX_RETRIES" default:"3"`     // Read retries per poll cycle
	PollRetryBackoff time.Duration `envconfig:"POLL_RETRY_BACKOFF" default:"100ms"`

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.DatabasePath == "" {
		return nil, fmt.Errorf("DATABASE_PATH must not be empty")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	switch cfg.RefreshStrategy {
	case "interval", "manual":
	default:
		return nil, fmt.Errorf("REFRESH_STRATEGY must be 'interval' or 'manual', got %q", cfg.RefreshStrategy)
	}

	// Clamp the poll interval to the supported bounds rather than failing.
	if cfg.PollInterval < MinPollInterval {
		cfg.PollInterval = MinPollInterval
	}
	if cfg.PollInterval > MaxPollInterval {
		cfg.PollInterval = MaxPollInterval
	}

	return &cfg, nil
}
