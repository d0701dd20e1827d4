package oracleworker

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// WorkerConfig holds all configuration needed to run the worker.
// Use NewWorkerConfigFromEnv() to load from environment variables
// (.env file supported).
type WorkerConfig struct {
	// RedisURL for the job queue and ready notifications
	RedisURL string
	// QueueKey is the Redis list the worker pops jobs from
	QueueKey string
	// PollTimeout bounds each blocking queue pop
	PollTimeout time.Duration
	// DatabaseURL is the Postgres DSN for the message and user stores
	DatabaseURL string
	// EncryptionKey is the pgcrypto symmetric key for message content
	EncryptionKey string
	// ShutdownGrace bounds the wait for an in-flight job on shutdown
	ShutdownGrace time.Duration
	// MetricsAddr is the Prometheus listen address (empty = disabled)
	MetricsAddr string
	// LogLevel: one of logrus's level names
	LogLevel string

	// OracleURL is the chat completions endpoint
	OracleURL string
	// OracleAPIKey authenticates against the completions endpoint
	OracleAPIKey string
	// OracleModel selects the completion model
	OracleModel string
	// ChartServiceURL is the ephemeris microservice base URL
	ChartServiceURL string
	// TranslateURL overrides the translation API endpoint (optional)
	TranslateURL string
	// TranslateEmail raises the translation provider's daily quota
	TranslateEmail string
	// AccountServiceURL enables temp account cleanup (empty = disabled)
	AccountServiceURL string
}

// NewWorkerConfigFromEnv loads configuration from environment variables,
// reading a .env file first when one is present.
func NewWorkerConfigFromEnv() (*WorkerConfig, error) {
	// Ignore error if no .env file exists
	_ = godotenv.Load()

	cfg := &WorkerConfig{
		RedisURL:      getEnv("REDIS_URL", "redis://localhost:6379/0"),
		QueueKey:      getEnv("ORACLE_QUEUE_KEY", "oracle:jobs"),
		PollTimeout:   getEnvDuration("QUEUE_POLL_TIMEOUT", 5*time.Second),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		EncryptionKey: getEnv("MESSAGE_ENCRYPTION_KEY", ""),
		ShutdownGrace: getEnvDuration("SHUTDOWN_GRACE", defaultShutdownGrace),
		MetricsAddr:   getEnv("METRICS_ADDR", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		OracleURL:         getEnv("ORACLE_API_URL", ""),
		OracleAPIKey:      getEnv("ORACLE_API_KEY", ""),
		OracleModel:       getEnv("ORACLE_MODEL", "gpt-4o-mini"),
		ChartServiceURL:   getEnv("CHART_SERVICE_URL", ""),
		TranslateURL:      getEnv("TRANSLATE_API_URL", ""),
		TranslateEmail:    getEnv("TRANSLATE_CONTACT_EMAIL", ""),
		AccountServiceURL: getEnv("ACCOUNT_SERVICE_URL", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL not configured")
	}
	if cfg.EncryptionKey == "" {
		return nil, errors.New("MESSAGE_ENCRYPTION_KEY not configured")
	}
	if cfg.OracleURL == "" {
		return nil, errors.New("ORACLE_API_URL not configured")
	}
	if cfg.ChartServiceURL == "" {
		return nil, errors.New("CHART_SERVICE_URL not configured")
	}
	return cfg, nil
}

// ConfigureLogging applies the configured level and a timestamped text
// formatter to the global logger.
func (c *WorkerConfig) ConfigureLogging() {
	level, err := logrus.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

func getEnv(key, fallback string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	return val
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	// Bare integers read as seconds
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
