package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var ErrEmptyEnvironmentVariable = errors.New("empty environment variable")

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Auth       AuthConfig
	Kafka      KafkaConfig
	Redis      RedisConfig
	Settlement SettlementConfig
	RateLimit  RateLimitConfig
	WorkerPool WorkerPoolConfig
	Server     ServerConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Username string
	Password string
	Name     string
	SSLMode  string
}

// AuthConfig holds authentication-related configuration
type AuthConfig struct {
	JWTSecret string
}

// KafkaConfig holds Kafka/event streaming configuration
type KafkaConfig struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string
}

// RedisConfig holds Redis connection settings used by rate limiting and the job queue
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SettlementConfig bounds resolution transactions and webhook dispatch
type SettlementConfig struct {
	LockTimeout     time.Duration
	TxTimeout       time.Duration
	DispatchTimeout time.Duration
}

// RateLimitConfig holds per-account limits for trust-changing endpoints
type RateLimitConfig struct {
	RequestsPerMinute int
}

// WorkerPoolConfig holds worker pool configuration for background processing
type WorkerPoolConfig struct {
	WebhookWorkers     int
	SettlementWorkers  int
	WebhookRetryPeriod time.Duration
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int
	AllowedOrigins []string
}

// Load reads and validates all required environment variables
func Load() (*Config, error) {
	// Load env.local in non-production environments
	if os.Getenv("GO_ENV") != "production" {
		if err := godotenv.Load("env.local"); err != nil {
			return nil, fmt.Errorf("failed to load env.local: %w", err)
		}
	}
	return FromEnv()
}

// FromEnv builds the configuration from the current process environment
func FromEnv() (*Config, error) {
	cfg := &Config{}
	var err error

	if cfg.Database.Host, err = requireEnv("DB_HOST"); err != nil {
		return nil, err
	}
	if cfg.Database.Username, err = requireEnv("DB_USERNAME"); err != nil {
		return nil, err
	}
	if cfg.Database.Password, err = requireEnv("DB_PASSWORD"); err != nil {
		return nil, err
	}
	if cfg.Database.Name, err = requireEnv("DB_NAME"); err != nil {
		return nil, err
	}
	cfg.Database.SSLMode = getEnvWithDefault("DB_SSLMODE", "disable")

	if cfg.Auth.JWTSecret, err = requireEnv("JWT_SECRET"); err != nil {
		return nil, err
	}

	brokers, err := requireEnv("KAFKA_BROKERS")
	if err != nil {
		return nil, err
	}
	cfg.Kafka.Brokers = splitList(brokers)
	cfg.Kafka.Topic = getEnvWithDefault("KAFKA_TOPIC", "webhook-events")
	cfg.Kafka.ConsumerGroup = getEnvWithDefault("KAFKA_CONSUMER_GROUP", "webhook-consumers")

	cfg.Redis.Enabled = getEnvWithDefault("REDIS_ENABLED", "true") == "true"
	cfg.Redis.Host = getEnvWithDefault("REDIS_HOST", "localhost")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	if cfg.Redis.Port, err = intEnv("REDIS_PORT", "6379"); err != nil {
		return nil, err
	}
	if cfg.Redis.DB, err = intEnv("REDIS_DB", "0"); err != nil {
		return nil, err
	}

	if cfg.Settlement.LockTimeout, err = durationEnv("RESOLVE_LOCK_TIMEOUT", "5s"); err != nil {
		return nil, err
	}
	if cfg.Settlement.TxTimeout, err = durationEnv("RESOLVE_TX_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.Settlement.DispatchTimeout, err = durationEnv("WEBHOOK_DISPATCH_TIMEOUT", "3s"); err != nil {
		return nil, err
	}

	if cfg.RateLimit.RequestsPerMinute, err = intEnv("RESOLVE_RATE_LIMIT_RPM", "60"); err != nil {
		return nil, err
	}

	if cfg.WorkerPool.WebhookWorkers, err = intEnv("WEBHOOK_WORKERS", "10"); err != nil {
		return nil, err
	}
	if cfg.WorkerPool.SettlementWorkers, err = intEnv("SETTLEMENT_WORKERS", "5"); err != nil {
		return nil, err
	}
	if cfg.WorkerPool.WebhookRetryPeriod, err = durationEnv("WEBHOOK_RETRY_PERIOD", "30s"); err != nil {
		return nil, err
	}

	serverPort, err := requireEnv("SERVER_PORT")
	if err != nil {
		return nil, err
	}
	cfg.Server.Port, err = strconv.Atoi(serverPort)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SERVER_PORT: %w", err)
	}
	cfg.Server.AllowedOrigins = splitList(getEnvWithDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000"))

	return cfg, nil
}

// ConnectionString returns a PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s",
		c.Username, c.Password, c.Host, c.Name, c.SSLMode)
}

// requireEnv retrieves an environment variable or returns an error if empty
func requireEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is not set: %w", key, ErrEmptyEnvironmentVariable)
	}
	return value, nil
}

// getEnvWithDefault retrieves an environment variable or returns a default value
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func intEnv(key, defaultValue string) (int, error) {
	v, err := strconv.Atoi(getEnvWithDefault(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return v, nil
}

func durationEnv(key, defaultValue string) (time.Duration, error) {
	v, err := time.ParseDuration(getEnvWithDefault(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return v, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
