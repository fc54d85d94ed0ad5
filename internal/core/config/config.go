package config

import (
	"time"

	redisclient "github.com/vietddude/crmsync/internal/infra/redis"
	"github.com/vietddude/crmsync/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server      ServerConfig       `yaml:"server"`
	Broker      BrokerConfig       `yaml:"broker"`
	Provider    ProviderConfig     `yaml:"provider"`
	Retry       RetryConfig        `yaml:"retry"`
	Idempotency IdempotencyConfig  `yaml:"idempotency"`
	Redis       redisclient.Config `yaml:"redis"`
	Database    postgres.Config    `yaml:"database"`
	Logging     LoggingConfig      `yaml:"logging"`
}

// ServerConfig holds health/metrics HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// BrokerConfig holds Kafka connection settings.
type BrokerConfig struct {
	Brokers  []string `yaml:"brokers"`
	Topic    string   `yaml:"topic"`
	GroupID  string   `yaml:"group_id"`
	DLQTopic string   `yaml:"dlq_topic"`
}

// ProviderConfig holds the CRM endpoint settings.
type ProviderConfig struct {
	BaseURL   string        `yaml:"base_url"`
	TablePath string        `yaml:"table_path"` // e.g. /api/now/table/incident
	Username  string        `yaml:"username"`
	Password  string        `yaml:"password"`
	Timeout   time.Duration `yaml:"timeout"` // per delivery attempt
}

// RetryConfig holds the delivery retry policy.
type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	BackoffBase    time.Duration `yaml:"backoff_base"`
	BackoffCap     time.Duration `yaml:"backoff_cap"`
	JitterFraction float64       `yaml:"jitter_fraction"`
}

// IdempotencyConfig selects the guard backend.
type IdempotencyConfig struct {
	Backend string `yaml:"backend"` // memory, redis, postgres
}
