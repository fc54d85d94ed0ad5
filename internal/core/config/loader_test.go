package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_EnvSubstitution(t *testing.T) {
	// Setup env var
	os.Setenv("TEST_SN_PASSWORD", "s3cret")
	defer os.Unsetenv("TEST_SN_PASSWORD")

	// Create temp config file
	configContent := `
provider:
  base_url: https://dev.service-now.com
  username: admin
  password: ${TEST_SN_PASSWORD}
broker:
  brokers: ["localhost:9092"]
  topic: internal.customer.events
`
	tmpFile, err := os.CreateTemp("", "config_*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write([]byte(configContent)); err != nil {
		t.Fatalf("Failed to write to temp file: %v", err)
	}
	tmpFile.Close()

	// Load config
	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Provider.Password != "s3cret" {
		t.Errorf("Expected password s3cret, got %s", cfg.Provider.Password)
	}
}

func TestLoad_Defaults(t *testing.T) {
	configContent := `
broker:
  brokers: ["localhost:9092"]
  topic: internal.customer.events
`
	tmpFile, err := os.CreateTemp("", "config_*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write([]byte(configContent)); err != nil {
		t.Fatalf("Failed to write to temp file: %v", err)
	}
	tmpFile.Close()

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("Expected default max_attempts 3, got %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.BackoffBase != 1*time.Second {
		t.Errorf("Expected default backoff_base 1s, got %s", cfg.Retry.BackoffBase)
	}
	if cfg.Retry.BackoffCap != 32*time.Second {
		t.Errorf("Expected default backoff_cap 32s, got %s", cfg.Retry.BackoffCap)
	}
	if cfg.Provider.Timeout != 30*time.Second {
		t.Errorf("Expected default timeout 30s, got %s", cfg.Provider.Timeout)
	}
	if cfg.Broker.DLQTopic != "internal.customer.events.dlq" {
		t.Errorf("Expected derived DLQ topic, got %s", cfg.Broker.DLQTopic)
	}
	if cfg.Idempotency.Backend != "memory" {
		t.Errorf("Expected default backend memory, got %s", cfg.Idempotency.Backend)
	}
}
