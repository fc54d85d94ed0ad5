package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vietddude/crmsync/internal/core/domain"
)

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// Guard is the Redis-backed idempotency guard, shared by all consumer
// instances pointed at the same Redis. MarkInProgress uses SETNX, so two
// workers racing on one key cannot both create the record, and a
// completed record is never downgraded.
type Guard struct {
	rdb *redis.Client
}

// NewGuard creates a Redis guard and verifies the connection.
func NewGuard(cfg Config) (*Guard, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Guard{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (g *Guard) Close() error {
	return g.rdb.Close()
}

// Health checks the Redis connection.
func (g *Guard) Health(ctx context.Context) error {
	return g.rdb.Ping(ctx).Err()
}

func recordKey(key string) string {
	return "idempotency:" + key
}

func recordValue(status domain.IdempotencyStatus) string {
	return string(status) + "|" + time.Now().UTC().Format(time.RFC3339)
}

func parseStatus(value string) domain.IdempotencyStatus {
	status, _, _ := strings.Cut(value, "|")
	return domain.IdempotencyStatus(status)
}

func (g *Guard) Check(ctx context.Context, key string) (domain.IdempotencyStatus, error) {
	val, err := g.rdb.Get(ctx, recordKey(key)).Result()
	if err == redis.Nil {
		return domain.IdempotencyNew, nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: redis get: %v", domain.ErrStoreUnavailable, err)
	}
	return parseStatus(val), nil
}

// MarkInProgress records the key as in progress. SETNX semantics: if any
// record already exists (in progress or completed) it is left untouched.
// Records carry no TTL; retention is the store operator's concern.
func (g *Guard) MarkInProgress(ctx context.Context, key string) error {
	if err := g.rdb.SetNX(ctx, recordKey(key), recordValue(domain.IdempotencyInProgress), 0).Err(); err != nil {
		return fmt.Errorf("%w: redis setnx: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (g *Guard) MarkCompleted(ctx context.Context, key string) error {
	if err := g.rdb.Set(ctx, recordKey(key), recordValue(domain.IdempotencyCompleted), 0).Err(); err != nil {
		return fmt.Errorf("%w: redis set: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}
