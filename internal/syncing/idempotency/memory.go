package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/crmsync/internal/core/domain"
)

// MemoryGuard is the in-process guard backend. State does not survive a
// restart and is not shared between instances; production deployments use
// the Redis or Postgres backends instead.
type MemoryGuard struct {
	mu      sync.RWMutex
	records map[string]*domain.IdempotencyRecord
}

// NewMemoryGuard creates an empty in-memory guard.
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{records: make(map[string]*domain.IdempotencyRecord)}
}

func (g *MemoryGuard) Check(ctx context.Context, key string) (domain.IdempotencyStatus, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rec, ok := g.records[key]
	if !ok {
		return domain.IdempotencyNew, nil
	}
	return rec.Status, nil
}

func (g *MemoryGuard) MarkInProgress(ctx context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if rec, ok := g.records[key]; ok {
		if rec.Status == domain.IdempotencyCompleted {
			return nil
		}
		rec.Status = domain.IdempotencyInProgress
		return nil
	}

	g.records[key] = &domain.IdempotencyRecord{
		Key:        key,
		Status:     domain.IdempotencyInProgress,
		RecordedAt: time.Now().UTC(),
	}
	return nil
}

func (g *MemoryGuard) MarkCompleted(ctx context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if rec, ok := g.records[key]; ok {
		rec.Status = domain.IdempotencyCompleted
		return nil
	}

	g.records[key] = &domain.IdempotencyRecord{
		Key:        key,
		Status:     domain.IdempotencyCompleted,
		RecordedAt: time.Now().UTC(),
	}
	return nil
}

// Len returns the number of tracked keys.
func (g *MemoryGuard) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.records)
}
