package idempotency

import (
	"context"
	"sync"
	"testing"

	"github.com/vietddude/crmsync/internal/core/domain"
)

func TestMemoryGuard_Lifecycle(t *testing.T) {
	g := NewMemoryGuard()
	ctx := context.Background()

	status, err := g.Check(ctx, "key-123")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if status != domain.IdempotencyNew {
		t.Fatalf("expected new, got %s", status)
	}

	if err := g.MarkInProgress(ctx, "key-123"); err != nil {
		t.Fatalf("MarkInProgress failed: %v", err)
	}
	status, _ = g.Check(ctx, "key-123")
	if status != domain.IdempotencyInProgress {
		t.Fatalf("expected in_progress, got %s", status)
	}

	if err := g.MarkCompleted(ctx, "key-123"); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}
	status, _ = g.Check(ctx, "key-123")
	if status != domain.IdempotencyCompleted {
		t.Fatalf("expected completed, got %s", status)
	}
}

func TestMemoryGuard_InProgressDoesNotDowngradeCompleted(t *testing.T) {
	g := NewMemoryGuard()
	ctx := context.Background()

	_ = g.MarkInProgress(ctx, "key-1")
	_ = g.MarkCompleted(ctx, "key-1")
	_ = g.MarkInProgress(ctx, "key-1") // late duplicate worker

	status, _ := g.Check(ctx, "key-1")
	if status != domain.IdempotencyCompleted {
		t.Errorf("completed record was downgraded to %s", status)
	}
}

func TestMemoryGuard_ConcurrentAccess(t *testing.T) {
	g := NewMemoryGuard()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = g.MarkInProgress(ctx, "shared-key")
			_, _ = g.Check(ctx, "shared-key")
			_ = g.MarkCompleted(ctx, "shared-key")
		}()
	}
	wg.Wait()

	status, _ := g.Check(ctx, "shared-key")
	if status != domain.IdempotencyCompleted {
		t.Errorf("expected completed after concurrent writers, got %s", status)
	}
	if g.Len() != 1 {
		t.Errorf("expected 1 tracked key, got %d", g.Len())
	}
}
