package idempotency

import (
	"context"

	"github.com/vietddude/crmsync/internal/core/domain"
)

// Guard owns the only state that crosses event boundaries: the
// idempotency records. A completed record is the pipeline's sole
// duplicate-suppression mechanism.
//
// Implementations must be safe for concurrent use and must make
// MarkInProgress atomic with respect to other writers of the same key, so
// a future worker-pool variant cannot double-deliver one key. When the
// backing store cannot answer, every method wraps
// domain.ErrStoreUnavailable instead of guessing.
type Guard interface {
	// Check returns the current status for the key: completed if a prior
	// call recorded success, in_progress if a record exists without
	// confirmed delivery, new otherwise.
	Check(ctx context.Context, key string) (domain.IdempotencyStatus, error)

	// MarkInProgress records an in-progress entry before delivery is
	// attempted, so a crash mid-delivery leaves an auditable trace. It
	// never downgrades a completed record.
	MarkInProgress(ctx context.Context, key string) error

	// MarkCompleted transitions the record to completed. Called only
	// after confirmed delivery.
	MarkCompleted(ctx context.Context, key string) error
}
