package storage

import (
	"context"

	"github.com/vietddude/crmsync/internal/core/domain"
)

// DeadLetterArchive persists quarantined events alongside the DLQ topic
// so operators can inspect, count, and replay them.
type DeadLetterArchive interface {
	// Add stores one dead letter. Idempotent on the letter's ID.
	Add(ctx context.Context, letter *domain.DeadLetter) error

	// ListPending returns up to limit letters that have not been
	// replayed, oldest first.
	ListPending(ctx context.Context, limit int) ([]*domain.DeadLetter, error)

	// MarkReplayed flags a letter as re-published to the main topic.
	MarkReplayed(ctx context.Context, id string) error

	// Stats returns pending and replayed counts.
	Stats(ctx context.Context) (pending, replayed int, err error)
}
