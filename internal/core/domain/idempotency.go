package domain

import "time"

// IdempotencyStatus is the lifecycle state of an idempotency record.
type IdempotencyStatus string

const (
	// IdempotencyNew means no record exists for the key.
	IdempotencyNew IdempotencyStatus = "new"
	// IdempotencyInProgress means a record exists but delivery was never
	// confirmed (concurrent worker or crashed prior attempt).
	IdempotencyInProgress IdempotencyStatus = "in_progress"
	// IdempotencyCompleted means delivery was confirmed for the key.
	IdempotencyCompleted IdempotencyStatus = "completed"
)

// IdempotencyRecord is owned exclusively by the idempotency guard.
// Records are never deleted by the pipeline; retention is a storage
// operator concern.
type IdempotencyRecord struct {
	Key        string            `db:"idempotency_key"`
	Status     IdempotencyStatus `db:"status"`
	RecordedAt time.Time         `db:"recorded_at"`
}
