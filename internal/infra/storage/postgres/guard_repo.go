package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vietddude/crmsync/internal/core/domain"
)

// GuardRepo is the Postgres-backed idempotency guard. The primary key on
// idempotency_key plus ON CONFLICT DO NOTHING gives MarkInProgress the
// atomic check-and-mark semantics concurrent workers need.
type GuardRepo struct {
	db *DB
}

// NewGuardRepo creates a Postgres idempotency guard.
func NewGuardRepo(db *DB) *GuardRepo {
	return &GuardRepo{db: db}
}

func (r *GuardRepo) Check(ctx context.Context, key string) (domain.IdempotencyStatus, error) {
	var status string
	err := r.db.GetContext(ctx, &status,
		`SELECT status FROM idempotency_records WHERE idempotency_key = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.IdempotencyNew, nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: select record: %v", domain.ErrStoreUnavailable, err)
	}
	return domain.IdempotencyStatus(status), nil
}

func (r *GuardRepo) MarkInProgress(ctx context.Context, key string) error {
	// Existing records, completed ones included, are left untouched.
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO idempotency_records (idempotency_key, status, recorded_at)
		VALUES ($1, 'in_progress', NOW())
		ON CONFLICT (idempotency_key) DO NOTHING
	`, key)
	if err != nil {
		return fmt.Errorf("%w: insert record: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *GuardRepo) MarkCompleted(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO idempotency_records (idempotency_key, status, recorded_at)
		VALUES ($1, 'completed', NOW())
		ON CONFLICT (idempotency_key)
		DO UPDATE SET status = 'completed'
	`, key)
	if err != nil {
		return fmt.Errorf("%w: upsert record: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Stats returns record counts by status, for the status command.
func (r *GuardRepo) Stats(ctx context.Context) (inProgress, completed int, err error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM idempotency_records GROUP BY status`)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return 0, 0, err
		}
		switch domain.IdempotencyStatus(status) {
		case domain.IdempotencyInProgress:
			inProgress = count
		case domain.IdempotencyCompleted:
			completed = count
		}
	}
	return inProgress, completed, rows.Err()
}
