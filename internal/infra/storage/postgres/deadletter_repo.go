package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vietddude/crmsync/internal/core/domain"
)

// DeadLetterRepo implements storage.DeadLetterArchive using PostgreSQL.
type DeadLetterRepo struct {
	db *DB
}

// NewDeadLetterRepo creates a Postgres dead-letter archive.
func NewDeadLetterRepo(db *DB) *DeadLetterRepo {
	return &DeadLetterRepo{db: db}
}

func (r *DeadLetterRepo) Add(ctx context.Context, letter *domain.DeadLetter) error {
	var eventID, idempotencyKey, eventType string
	payload := letter.Raw
	if letter.Event != nil {
		eventID = letter.Event.EventID
		idempotencyKey = letter.Event.IdempotencyKey
		eventType = string(letter.Event.EventType)
		if len(payload) == 0 {
			encoded, err := json.Marshal(letter.Event)
			if err != nil {
				return fmt.Errorf("failed to encode event: %w", err)
			}
			payload = encoded
		}
	}

	attempts, err := json.Marshal(letter.Attempts)
	if err != nil {
		return fmt.Errorf("failed to encode attempts: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO dead_letters
			(id, event_id, idempotency_key, event_type, reason, attempts, payload, failed_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending')
		ON CONFLICT (id) DO NOTHING
	`, letter.ID, eventID, idempotencyKey, eventType, letter.Reason, attempts, payload, letter.FailedAt)
	if err != nil {
		return fmt.Errorf("failed to add dead letter: %w", err)
	}
	return nil
}

func (r *DeadLetterRepo) ListPending(ctx context.Context, limit int) ([]*domain.DeadLetter, error) {
	var rows []struct {
		ID       string    `db:"id"`
		Reason   string    `db:"reason"`
		Attempts []byte    `db:"attempts"`
		Payload  []byte    `db:"payload"`
		FailedAt time.Time `db:"failed_at"`
	}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, reason, attempts, payload, failed_at
		FROM dead_letters
		WHERE status = 'pending'
		ORDER BY failed_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list dead letters: %w", err)
	}

	letters := make([]*domain.DeadLetter, 0, len(rows))
	for _, row := range rows {
		letter := &domain.DeadLetter{
			ID:       row.ID,
			Reason:   row.Reason,
			Raw:      row.Payload,
			FailedAt: row.FailedAt,
		}
		if len(row.Attempts) > 0 {
			_ = json.Unmarshal(row.Attempts, &letter.Attempts)
		}
		var ev domain.Event
		if len(row.Payload) > 0 && json.Unmarshal(row.Payload, &ev) == nil && ev.EventID != "" {
			letter.Event = &ev
		}
		letters = append(letters, letter)
	}
	return letters, nil
}

func (r *DeadLetterRepo) MarkReplayed(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE dead_letters
		SET status = 'replayed', replayed_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to mark dead letter replayed: %w", err)
	}
	return nil
}

func (r *DeadLetterRepo) Stats(ctx context.Context) (pending, replayed int, err error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM dead_letters GROUP BY status`)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count dead letters: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return 0, 0, err
		}
		switch status {
		case "pending":
			pending = count
		case "replayed":
			replayed = count
		}
	}
	return pending, replayed, rows.Err()
}
