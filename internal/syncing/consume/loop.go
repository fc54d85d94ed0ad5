package consume

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vietddude/crmsync/internal/core/domain"
	"github.com/vietddude/crmsync/internal/syncing/metrics"
)

// CommitHandle is the broker's opaque token for one message's offset.
type CommitHandle any

// Message is one unit pulled from the broker. When the payload could not
// be decoded, Err is set, Event is nil, and Raw carries the original
// bytes for the dead letter.
type Message struct {
	Event  *domain.Event
	Raw    []byte
	Origin *domain.Origin
	Handle CommitHandle
	Err    error
}

// Broker is the inbound event log collaborator. Delivery is
// at-least-once; duplicates and redeliveries are expected and are
// absorbed by idempotency keys, not assumed away.
type Broker interface {
	Poll(ctx context.Context) ([]Message, error)
	Commit(ctx context.Context, handle CommitHandle) error
}

// DeadLetterPublisher quarantines events that cannot be delivered.
type DeadLetterPublisher interface {
	Publish(ctx context.Context, letter *domain.DeadLetter) error
}

// EventProcessor resolves one event to a terminal result.
type EventProcessor interface {
	Process(ctx context.Context, ev *domain.Event) domain.ProcessingResult
}

// Loop pulls events from the broker and processes them strictly
// sequentially, preserving broker-partition ordering. Offsets are
// committed only after the terminal outcome is known and, for dead
// letters, after the dead-letter publish succeeded.
type Loop struct {
	broker    Broker
	dlq       DeadLetterPublisher
	processor EventProcessor
	log       *slog.Logger
}

// NewLoop creates a consumer loop.
func NewLoop(broker Broker, dlq DeadLetterPublisher, processor EventProcessor, log *slog.Logger) *Loop {
	if log == nil {
		log = slog.Default()
	}
	return &Loop{
		broker:    broker,
		dlq:       dlq,
		processor: processor,
		log:       log,
	}
}

// Run consumes until the context is cancelled or an infrastructure
// failure (commit or dead-letter publish) occurs. Per-event failures
// never stop the loop; they resolve to dead letters inside the
// processor.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msgs, err := l.broker.Poll(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			l.log.Error("Broker poll failed", "error", err)
			continue
		}

		for i := range msgs {
			if err := l.handle(ctx, &msgs[i]); err != nil {
				return err
			}
		}
	}
}

func (l *Loop) handle(ctx context.Context, msg *Message) error {
	if msg.Err != nil {
		// Undecodable payload: quarantine the raw bytes, then commit so
		// one poison message cannot wedge the partition.
		l.log.Warn("Dead-lettering undecodable message", "error", msg.Err)
		metrics.DeadLetters.WithLabelValues("decode").Inc()
		letter := &domain.DeadLetter{
			ID:       uuid.New().String(),
			Raw:      msg.Raw,
			Origin:   msg.Origin,
			Reason:   "decode: " + msg.Err.Error(),
			FailedAt: time.Now().UTC(),
		}
		if err := l.dlq.Publish(ctx, letter); err != nil {
			return fmt.Errorf("dead-letter publish failed: %w", err)
		}
		return l.commit(ctx, msg.Handle)
	}

	res := l.processor.Process(ctx, msg.Event)

	if res.Kind == domain.ResultDeadLettered {
		letter := &domain.DeadLetter{
			ID:       uuid.New().String(),
			Event:    msg.Event,
			Raw:      msg.Raw,
			Origin:   msg.Origin,
			Reason:   res.Reason,
			Attempts: res.Attempts,
			FailedAt: time.Now().UTC(),
		}
		// Publish before commit: losing a dead-lettered event is worse
		// than reprocessing it, so a failed publish leaves the offset
		// uncommitted and the event redelivers on restart.
		if err := l.dlq.Publish(ctx, letter); err != nil {
			return fmt.Errorf("dead-letter publish failed for event %s: %w", msg.Event.EventID, err)
		}
		l.log.Info("Dead letter published",
			"event_id", msg.Event.EventID,
			"reason", res.Reason,
			"attempts", len(res.Attempts),
		)
	}

	return l.commit(ctx, msg.Handle)
}

func (l *Loop) commit(ctx context.Context, handle CommitHandle) error {
	if err := l.broker.Commit(ctx, handle); err != nil {
		return fmt.Errorf("offset commit failed: %w", err)
	}
	metrics.OffsetCommits.Inc()
	return nil
}
