package pipeline

import (
	"context"
	"log/slog"

	"github.com/vietddude/crmsync/internal/core/domain"
	"github.com/vietddude/crmsync/internal/syncing/idempotency"
	"github.com/vietddude/crmsync/internal/syncing/metrics"
	"github.com/vietddude/crmsync/internal/syncing/transform"
)

// Deliverer is the delivery client capability the processor depends on.
type Deliverer interface {
	Deliver(ctx context.Context, req *domain.ProviderRequest) domain.DeliveryOutcome
}

// Processor orchestrates one event through idempotency check, transform,
// delivery, and outcome routing. It holds no per-event state between
// calls; the guard owns the only cross-event state.
type Processor struct {
	guard       idempotency.Guard
	transformer transform.Transformer
	deliverer   Deliverer
	log         *slog.Logger
}

// NewProcessor creates an event processor.
func NewProcessor(
	guard idempotency.Guard,
	transformer transform.Transformer,
	deliverer Deliverer,
	log *slog.Logger,
) *Processor {
	if log == nil {
		log = slog.Default()
	}
	return &Processor{
		guard:       guard,
		transformer: transformer,
		deliverer:   deliverer,
		log:         log,
	}
}

// Process resolves one event to exactly one terminal result. All
// transform and delivery failures are absorbed here and converted into a
// dead-letter result; nothing escapes to crash the consumer loop.
func (p *Processor) Process(ctx context.Context, ev *domain.Event) domain.ProcessingResult {
	log := p.log.With(
		"event_id", ev.EventID,
		"event_type", ev.EventType,
		"idempotency_key", ev.IdempotencyKey,
	)

	status, err := p.guard.Check(ctx, ev.IdempotencyKey)
	if err != nil {
		// A store outage must not be mistaken for a fresh key: that
		// would risk duplicate external writes on infrastructure
		// hiccups. The event is quarantined instead.
		log.Error("Idempotency check failed", "error", err)
		metrics.DeadLetters.WithLabelValues("store").Inc()
		metrics.EventsProcessed.WithLabelValues(string(domain.ResultDeadLettered)).Inc()
		return domain.ProcessingResult{
			Kind:   domain.ResultDeadLettered,
			Reason: "idempotency check: " + err.Error(),
		}
	}

	if status == domain.IdempotencyCompleted {
		log.Info("Skipping already processed event")
		metrics.IdempotencySkips.Inc()
		metrics.EventsProcessed.WithLabelValues(string(domain.ResultAlreadyProcessed)).Inc()
		return domain.ProcessingResult{Kind: domain.ResultAlreadyProcessed}
	}

	// new and in_progress both proceed: an in_progress record is a
	// crashed or concurrent prior attempt, and reattempting is the
	// at-least-once contract.
	if err := p.guard.MarkInProgress(ctx, ev.IdempotencyKey); err != nil {
		log.Error("Failed to mark event in progress", "error", err)
		metrics.DeadLetters.WithLabelValues("store").Inc()
		metrics.EventsProcessed.WithLabelValues(string(domain.ResultDeadLettered)).Inc()
		return domain.ProcessingResult{
			Kind:   domain.ResultDeadLettered,
			Reason: "idempotency mark in progress: " + err.Error(),
		}
	}

	req, err := p.transformer.Transform(ev)
	if err != nil {
		// Malformed payload or unsupported type: permanent, the
		// delivery client is never invoked.
		log.Warn("Transformation failed", "error", err)
		metrics.DeadLetters.WithLabelValues("transform").Inc()
		metrics.EventsProcessed.WithLabelValues(string(domain.ResultDeadLettered)).Inc()
		return domain.ProcessingResult{
			Kind:   domain.ResultDeadLettered,
			Reason: err.Error(),
		}
	}

	outcome := p.deliverer.Deliver(ctx, req)

	switch outcome.Kind {
	case domain.OutcomeDelivered:
		if err := p.guard.MarkCompleted(ctx, ev.IdempotencyKey); err != nil {
			// The external write happened; a later redelivery is
			// absorbed by at-least-once semantics.
			log.Error("Delivered but failed to mark completed", "error", err)
		}
		log.Info("Event delivered",
			"attempts", len(outcome.Attempts),
			"correlation_id", outcome.CorrelationID,
		)
		metrics.EventsProcessed.WithLabelValues(string(domain.ResultDelivered)).Inc()
		return domain.ProcessingResult{
			Kind:          domain.ResultDelivered,
			Attempts:      outcome.Attempts,
			CorrelationID: outcome.CorrelationID,
		}

	default:
		// PermanentFailure or Exhausted. The record stays in_progress
		// (not completed, not deleted) so a manual replay can proceed.
		log.Warn("Event dead-lettered",
			"outcome", outcome.Kind,
			"reason", outcome.Reason,
			"attempts", len(outcome.Attempts),
			"correlation_id", outcome.CorrelationID,
		)
		metrics.DeadLetters.WithLabelValues(string(outcome.Kind)).Inc()
		metrics.EventsProcessed.WithLabelValues(string(domain.ResultDeadLettered)).Inc()
		return domain.ProcessingResult{
			Kind:          domain.ResultDeadLettered,
			Reason:        outcome.Reason,
			Attempts:      outcome.Attempts,
			CorrelationID: outcome.CorrelationID,
		}
	}
}
