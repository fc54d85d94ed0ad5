package delivery

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vietddude/crmsync/internal/core/domain"
	"github.com/vietddude/crmsync/internal/syncing/metrics"
)

// Provider performs a single call against the CRM. Implementations return
// *domain.StatusError for HTTP rejections and *domain.TransportError when
// the provider cannot be reached, so the classifier can tell them apart.
type Provider interface {
	Send(ctx context.Context, req *domain.ProviderRequest) (*domain.ProviderResponse, error)
}

// Client drives one event's provider delivery across attempts, applying
// the backoff policy and the error classifier. It performs network I/O and
// emits attempt-level logs; it mutates no state outside itself.
type Client struct {
	provider    Provider
	policy      BackoffPolicy
	maxAttempts int
	timeout     time.Duration // per attempt
	log         *slog.Logger
}

// NewClient creates a delivery client. maxAttempts must be >= 1.
func NewClient(
	provider Provider,
	policy BackoffPolicy,
	maxAttempts int,
	timeout time.Duration,
	log *slog.Logger,
) *Client {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		provider:    provider,
		policy:      policy,
		maxAttempts: maxAttempts,
		timeout:     timeout,
		log:         log,
	}
}

// Deliver performs up to maxAttempts provider calls for the request.
// A single correlation id is generated per invocation and attached to
// every attempt's log record, so all retries of one event trace as one
// group. Context cancellation during a backoff wait ends the invocation
// as Exhausted.
func (c *Client) Deliver(ctx context.Context, req *domain.ProviderRequest) domain.DeliveryOutcome {
	correlationID := uuid.New().String()
	log := c.log.With("correlation_id", correlationID)

	attempts := make([]domain.DeliveryAttempt, 0, c.maxAttempts)

	for attempt := 1; ; attempt++ {
		started := time.Now()

		attemptCtx := ctx
		var cancel context.CancelFunc
		if c.timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
		}
		resp, err := c.provider.Send(attemptCtx, req)
		if cancel != nil {
			cancel()
		}

		elapsed := time.Since(started)

		if err == nil {
			attempts = append(attempts, domain.DeliveryAttempt{
				Number:     attempt,
				StartedAt:  started,
				Duration:   elapsed,
				StatusCode: resp.StatusCode,
				Success:    true,
			})
			metrics.DeliveryAttempts.WithLabelValues("success").Inc()
			metrics.DeliveryLatency.WithLabelValues("success").Observe(elapsed.Seconds())
			log.Info("Delivery succeeded",
				"attempt", attempt,
				"max_attempts", c.maxAttempts,
				"status", resp.StatusCode,
				"duration", elapsed,
			)
			return domain.DeliveryOutcome{
				Kind:            domain.OutcomeDelivered,
				ResponseSummary: resp.Summary,
				Attempts:        attempts,
				CorrelationID:   correlationID,
			}
		}

		class := Classify(err)
		attempts = append(attempts, domain.DeliveryAttempt{
			Number:       attempt,
			StartedAt:    started,
			Duration:     elapsed,
			StatusCode:   statusCodeOf(err),
			Error:        err.Error(),
			ClassifiedAs: class,
		})
		metrics.DeliveryAttempts.WithLabelValues(string(class)).Inc()
		metrics.DeliveryLatency.WithLabelValues("failure").Observe(elapsed.Seconds())

		log.Warn("Delivery attempt failed",
			"attempt", attempt,
			"max_attempts", c.maxAttempts,
			"classified_as", class,
			"error", err,
		)
		if ra := retryAfterOf(err); ra != "" {
			// Hint only; the exponential schedule is not overridden.
			log.Info("Provider sent Retry-After hint", "retry_after", ra)
		}

		if class == domain.FailurePermanent {
			return domain.DeliveryOutcome{
				Kind:          domain.OutcomePermanentFailure,
				Reason:        err.Error(),
				Attempts:      attempts,
				CorrelationID: correlationID,
			}
		}

		if attempt == c.maxAttempts {
			return domain.DeliveryOutcome{
				Kind:          domain.OutcomeExhausted,
				Reason:        err.Error(),
				Attempts:      attempts,
				CorrelationID: correlationID,
			}
		}

		delay := c.policy.Delay(attempt)
		log.Debug("Backing off before retry", "attempt", attempt, "delay", delay)

		select {
		case <-ctx.Done():
			return domain.DeliveryOutcome{
				Kind:          domain.OutcomeExhausted,
				Reason:        "delivery cancelled: " + ctx.Err().Error(),
				Attempts:      attempts,
				CorrelationID: correlationID,
			}
		case <-time.After(delay):
		}
	}
}

func statusCodeOf(err error) int {
	var statusErr *domain.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

func retryAfterOf(err error) string {
	var statusErr *domain.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == 429 {
		return statusErr.RetryAfter
	}
	return ""
}
