package delivery

import (
	"context"
	"errors"
	"net"

	"github.com/vietddude/crmsync/internal/core/domain"
)

// Classify decides whether a failed delivery attempt is worth retrying.
//
// Policy, in priority order:
//  1. Transport failure (provider unreachable) -> retryable
//  2. Timeout -> retryable
//  3. HTTP 429 -> retryable (backoff still applies; Retry-After is logged
//     by the client but does not override the schedule)
//  4. HTTP 5xx -> retryable
//  5. HTTP 4xx (except 429) -> permanent
//  6. Anything else -> permanent (fail closed: unknown errors are not
//     retried indefinitely)
func Classify(err error) domain.FailureClass {
	if err == nil {
		return domain.FailurePermanent // should not happen
	}

	var transportErr *domain.TransportError
	if errors.As(err, &transportErr) {
		return domain.FailureRetryable
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return domain.FailureRetryable
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.FailureRetryable
	}

	var statusErr *domain.StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == 429:
			return domain.FailureRetryable
		case statusErr.StatusCode >= 500 && statusErr.StatusCode <= 599:
			return domain.FailureRetryable
		default:
			return domain.FailurePermanent
		}
	}

	return domain.FailurePermanent
}
