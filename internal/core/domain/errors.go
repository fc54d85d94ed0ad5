package domain

import (
	"errors"
	"fmt"
)

// ErrStoreUnavailable marks an idempotency guard that cannot answer.
// Guard implementations wrap their infrastructure errors with it so the
// processor can tell a store outage apart from a fresh key.
var ErrStoreUnavailable = errors.New("idempotency store unavailable")

// StatusError is an HTTP response the provider rejected the request with.
type StatusError struct {
	StatusCode int
	Body       string
	RetryAfter string // raw Retry-After header on 429, if present
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("provider returned %d", e.StatusCode)
	}
	return fmt.Sprintf("provider returned %d: %s", e.StatusCode, e.Body)
}

// TransportError means the provider could not be reached at all:
// connection failures, timeouts, DNS errors.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "provider unreachable: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// TransformError means an event cannot be turned into a provider request
// (malformed payload or no transformer for its type/version). Always
// permanent; never reaches the Delivery Client.
type TransformError struct {
	EventType    EventType
	EventVersion int
	Err          error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform %s v%d: %v", e.EventType, e.EventVersion, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }
