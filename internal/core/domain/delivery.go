package domain

import (
	"encoding/json"
	"time"
)

// ProviderRequest is the payload a Transformer produces for one event.
// Path is relative to the provider's base URL.
type ProviderRequest struct {
	Path    string
	Headers map[string]string
	Body    json.RawMessage
}

// ProviderResponse summarizes a successful provider call.
type ProviderResponse struct {
	StatusCode int
	Summary    string
}

// FailureClass is the classifier's verdict for a failed attempt.
type FailureClass string

const (
	FailureRetryable FailureClass = "retryable"
	FailurePermanent FailureClass = "permanent"
)

// DeliveryAttempt records a single provider call. Attempts are ephemeral:
// they travel with the delivery outcome and into dead letters, nothing more.
type DeliveryAttempt struct {
	Number       int           `json:"number"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
	StatusCode   int           `json:"status_code,omitempty"`
	Error        string        `json:"error,omitempty"`
	ClassifiedAs FailureClass  `json:"classified_as,omitempty"`
	Success      bool          `json:"success"`
}

// OutcomeKind is the terminal result of one Deliver invocation.
type OutcomeKind string

const (
	// OutcomeDelivered means the provider accepted the request.
	OutcomeDelivered OutcomeKind = "delivered"
	// OutcomePermanentFailure means a non-retryable failure; no further
	// attempts were made.
	OutcomePermanentFailure OutcomeKind = "permanent_failure"
	// OutcomeExhausted means every allowed attempt failed retryably.
	OutcomeExhausted OutcomeKind = "exhausted"
)

// DeliveryOutcome is the terminal result of the Delivery Client for one
// event, together with the full attempt history.
type DeliveryOutcome struct {
	Kind            OutcomeKind
	ResponseSummary string
	Reason          string
	Attempts        []DeliveryAttempt
	CorrelationID   string
}
