package domain

import "time"

// Origin locates a dead letter's source message on the broker.
type Origin struct {
	Topic     string `json:"topic"`
	Partition int    `json:"partition"`
	Offset    int64  `json:"offset"`
}

// DeadLetter is the quarantine record for an event that could not be
// delivered. It carries enough context for manual inspection and replay.
type DeadLetter struct {
	ID       string            `json:"id"`
	Event    *Event            `json:"event,omitempty"`
	Raw      []byte            `json:"raw,omitempty"` // original broker payload, kept when Event failed to decode
	Origin   *Origin           `json:"origin,omitempty"`
	Reason   string            `json:"reason"`
	Attempts []DeliveryAttempt `json:"attempts,omitempty"`
	FailedAt time.Time         `json:"failed_at"`
}

// AttemptCount returns the number of delivery attempts made before the
// event was dead-lettered. Zero for transform and decode failures.
func (d *DeadLetter) AttemptCount() int {
	return len(d.Attempts)
}
