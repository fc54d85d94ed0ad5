package domain

// ResultKind is the terminal state of the Event Processor for one event.
type ResultKind string

const (
	// ResultAlreadyProcessed means the idempotency guard reported a
	// completed record; no delivery was attempted.
	ResultAlreadyProcessed ResultKind = "already_processed"
	// ResultDelivered means the provider accepted the event.
	ResultDelivered ResultKind = "delivered"
	// ResultDeadLettered means the event could not be delivered and was
	// routed to the dead-letter destination.
	ResultDeadLettered ResultKind = "dead_lettered"
)

// ProcessingResult is what the Event Processor hands back to the
// Consumer Loop. Every event resolves to exactly one of these.
type ProcessingResult struct {
	Kind          ResultKind
	Reason        string
	Attempts      []DeliveryAttempt
	CorrelationID string
}

// Succeeded reports whether the event's offset may be committed without a
// dead-letter publish.
func (r ProcessingResult) Succeeded() bool {
	return r.Kind == ResultDelivered || r.Kind == ResultAlreadyProcessed
}
