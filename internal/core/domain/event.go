package domain

import (
	"fmt"
	"time"
)

// Event is one domain event pulled from the internal event log.
// Field names follow the producer's JSON contract (schema_version 1).
type Event struct {
	EventID        string         `json:"event_id"`
	IdempotencyKey string         `json:"idempotency_key"`
	EventType      EventType      `json:"event_type"`
	EventVersion   int            `json:"event_version"`
	OccurredAt     time.Time      `json:"occurred_at"`
	Source         string         `json:"source"`
	Entity         Entity         `json:"entity"`
	Payload        map[string]any `json:"payload"`
	Metadata       Metadata       `json:"metadata"`
}

type EventType string

const (
	EventTypeRecordCreated EventType = "record.created"
	EventTypeRecordUpdated EventType = "record.updated"
	EventTypeRecordDeleted EventType = "record.deleted"
)

// Entity identifies the record the event is about. Version is a
// monotonically comparable token (timestamp or sequence) reserved for
// conflict resolution; this pipeline carries it but does not enforce it.
type Entity struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Version string `json:"version,omitempty"`
}

// Metadata holds the event envelope metadata.
type Metadata struct {
	SchemaVersion int `json:"schema_version"`
}

// Validate checks the fields the pipeline itself depends on. Payload
// shape is the Transformer's concern and is not validated here.
func (e *Event) Validate() error {
	if e.EventID == "" {
		return fmt.Errorf("event_id is required")
	}
	if e.IdempotencyKey == "" {
		return fmt.Errorf("idempotency_key is required")
	}
	if e.EventType == "" {
		return fmt.Errorf("event_type is required")
	}
	if e.Entity.Type == "" || e.Entity.ID == "" {
		return fmt.Errorf("entity type and id are required")
	}
	return nil
}
