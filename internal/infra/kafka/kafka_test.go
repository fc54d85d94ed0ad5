package kafka

import (
	"testing"
	"time"

	"github.com/vietddude/crmsync/internal/core/domain"
)

func TestDecodeEvent(t *testing.T) {
	value := []byte(`{
		"event_id": "a7c1",
		"idempotency_key": "key-123",
		"event_type": "record.created",
		"event_version": 1,
		"occurred_at": "2026-08-25T10:00:00Z",
		"source": "internal-system",
		"entity": {"type": "customer", "id": "42", "version": "17"},
		"payload": {"name": "Ada"},
		"metadata": {"schema_version": 1}
	}`)

	ev, err := decodeEvent(value)
	if err != nil {
		t.Fatalf("decodeEvent failed: %v", err)
	}
	if ev.EventID != "a7c1" || ev.IdempotencyKey != "key-123" {
		t.Errorf("ids lost in decode: %+v", ev)
	}
	if ev.EventType != domain.EventTypeRecordCreated || ev.EventVersion != 1 {
		t.Errorf("type/version lost in decode: %+v", ev)
	}
	if ev.Entity.Version != "17" {
		t.Errorf("entity version lost: %+v", ev.Entity)
	}
}

func TestDecodeEvent_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"truncated json", `{"event_id": "a7`},
		{"missing idempotency key", `{"event_id": "a7c1", "event_type": "record.created", "entity": {"type": "customer", "id": "42"}}`},
		{"missing entity", `{"event_id": "a7c1", "idempotency_key": "k", "event_type": "record.created"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodeEvent([]byte(tt.value)); err == nil {
				t.Error("expected decode error")
			}
		})
	}
}

func TestLetterHeaders(t *testing.T) {
	letter := &domain.DeadLetter{
		ID:     "dl-1",
		Reason: "provider returned 404",
		Event: &domain.Event{
			EventID:        "ev-1",
			IdempotencyKey: "key-123",
		},
		Origin:   &domain.Origin{Topic: "crm.events", Partition: 2, Offset: 1042},
		Attempts: []domain.DeliveryAttempt{{Number: 1, StatusCode: 404}},
		FailedAt: time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC),
	}

	headers := letterHeaders(letter)

	byKey := map[string]string{}
	for _, h := range headers {
		byKey[h.Key] = string(h.Value)
	}

	if byKey["failure_reason"] != "provider returned 404" {
		t.Errorf("missing failure_reason header: %v", byKey)
	}
	if byKey["attempts"] != "1" {
		t.Errorf("wrong attempts header: %q", byKey["attempts"])
	}
	if byKey["idempotency_key"] != "key-123" {
		t.Errorf("missing idempotency_key header: %v", byKey)
	}
	if byKey["failed_at"] != "2026-08-25T10:00:00Z" {
		t.Errorf("wrong failed_at header: %q", byKey["failed_at"])
	}
	if byKey["attempt_history"] == "" {
		t.Error("expected attempt_history header")
	}
	if byKey["origin_topic"] != "crm.events" || byKey["origin_offset"] != "1042" {
		t.Errorf("missing origin headers: %v", byKey)
	}
}
