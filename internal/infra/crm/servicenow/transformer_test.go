package servicenow

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/vietddude/crmsync/internal/core/domain"
	"github.com/vietddude/crmsync/internal/syncing/transform"
)

func TestTransform_BuildsIncident(t *testing.T) {
	tr := NewTransformer("/api/now/table/incident")

	req, err := tr.Transform(&domain.Event{
		EventID:        "ev-1",
		IdempotencyKey: "key-123",
		EventType:      domain.EventTypeRecordCreated,
		EventVersion:   1,
		Entity:         domain.Entity{Type: "customer", ID: "42"},
		Payload:        map[string]any{"name": "Ada", "email": "ada@example.com"},
	})
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	if req.Path != "/api/now/table/incident" {
		t.Errorf("wrong path: %s", req.Path)
	}

	var body incidentBody
	if err := json.Unmarshal(req.Body, &body); err != nil {
		t.Fatalf("request body is not valid JSON: %v", err)
	}
	if body.ShortDescription != "key-123" {
		t.Errorf("short_description must carry the idempotency key, got %q", body.ShortDescription)
	}

	var detail incidentDetail
	if err := json.Unmarshal([]byte(body.Description), &detail); err != nil {
		t.Fatalf("description is not valid JSON: %v", err)
	}
	if detail.Entity.ID != "42" || detail.Payload["name"] != "Ada" {
		t.Errorf("description lost event content: %+v", detail)
	}
}

func TestTransform_MissingPayload(t *testing.T) {
	tr := NewTransformer("/api/now/table/incident")

	_, err := tr.Transform(&domain.Event{
		IdempotencyKey: "key-123",
		EventType:      domain.EventTypeRecordCreated,
		EventVersion:   1,
	})
	if err == nil {
		t.Fatal("expected error for missing payload")
	}
}

func TestRegisterAll_WrapsFailuresAsTransformError(t *testing.T) {
	r := transform.NewRegistry()
	NewTransformer("/api/now/table/incident").RegisterAll(r)

	_, err := r.Transform(&domain.Event{
		EventType:    domain.EventTypeRecordUpdated,
		EventVersion: 1,
		// no payload
	})

	var transformErr *domain.TransformError
	if !errors.As(err, &transformErr) {
		t.Fatalf("expected TransformError via registry, got %T", err)
	}
}
