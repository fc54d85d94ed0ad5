package servicenow

import (
	"encoding/json"
	"fmt"

	"github.com/vietddude/crmsync/internal/core/domain"
	"github.com/vietddude/crmsync/internal/syncing/transform"
)

// incidentBody is the ServiceNow table API payload. The idempotency key
// goes into short_description and the event content into description,
// matching the incident contract of the sync service.
type incidentBody struct {
	ShortDescription string `json:"short_description"`
	Description      string `json:"description"`
}

type incidentDetail struct {
	Entity  domain.Entity  `json:"entity"`
	Payload map[string]any `json:"payload"`
}

// Transformer maps customer record events onto ServiceNow incident
// creation requests.
type Transformer struct {
	tablePath string
}

// NewTransformer creates a ServiceNow transformer posting to the given
// table path (e.g. /api/now/table/incident).
func NewTransformer(tablePath string) *Transformer {
	return &Transformer{tablePath: tablePath}
}

func (t *Transformer) Transform(ev *domain.Event) (*domain.ProviderRequest, error) {
	if ev.Payload == nil {
		return nil, fmt.Errorf("event payload is missing")
	}

	detail, err := json.Marshal(incidentDetail{Entity: ev.Entity, Payload: ev.Payload})
	if err != nil {
		return nil, fmt.Errorf("encode incident detail: %w", err)
	}

	body, err := json.Marshal(incidentBody{
		ShortDescription: ev.IdempotencyKey,
		Description:      string(detail),
	})
	if err != nil {
		return nil, fmt.Errorf("encode incident: %w", err)
	}

	return &domain.ProviderRequest{
		Path: t.tablePath,
		Body: body,
	}, nil
}

// RegisterAll binds the transformer to every customer event shape it
// understands (schema version 1).
func (t *Transformer) RegisterAll(r *transform.Registry) {
	r.Register(domain.EventTypeRecordCreated, 1, t)
	r.Register(domain.EventTypeRecordUpdated, 1, t)
	r.Register(domain.EventTypeRecordDeleted, 1, t)
}
