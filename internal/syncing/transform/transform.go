package transform

import (
	"errors"
	"fmt"

	"github.com/vietddude/crmsync/internal/core/domain"
)

// ErrNoTransformer means no transformer is registered for an event's
// type/version pair.
var ErrNoTransformer = errors.New("no transformer registered")

// Transformer maps an inbound event to a provider request. It is a pure
// capability: adding a provider or event shape means adding an
// implementation, not branching inside the processor.
type Transformer interface {
	Transform(event *domain.Event) (*domain.ProviderRequest, error)
}

// Func adapts a plain function to the Transformer interface.
type Func func(event *domain.Event) (*domain.ProviderRequest, error)

func (f Func) Transform(event *domain.Event) (*domain.ProviderRequest, error) {
	return f(event)
}

type key struct {
	eventType domain.EventType
	version   int
}

// Registry selects a Transformer by event_type and event_version.
type Registry struct {
	transformers map[key]Transformer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{transformers: make(map[key]Transformer)}
}

// Register binds a transformer to an event type/version pair. Later
// registrations replace earlier ones.
func (r *Registry) Register(eventType domain.EventType, version int, t Transformer) {
	r.transformers[key{eventType, version}] = t
}

// Transform dispatches to the registered transformer. Failures, including
// an unregistered type/version, come back as *domain.TransformError.
func (r *Registry) Transform(event *domain.Event) (*domain.ProviderRequest, error) {
	t, ok := r.transformers[key{event.EventType, event.EventVersion}]
	if !ok {
		return nil, &domain.TransformError{
			EventType:    event.EventType,
			EventVersion: event.EventVersion,
			Err:          ErrNoTransformer,
		}
	}

	req, err := t.Transform(event)
	if err != nil {
		var transformErr *domain.TransformError
		if errors.As(err, &transformErr) {
			return nil, err
		}
		return nil, &domain.TransformError{
			EventType:    event.EventType,
			EventVersion: event.EventVersion,
			Err:          err,
		}
	}
	if req == nil {
		return nil, &domain.TransformError{
			EventType:    event.EventType,
			EventVersion: event.EventVersion,
			Err:          fmt.Errorf("transformer produced no request"),
		}
	}
	return req, nil
}
