package delivery

import (
	"context"
	"testing"
	"time"

	"github.com/vietddude/crmsync/internal/core/domain"
)

type scriptedProvider struct {
	responses []any // either *domain.ProviderResponse or error
	calls     int
}

func (p *scriptedProvider) Send(ctx context.Context, req *domain.ProviderRequest) (*domain.ProviderResponse, error) {
	if p.calls >= len(p.responses) {
		p.calls++
		return &domain.ProviderResponse{StatusCode: 200, Summary: "ok"}, nil
	}
	next := p.responses[p.calls]
	p.calls++
	if err, ok := next.(error); ok {
		return nil, err
	}
	return next.(*domain.ProviderResponse), nil
}

func fastPolicy() BackoffPolicy {
	return BackoffPolicy{Base: time.Millisecond, Cap: 4 * time.Millisecond}
}

func TestDeliver_SuccessFirstAttempt(t *testing.T) {
	p := &scriptedProvider{responses: []any{
		&domain.ProviderResponse{StatusCode: 201, Summary: "created"},
	}}
	c := NewClient(p, fastPolicy(), 3, time.Second, nil)

	outcome := c.Deliver(context.Background(), &domain.ProviderRequest{Path: "/x"})

	if outcome.Kind != domain.OutcomeDelivered {
		t.Fatalf("expected delivered, got %s (%s)", outcome.Kind, outcome.Reason)
	}
	if p.calls != 1 {
		t.Errorf("expected 1 call, got %d", p.calls)
	}
	if len(outcome.Attempts) != 1 || !outcome.Attempts[0].Success {
		t.Errorf("expected one successful attempt, got %+v", outcome.Attempts)
	}
	if outcome.CorrelationID == "" {
		t.Error("expected a correlation id")
	}
}

func TestDeliver_RetriesThenSucceeds(t *testing.T) {
	p := &scriptedProvider{responses: []any{
		&domain.StatusError{StatusCode: 503},
		&domain.StatusError{StatusCode: 503},
		&domain.ProviderResponse{StatusCode: 200, Summary: "ok"},
	}}
	c := NewClient(p, fastPolicy(), 3, time.Second, nil)

	outcome := c.Deliver(context.Background(), &domain.ProviderRequest{Path: "/x"})

	if outcome.Kind != domain.OutcomeDelivered {
		t.Fatalf("expected delivered, got %s", outcome.Kind)
	}
	if p.calls != 3 {
		t.Errorf("expected 3 calls, got %d", p.calls)
	}
	if len(outcome.Attempts) != 3 {
		t.Fatalf("expected 3 attempt records, got %d", len(outcome.Attempts))
	}
	if outcome.Attempts[0].ClassifiedAs != domain.FailureRetryable {
		t.Errorf("first attempt should classify retryable, got %s", outcome.Attempts[0].ClassifiedAs)
	}
}

func TestDeliver_ExhaustedAfterMaxAttempts(t *testing.T) {
	p := &scriptedProvider{responses: []any{
		&domain.StatusError{StatusCode: 500},
		&domain.StatusError{StatusCode: 500},
		&domain.StatusError{StatusCode: 500},
		&domain.StatusError{StatusCode: 500},
	}}
	c := NewClient(p, fastPolicy(), 3, time.Second, nil)

	outcome := c.Deliver(context.Background(), &domain.ProviderRequest{Path: "/x"})

	if outcome.Kind != domain.OutcomeExhausted {
		t.Fatalf("expected exhausted, got %s", outcome.Kind)
	}
	if p.calls != 3 {
		t.Errorf("expected exactly 3 calls, got %d", p.calls)
	}
	if len(outcome.Attempts) != 3 {
		t.Errorf("expected 3 attempt records, got %d", len(outcome.Attempts))
	}
}

func TestDeliver_PermanentShortCircuits(t *testing.T) {
	p := &scriptedProvider{responses: []any{
		&domain.StatusError{StatusCode: 404},
	}}
	c := NewClient(p, BackoffPolicy{Base: time.Hour, Cap: time.Hour}, 5, time.Second, nil)

	start := time.Now()
	outcome := c.Deliver(context.Background(), &domain.ProviderRequest{Path: "/x"})

	if outcome.Kind != domain.OutcomePermanentFailure {
		t.Fatalf("expected permanent failure, got %s", outcome.Kind)
	}
	if p.calls != 1 {
		t.Errorf("expected exactly 1 call, got %d", p.calls)
	}
	// A 1h backoff policy proves no wait happened before returning.
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("permanent failure waited %s before returning", elapsed)
	}
}

func TestDeliver_CancelDuringBackoff(t *testing.T) {
	p := &scriptedProvider{responses: []any{
		&domain.StatusError{StatusCode: 503},
		&domain.StatusError{StatusCode: 503},
	}}
	c := NewClient(p, BackoffPolicy{Base: time.Hour, Cap: time.Hour}, 3, time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	outcome := c.Deliver(ctx, &domain.ProviderRequest{Path: "/x"})

	if outcome.Kind != domain.OutcomeExhausted {
		t.Fatalf("expected exhausted on cancellation, got %s", outcome.Kind)
	}
	if p.calls != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", p.calls)
	}
}

func TestDeliver_SharedCorrelationAcrossAttempts(t *testing.T) {
	p := &scriptedProvider{responses: []any{
		&domain.StatusError{StatusCode: 502},
		&domain.ProviderResponse{StatusCode: 200, Summary: "ok"},
	}}
	c := NewClient(p, fastPolicy(), 3, time.Second, nil)

	first := c.Deliver(context.Background(), &domain.ProviderRequest{Path: "/x"})
	second := c.Deliver(context.Background(), &domain.ProviderRequest{Path: "/x"})

	if first.CorrelationID == second.CorrelationID {
		t.Error("correlation ids must differ between invocations")
	}
}
