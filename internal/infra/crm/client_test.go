package crm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vietddude/crmsync/internal/core/domain"
)

func TestSend_Success(t *testing.T) {
	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, _ := r.BasicAuth()
		gotAuth = user + ":" + pass
		var buf [64]byte
		n, _ := r.Body.Read(buf[:])
		gotBody = string(buf[:n])
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "admin", "pw", 5*time.Second)
	resp, err := c.Send(context.Background(), &domain.ProviderRequest{
		Path: "/api/now/table/incident",
		Body: json.RawMessage(`{"short_description":"k"}`),
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if resp.StatusCode != 201 {
		t.Errorf("expected 201, got %d", resp.StatusCode)
	}
	if gotAuth != "admin:pw" {
		t.Errorf("basic auth not sent, got %q", gotAuth)
	}
	if gotBody != `{"short_description":"k"}` {
		t.Errorf("wrong body: %s", gotBody)
	}
}

func TestSend_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such table", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "", 5*time.Second)
	_, err := c.Send(context.Background(), &domain.ProviderRequest{Path: "/x"})

	var statusErr *domain.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %T: %v", err, err)
	}
	if statusErr.StatusCode != 404 {
		t.Errorf("expected 404, got %d", statusErr.StatusCode)
	}
	if statusErr.Body != "no such table" {
		t.Errorf("expected body captured, got %q", statusErr.Body)
	}
}

func TestSend_RateLimitCarriesRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "", 5*time.Second)
	_, err := c.Send(context.Background(), &domain.ProviderRequest{Path: "/x"})

	var statusErr *domain.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %T", err)
	}
	if statusErr.RetryAfter != "30" {
		t.Errorf("expected Retry-After 30, got %q", statusErr.RetryAfter)
	}
}

func TestSend_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	c := NewClient(srv.URL, "", "", time.Second)
	_, err := c.Send(context.Background(), &domain.ProviderRequest{Path: "/x"})

	var transportErr *domain.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
}
