package client

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func TestAIBreakerTransport_TripsOnConsecutiveFailures(t *testing.T) {
	failing := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		rec := httptest.NewRecorder()
		rec.WriteHeader(http.StatusInternalServerError)
		return rec.Result(), nil
	})

	cfg := AIBreakerConfig{MaxHalfOpenRequests: 1, OpenTimeout: 50 * time.Millisecond, ConsecutiveFailures: 2}
	transport := NewAIBreakerTransport(failing, cfg, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "https://api.openai.test/v1/chat", nil)

	for i := 0; i < 2; i++ {
		resp, err := transport.RoundTrip(req)
		if err != nil {
			t.Fatalf("expected no transport error on 5xx passthrough, got %v", err)
		}
		if resp.StatusCode != http.StatusInternalServerError {
			t.Fatalf("expected 500 passthrough, got %d", resp.StatusCode)
		}
	}

	if _, err := transport.RoundTrip(req); err == nil {
		t.Fatal("expected the breaker to be open after consecutive 5xx responses")
	}
}

func TestAIBreakerTransport_PerHostIsolation(t *testing.T) {
	cfg := AIBreakerConfig{MaxHalfOpenRequests: 1, OpenTimeout: time.Second, ConsecutiveFailures: 1}
	transport := NewAIBreakerTransport(roundTripFunc(func(req *http.Request) (*http.Response, error) {
		rec := httptest.NewRecorder()
		if req.URL.Host == "api.broken.test" {
			rec.WriteHeader(http.StatusInternalServerError)
		} else {
			rec.WriteHeader(http.StatusOK)
		}
		return rec.Result(), nil
	}), cfg, zerolog.Nop())

	brokenReq := httptest.NewRequest(http.MethodPost, "https://api.broken.test/v1", nil)
	if _, err := transport.RoundTrip(brokenReq); err != nil {
		t.Fatalf("first failing call should pass through: %v", err)
	}
	if _, err := transport.RoundTrip(brokenReq); err == nil {
		t.Fatal("expected broken host's breaker to be open")
	}

	healthyReq := httptest.NewRequest(http.MethodPost, "https://api.healthy.test/v1", nil)
	resp, err := transport.RoundTrip(healthyReq)
	if err != nil {
		t.Fatalf("healthy host should be unaffected by broken host's breaker: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from healthy host, got %d", resp.StatusCode)
	}
}
