package enrichment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/arbedge/arbedge-core/internal/governor"
	"github.com/arbedge/arbedge-core/internal/kv"
	"github.com/arbedge/arbedge-core/internal/vault"
)

type fakeCredentials struct {
	cred *vault.Decrypted
	err  error
}

func (f fakeCredentials) GetActive(context.Context, string, vault.ProviderKind, string) (*vault.Decrypted, error) {
	return f.cred, f.err
}

type fakeLimiter struct {
	decision governor.Decision
	calls    int
}

func (f *fakeLimiter) TryConsume(context.Context, governor.Scope) (governor.Decision, error) {
	f.calls++
	return f.decision, nil
}

func customCredential(baseURL string) *vault.Decrypted {
	return &vault.Decrypted{
		Handle: vault.Handle{
			Provider: vault.ProviderCustom,
			Metadata: vault.Metadata{BaseURL: baseURL},
		},
		Plaintext: "test-key",
	}
}

func TestEnhance_CallsProviderAndCachesResult(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"response":   "the market looks stable, low risk, excellent timing",
			"confidence": 0.9,
		})
	}))
	defer server.Close()

	ctx := context.Background()
	cache := kv.NewMemoryStore()
	limiter := &fakeLimiter{decision: governor.Admitted}
	engine := New(fakeCredentials{cred: customCredential(server.URL)}, limiter, cache, nil, server.Client(), nil, zerolog.Nop())

	o := OpportunitySnapshot{ID: "opp-1", Pair: "BTCUSDT", LongVenue: "binance", ShortVenue: "bybit", Risk: "medium"}
	got, err := engine.Enhance(ctx, "user-1", o)
	if err != nil {
		t.Fatalf("Enhance failed: %v", err)
	}
	if got.Confidence != 0.9 {
		t.Errorf("expected provider-supplied confidence 0.9, got %v", got.Confidence)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one provider call, got %d", calls)
	}

	// Second call should be served from cache, no additional provider call.
	got2, err := engine.Enhance(ctx, "user-1", o)
	if err != nil {
		t.Fatalf("second Enhance failed: %v", err)
	}
	if got2.OpportunityID != got.OpportunityID {
		t.Fatal("expected the cached enhancement to match")
	}
	if calls != 1 {
		t.Fatalf("expected the cached path to skip a second provider call, got %d calls", calls)
	}
	if limiter.calls != 1 {
		t.Fatalf("expected the cached path to skip the rate limiter too, got %d calls", limiter.calls)
	}
}

func TestEnhance_RateLimitedSkipsProviderCall(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	ctx := context.Background()
	cache := kv.NewMemoryStore()
	limiter := &fakeLimiter{decision: governor.Limited}
	engine := New(fakeCredentials{cred: customCredential(server.URL)}, limiter, cache, nil, server.Client(), nil, zerolog.Nop())

	_, err := engine.Enhance(ctx, "user-2", OpportunitySnapshot{ID: "opp-2"})
	if err == nil {
		t.Fatal("expected a rate-limited error")
	}
	if calls != 0 {
		t.Fatalf("expected no provider call when rate-limited, got %d", calls)
	}
}
