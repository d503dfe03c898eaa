package enrichment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arbedge/arbedge-core/internal/vault"
)

func TestDispatchOpenAI_ParsesChoiceContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("expected bearer auth header, got %q", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "volatile market, high risk"}},
			},
		})
	}))
	defer server.Close()

	cred := vault.Decrypted{
		Handle:    vault.Handle{Provider: vault.ProviderOpenAI, Metadata: vault.Metadata{BaseURL: server.URL}},
		Plaintext: "secret",
	}
	resp, err := dispatch(context.Background(), server.Client(), cred, analysisRequest{Prompt: "x"})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if resp.Analysis != "volatile market, high risk" {
		t.Errorf("unexpected analysis: %q", resp.Analysis)
	}
	if resp.RiskScore == nil || *resp.RiskScore != 0.85 {
		t.Errorf("expected extracted high-risk score 0.85, got %v", resp.RiskScore)
	}
}

func TestDispatchAnthropic_ParsesContentBlocks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "secret" {
			t.Errorf("expected x-api-key header, got %q", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"content": []map[string]interface{}{
				{"text": "stable conditions, safe"},
			},
		})
	}))
	defer server.Close()

	cred := vault.Decrypted{
		Handle:    vault.Handle{Provider: vault.ProviderAnthropic, Metadata: vault.Metadata{BaseURL: server.URL}},
		Plaintext: "secret",
	}
	resp, err := dispatch(context.Background(), server.Client(), cred, analysisRequest{Prompt: "x"})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if resp.Analysis != "stable conditions, safe" {
		t.Errorf("unexpected analysis: %q", resp.Analysis)
	}
}

func TestDispatchCustom_RequiresBaseURL(t *testing.T) {
	cred := vault.Decrypted{Handle: vault.Handle{Provider: vault.ProviderCustom}}
	_, err := dispatch(context.Background(), http.DefaultClient, cred, analysisRequest{Prompt: "x"})
	if err == nil {
		t.Fatal("expected an error when a custom provider has no base_url")
	}
}

func TestDispatch_NonAIProviderIsValidationError(t *testing.T) {
	cred := vault.Decrypted{Handle: vault.Handle{Provider: vault.ProviderExchange}}
	_, err := dispatch(context.Background(), http.DefaultClient, cred, analysisRequest{Prompt: "x"})
	if err == nil {
		t.Fatal("expected an error for a non-AI provider")
	}
}

func TestDispatch_NonOKStatusIsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer server.Close()

	cred := vault.Decrypted{
		Handle:    vault.Handle{Provider: vault.ProviderOpenAI, Metadata: vault.Metadata{BaseURL: server.URL}},
		Plaintext: "secret",
	}
	_, err := dispatch(context.Background(), server.Client(), cred, analysisRequest{Prompt: "x"})
	if err == nil {
		t.Fatal("expected an API error for a non-2xx response")
	}
}
