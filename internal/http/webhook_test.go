package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

type fakeRouter struct {
	lastChatID int64
	lastKind   string
	lastText   string
}

func (f *fakeRouter) Route(_ context.Context, chatID, _ int64, chatKind, text string) (string, error) {
	f.lastChatID = chatID
	f.lastKind = chatKind
	f.lastText = text
	return "ok", nil
}

func TestWebhookHandler_AlwaysAcksWellFormedEvent(t *testing.T) {
	router := &fakeRouter{}
	metrics := NewMetricsRegistry()
	handler := NewWebhookHandler(router, metrics, zerolog.Nop())

	event := InboundEvent{
		UpdateID: 1,
		Message: &InboundChat{
			Chat: ChatRef{ID: 55, Type: "private"},
			From: &UserRef{ID: 42},
			Text: "/start",
		},
	}
	body, _ := json.Marshal(event)

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if router.lastChatID != 55 || router.lastKind != "private" || router.lastText != "/start" {
		t.Errorf("unexpected extracted fields: %+v", router)
	}
}

func TestWebhookHandler_MalformedPayloadStillAcks(t *testing.T) {
	router := &fakeRouter{}
	handler := NewWebhookHandler(router, nil, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for a malformed payload, got %d", rec.Code)
	}
}

type fakeHealthChecker struct {
	name string
	err  error
}

func (f fakeHealthChecker) Name() string                       { return f.name }
func (f fakeHealthChecker) Check(context.Context) error { return f.err }

func TestHealthHandler_DegradesOnFailingChecker(t *testing.T) {
	handler := NewHealthHandler("test", fakeHealthChecker{name: "kv", err: nil}, fakeHealthChecker{name: "db", err: context.DeadlineExceeded})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp.Status != "degraded" {
		t.Errorf("expected degraded status, got %q", resp.Status)
	}
	if resp.Components["db"].Status != "down" {
		t.Errorf("expected db component down, got %+v", resp.Components["db"])
	}
}
