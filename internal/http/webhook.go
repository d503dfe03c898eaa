package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// Router dispatches one parsed chat command to the core and returns the
// text reply to send back (delivery itself is out of this handler's
// scope; a Sender elsewhere owns the outbound call). Router never returns
// a transport-fatal error: internal failures are logged and surfaced as a
// textual reply instead, per the webhook's graceful-200 contract.
type Router interface {
	Route(ctx context.Context, chatID, userID int64, chatKind, text string) (reply string, err error)
}

// WebhookHandler is the total, never-non-2xx inbound transport for chat
// platform events, per the design note on exception-style graceful
// webhook handling.
type WebhookHandler struct {
	router  Router
	metrics *MetricsRegistry
	log     zerolog.Logger
}

// NewWebhookHandler builds a WebhookHandler.
func NewWebhookHandler(router Router, metrics *MetricsRegistry, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{router: router, metrics: metrics, log: log.With().Str("component", "webhook_handler").Logger()}
}

func chatKindOf(t string) string {
	switch t {
	case "private", "group", "supergroup", "channel":
		return t
	default:
		return "private"
	}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var event InboundEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		// Malformed inbound events yield a benign success, never a retry
		// trigger, per §6.
		h.log.Warn().Err(err).Msg("malformed webhook payload, acking anyway")
		writeJSON(w, http.StatusOK, WebhookAck{OK: true})
		return
	}

	chatID, userID, kind, text, ok := extract(event)
	if !ok {
		writeJSON(w, http.StatusOK, WebhookAck{OK: true})
		return
	}

	if h.metrics != nil {
		h.metrics.WebhookRequests.WithLabelValues(kind).Inc()
	}

	if _, err := h.router.Route(r.Context(), chatID, userID, kind, text); err != nil {
		h.log.Warn().Err(err).Int64("chat_id", chatID).Msg("command routing failed")
	}

	writeJSON(w, http.StatusOK, WebhookAck{OK: true})
}

func extract(event InboundEvent) (chatID, userID int64, kind, text string, ok bool) {
	if event.Message != nil {
		chatID = event.Message.Chat.ID
		kind = chatKindOf(event.Message.Chat.Type)
		text = event.Message.Text
		if event.Message.From != nil {
			userID = event.Message.From.ID
		}
		return chatID, userID, kind, text, true
	}
	if event.CallbackQuery != nil {
		if event.CallbackQuery.From != nil {
			userID = event.CallbackQuery.From.ID
		}
		return userID, userID, "private", event.CallbackQuery.Data, true
	}
	return 0, 0, "", "", false
}
