package client

import (
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// AIBreakerConfig tunes the per-host circuit breaker an AIBreakerTransport
// builds lazily for each AI provider endpoint it sees.
type AIBreakerConfig struct {
	MaxHalfOpenRequests uint32
	OpenTimeout         time.Duration
	ConsecutiveFailures uint32
}

// DefaultAIBreakerConfig matches a conservative third-party-API posture: trip
// after 3 consecutive failures, allow a single half-open probe, and wait 30s
// before probing again.
func DefaultAIBreakerConfig() AIBreakerConfig {
	return AIBreakerConfig{
		MaxHalfOpenRequests: 1,
		OpenTimeout:         30 * time.Second,
		ConsecutiveFailures: 3,
	}
}

// AIBreakerTransport is an http.RoundTripper that keeps one gobreaker
// CircuitBreaker per destination host, so a failing AI provider (OpenAI,
// Anthropic, a self-hosted custom endpoint) stops absorbing request latency
// without affecting the others. The Credential Vault's provider preference
// order already gives the enrichment coordinator its provider fallback; this
// transport only protects against a single provider's outage.
type AIBreakerTransport struct {
	next   http.RoundTripper
	config AIBreakerConfig
	log    zerolog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewAIBreakerTransport wraps next (http.DefaultTransport if nil).
func NewAIBreakerTransport(next http.RoundTripper, config AIBreakerConfig, log zerolog.Logger) *AIBreakerTransport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &AIBreakerTransport{
		next:     next,
		config:   config,
		log:      log.With().Str("component", "ai_breaker_transport").Logger(),
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (t *AIBreakerTransport) breakerFor(host string) *gobreaker.CircuitBreaker {
	t.mu.Lock()
	defer t.mu.Unlock()

	if b, ok := t.breakers[host]; ok {
		return b
	}

	b := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        host,
		MaxRequests: t.config.MaxHalfOpenRequests,
		Timeout:     t.config.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= t.config.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			t.log.Warn().Str("provider_host", name).Str("from", from.String()).Str("to", to.String()).Msg("ai provider circuit state changed")
		},
	})
	t.breakers[host] = b
	return b
}

// RoundTrip executes req through the breaker keyed by req.URL.Host. A tripped
// breaker fails fast with gobreaker.ErrOpenState rather than reaching the
// network.
func (t *AIBreakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	breaker := t.breakerFor(req.URL.Host)
	resp, err := breaker.Execute(func() (interface{}, error) {
		resp, err := t.next.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			// Report the 5xx as a breaker failure while still handing the
			// response, body unread, back to the caller.
			return resp, errServerStatus(resp.StatusCode)
		}
		return resp, nil
	})
	if resp != nil {
		return resp.(*http.Response), nil
	}
	return nil, err
}

type errServerStatus int

func (e errServerStatus) Error() string {
	return http.StatusText(int(e))
}
