// Package session implements the Session & Activity Engine (C4): a
// session-first gate in front of every non-exempt command, with sliding
// expiry driven by activity.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arbedge/arbedge-core/internal/apperrors"
	"github.com/arbedge/arbedge-core/internal/kv"
)

// DefaultTTL is the session validity window, extended on every touch.
const DefaultTTL = 7 * 24 * time.Hour

// Session is the persisted lifecycle record for one user.
type Session struct {
	Owner          string    `json:"owner"`
	ChatID         string    `json:"chat_id"`
	StartedAt      time.Time `json:"started_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// ExemptCommands lists commands that never require an active session.
var ExemptCommands = map[string]bool{
	"help":  true,
	"start": true,
}

// Clock abstracts time.Now for deterministic tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Engine implements start/validate/touch/active_count against an
// externalized KV store, keyed at session/{user}.
type Engine struct {
	store kv.Store
	ttl   time.Duration
	clock Clock
}

// New creates an Engine with the default session TTL and system clock.
func New(store kv.Store) *Engine {
	return &Engine{store: store, ttl: DefaultTTL, clock: systemClock{}}
}

// WithClock overrides the Engine's clock, for deterministic tests.
func (e *Engine) WithClock(c Clock) *Engine {
	e.clock = c
	return e
}

// WithTTL overrides the session TTL.
func (e *Engine) WithTTL(ttl time.Duration) *Engine {
	e.ttl = ttl
	return e
}

func sessionKey(owner string) string { return fmt.Sprintf("session/%s", owner) }

// Start creates or refreshes owner's session, setting last_activity_at to
// now and expires_at to now+TTL.
func (e *Engine) Start(ctx context.Context, owner, chatID string) (*Session, error) {
	now := e.clock.Now()
	s := &Session{
		Owner:          owner,
		ChatID:         chatID,
		StartedAt:      now,
		LastActivityAt: now,
		ExpiresAt:      now.Add(e.ttl),
	}
	if err := e.put(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate reports whether owner holds an active, unexpired session.
func (e *Engine) Validate(ctx context.Context, owner string) (bool, error) {
	s, found, err := e.get(ctx, owner)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	return e.clock.Now().Before(s.ExpiresAt), nil
}

// Touch extends owner's session activity and expiry. Extensions are
// monotonic: a touch computed from a stale read never shortens expiry,
// since the new expiry is always now+TTL and now only advances.
func (e *Engine) Touch(ctx context.Context, owner string) error {
	s, found, err := e.get(ctx, owner)
	if err != nil {
		return err
	}
	if !found {
		return apperrors.SessionRequired()
	}

	now := e.clock.Now()
	newExpiry := now.Add(e.ttl)
	if newExpiry.Before(s.ExpiresAt) {
		// A delayed touch should never shorten expiry.
		newExpiry = s.ExpiresAt
	}
	s.LastActivityAt = now
	s.ExpiresAt = newExpiry
	return e.put(ctx, s)
}

// RequireActive validates owner's session and, for commands outside the
// exempt set, returns SessionRequired if absent or expired. It performs no
// state mutation on denial.
func (e *Engine) RequireActive(ctx context.Context, owner, command string) error {
	if ExemptCommands[command] {
		return nil
	}
	ok, err := e.Validate(ctx, owner)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.SessionRequired()
	}
	return nil
}

func (e *Engine) get(ctx context.Context, owner string) (*Session, bool, error) {
	raw, found, err := e.store.Get(ctx, sessionKey(owner))
	if err != nil {
		return nil, false, apperrors.Wrap(apperrors.KindStorage, err, "get session")
	}
	if !found {
		return nil, false, nil
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false, apperrors.Wrap(apperrors.KindInternal, err, "unmarshal session")
	}
	return &s, true, nil
}

func (e *Engine) put(ctx context.Context, s *Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, err, "marshal session")
	}
	ttl := s.ExpiresAt.Sub(e.clock.Now())
	if ttl <= 0 {
		ttl = time.Second // already expired; persist briefly so reads observe it as such
	}
	if err := e.store.Set(ctx, sessionKey(s.Owner), raw, ttl); err != nil {
		return apperrors.Wrap(apperrors.KindStorage, err, "put session")
	}
	return nil
}
