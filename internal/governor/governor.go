// Package governor implements the Rate-Limit Governor (C5): fixed-window
// counter accounting per (scope, subject), materialized in the externalized
// KV store at rate/{scope}/{bucket}. This is a distinct concern from
// internal/net/ratelimit's token-bucket limiter, which throttles this
// process's own outbound HTTP calls to upstream venues; the Governor
// accounts for admission decisions that must agree across every isolate.
package governor

import (
	"context"
	"fmt"
	"time"

	"github.com/arbedge/arbedge-core/internal/apperrors"
	"github.com/arbedge/arbedge-core/internal/kv"
)

// Decision is the outcome of a TryConsume call.
type Decision string

const (
	Admitted Decision = "admitted"
	Limited  Decision = "limited"
)

// Scope describes one fixed-window limit to enforce: Key identifies the
// subject (e.g. "ai/7" or "group/55/opps"), Limit is the max admits per
// Window, and Window determines the bucket granularity (e.g. time.Hour
// buckets by hours since the Unix epoch, time.Hour*24 by days since it).
type Scope struct {
	Key    string
	Limit  int64
	Window time.Duration
}

// Governor enforces one or more Scopes against an externalized KV store.
type Governor struct {
	store kv.Store
	clock func() time.Time
}

// New creates a Governor backed by store.
func New(store kv.Store) *Governor {
	return &Governor{store: store, clock: func() time.Time { return time.Now().UTC() }}
}

// WithClock overrides the Governor's time source for deterministic tests.
func (g *Governor) WithClock(clock func() time.Time) *Governor {
	g.clock = clock
	return g
}

// bucket derives the current window bucket identifier for the given window
// size: the number of whole windows elapsed since the Unix epoch, which is
// stable across processes sharing the same clock.
func (g *Governor) bucket(window time.Duration) string {
	n := g.clock().Unix() / int64(window.Seconds())
	return fmt.Sprintf("%d", n)
}

func rateKey(scopeKey, bucket string) string {
	return fmt.Sprintf("rate/%s/%s", scopeKey, bucket)
}

// TryConsume admits or denies one unit of usage against a single scope. On
// admit, the counter is incremented; on overflow, the increment is not
// visible to other scopes (TryConsumeAll rolls back any scopes it already
// incremented before hitting a denying one).
func (g *Governor) TryConsume(ctx context.Context, scope Scope) (Decision, error) {
	bucket := g.bucket(scope.Window)
	key := rateKey(scope.Key, bucket)

	count, err := g.store.Incr(ctx, key, 1, scope.Window+scope.Window/10)
	if err != nil {
		return Limited, apperrors.Wrap(apperrors.KindStorage, err, "increment rate counter")
	}
	if count > scope.Limit {
		// Roll back: this increment pushed us over, so the stored counter
		// is returned to its previous value and never exceeds the limit.
		if _, err := g.store.Incr(ctx, key, -1, scope.Window+scope.Window/10); err != nil {
			return Limited, apperrors.Wrap(apperrors.KindStorage, err, "roll back rate counter")
		}
		return Limited, nil
	}
	return Admitted, nil
}

// TryConsumeAll admits only if every scope admits; on the first denying
// scope it stops and returns that scope's key for diagnostics, without
// consuming the remaining scopes.
func (g *Governor) TryConsumeAll(ctx context.Context, scopes ...Scope) (Decision, string, error) {
	for i, s := range scopes {
		decision, err := g.TryConsume(ctx, s)
		if err != nil {
			return Limited, s.Key, err
		}
		if decision == Limited {
			// Roll back the scopes already admitted by this call.
			for _, prev := range scopes[:i] {
				_, _ = g.store.Incr(ctx, rateKey(prev.Key, g.bucket(prev.Window)), -1, prev.Window+prev.Window/10)
			}
			return Limited, s.Key, nil
		}
	}
	return Admitted, "", nil
}

// Peek reports the current usage and limit for scope without consuming.
func (g *Governor) Peek(ctx context.Context, scope Scope) (used int64, limit int64, err error) {
	bucket := g.bucket(scope.Window)
	key := rateKey(scope.Key, bucket)

	raw, found, err := g.store.Get(ctx, key)
	if err != nil {
		return 0, scope.Limit, apperrors.Wrap(apperrors.KindStorage, err, "get rate counter")
	}
	if !found {
		return 0, scope.Limit, nil
	}
	var n int64
	fmt.Sscanf(string(raw), "%d", &n)
	return n, scope.Limit, nil
}
