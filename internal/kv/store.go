// Package kv defines the externalized key-value store every core component
// reads and writes through. Per the concurrency model, no component holds
// shared mutable in-process state beyond immutable configuration; session,
// credential, rate, and cache data all live behind this interface so that
// many isolates can run in parallel against the same backing store.
package kv

import (
	"context"
	"time"
)

// Store is the minimal KV contract the core depends on. Values are opaque
// byte slices; callers own JSON (de)serialization so this package stays
// agnostic of every keyspace's schema.
type Store interface {
	// Get returns the value for key, and found=false if it does not exist
	// or has expired.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set writes value for key with the given TTL. ttl<=0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Incr atomically increments the integer stored at key by delta,
	// creating it at delta with the given ttl if absent, and returns the
	// new value. Used by the Rate-Limit Governor's fixed-window counters.
	Incr(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)

	// SetNX writes value for key only if it does not already exist,
	// returning ok=false if a value was already present. Used by the
	// distribution engine's idempotency guard.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (ok bool, err error)
}
