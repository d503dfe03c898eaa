package http

import (
	"context"

	"github.com/arbedge/arbedge-core/internal/kv"
)

// kvHealthCheck probes the shared KV store with a lightweight read.
type kvHealthCheck struct {
	name  string
	store kv.Store
}

// NewKVHealthCheck builds a HealthChecker for a kv.Store, named for the
// backend it fronts (e.g. "redis").
func NewKVHealthCheck(name string, store kv.Store) HealthChecker {
	return kvHealthCheck{name: name, store: store}
}

func (k kvHealthCheck) Name() string { return k.name }

func (k kvHealthCheck) Check(ctx context.Context) error {
	_, _, err := k.store.Get(ctx, "health/ping")
	return err
}
