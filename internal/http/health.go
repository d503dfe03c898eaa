package http

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker probes one dependency (KV store, database, provider) and
// reports its reachability. Implementations must return quickly (the
// handler gives each check a bounded context) rather than block.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

// HealthHandler aggregates a set of HealthCheckers into a single
// HealthResponse. Any single checker failing degrades overall status
// without failing the HTTP response itself (health is informational, not
// a gate).
type HealthHandler struct {
	version  string
	checkers []HealthChecker
	timeout  time.Duration
}

// NewHealthHandler builds a HealthHandler polling checkers with a 5s
// per-check budget, matching the spec's cache/KV timeout.
func NewHealthHandler(version string, checkers ...HealthChecker) *HealthHandler {
	return &HealthHandler{version: version, checkers: checkers, timeout: 5 * time.Second}
}

// WithTimeout overrides the per-checker budget.
func (h *HealthHandler) WithTimeout(d time.Duration) *HealthHandler {
	if d > 0 {
		h.timeout = d
	}
	return h
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	components := make(map[string]Component, len(h.checkers))
	status := "healthy"

	for _, c := range h.checkers {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		err := c.Check(ctx)
		cancel()

		if err != nil {
			components[c.Name()] = Component{Name: c.Name(), Status: "down", Message: err.Error()}
			status = "degraded"
			continue
		}
		components[c.Name()] = Component{Name: c.Name(), Status: "healthy"}
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:     status,
		Timestamp:  time.Now().UTC(),
		Version:    h.version,
		Components: components,
	})
}
