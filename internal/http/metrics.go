package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsRegistry holds the Prometheus metrics exported by this core,
// following the teacher's per-concern HistogramVec/CounterVec/Gauge
// layout (internal/interfaces/http/metrics.go), re-scoped to distribution,
// enrichment, and webhook concerns.
type MetricsRegistry struct {
	registry *prometheus.Registry

	DistributionDecisions *prometheus.CounterVec
	DistributionLatency   *prometheus.HistogramVec

	EnrichmentCalls   *prometheus.CounterVec
	EnrichmentLatency prometheus.Histogram
	EnrichmentCacheHitRatio prometheus.Gauge

	WebhookRequests *prometheus.CounterVec

	RateLimitDenials *prometheus.CounterVec
}

// NewMetricsRegistry builds and registers every metric on a fresh
// Prometheus registry (not the global default, so tests can construct as
// many instances as they need without collector-already-registered
// panics).
func NewMetricsRegistry() *MetricsRegistry {
	reg := prometheus.NewRegistry()

	m := &MetricsRegistry{
		registry: reg,

		DistributionDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbedge_distribution_decisions_total",
				Help: "Total distribution decisions by outcome.",
			},
			[]string{"decision"},
		),
		DistributionLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arbedge_distribution_latency_seconds",
				Help:    "Per-recipient distribution evaluation latency.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"decision"},
		),

		EnrichmentCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbedge_enrichment_calls_total",
				Help: "Total AI enrichment calls by provider and outcome.",
			},
			[]string{"provider", "outcome"},
		),
		EnrichmentLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "arbedge_enrichment_latency_seconds",
				Help:    "AI provider round-trip latency.",
				Buckets: prometheus.DefBuckets,
			},
		),
		EnrichmentCacheHitRatio: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "arbedge_enrichment_cache_hit_ratio",
				Help: "Rolling enrichment cache hit ratio.",
			},
		),

		WebhookRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbedge_webhook_requests_total",
				Help: "Total inbound webhook deliveries by chat kind.",
			},
			[]string{"chat_kind"},
		),

		RateLimitDenials: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbedge_rate_limit_denials_total",
				Help: "Total rate-limit denials by scope.",
			},
			[]string{"scope"},
		),
	}

	reg.MustRegister(
		m.DistributionDecisions,
		m.DistributionLatency,
		m.EnrichmentCalls,
		m.EnrichmentLatency,
		m.EnrichmentCacheHitRatio,
		m.WebhookRequests,
		m.RateLimitDenials,
	)
	return m
}

// Handler exposes the registry in Prometheus text exposition format.
func (m *MetricsRegistry) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
