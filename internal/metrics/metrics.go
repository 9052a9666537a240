// Package metrics exposes the Prometheus instruments the services record
// into and a handler for the /metrics endpoint.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the app's instruments on one registry so tests can use
// isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	// ImportsTotal counts imports by outcome: success, partial,
	// incompatible, needs_resolution.
	ImportsTotal *prometheus.CounterVec

	// ImportedItemsTotal counts records added by imports, by category.
	ImportedItemsTotal *prometheus.CounterVec

	// ReconcilesTotal counts friend-roster reconciliations, labeled by
	// whether the cool-down let them run.
	ReconcilesTotal *prometheus.CounterVec

	// LinkFailuresTotal counts recorded account-link failures.
	LinkFailuresTotal prometheus.Counter

	// RequestDuration observes HTTP handler latency.
	RequestDuration *prometheus.HistogramVec
}

// New creates a Metrics bundle on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ImportsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "payback_imports_total",
			Help: "Legacy imports processed, by outcome.",
		}, []string{"outcome"}),
		ImportedItemsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "payback_imported_items_total",
			Help: "Records added by legacy imports, by category.",
		}, []string{"category"}),
		ReconcilesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "payback_friend_reconciles_total",
			Help: "Friend roster reconciliations, by gate decision.",
		}, []string{"ran"}),
		LinkFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "payback_link_failures_total",
			Help: "Recorded account-link failures.",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "payback_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
}

// Handler serves the registry for Prometheus scrapes.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
