// Package observability exposes Prometheus instrumentation for the
// reasoning engine. All methods are nil-safe so instrumentation stays
// optional at every call site.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics aggregates the engine's instrumentation.
type Metrics struct {
	registry *prometheus.Registry

	transitions      *prometheus.CounterVec
	providerDuration prometheus.Histogram
	runsInFlight     prometheus.Gauge
}

// New creates a Metrics backed by its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dossier",
			Name:      "transitions_total",
			Help:      "Transition attempts by target state and outcome.",
		}, []string{"to_state", "outcome"}),
		providerDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dossier",
			Name:      "provider_call_duration_seconds",
			Help:      "Latency of reasoning provider calls.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		runsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "dossier",
			Name:      "full_runs_in_flight",
			Help:      "Full reasoning runs currently executing.",
		}),
	}
}

// ObserveTransition records one transition attempt.
func (m *Metrics) ObserveTransition(toState, outcome string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(toState, outcome).Inc()
}

// ObserveProviderCall records the latency of one provider invocation.
func (m *Metrics) ObserveProviderCall(d time.Duration) {
	if m == nil {
		return
	}
	m.providerDuration.Observe(d.Seconds())
}

// RunStarted marks a full reasoning run as in flight.
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.runsInFlight.Inc()
}

// RunFinished marks a full reasoning run as done.
func (m *Metrics) RunFinished() {
	if m == nil {
		return
	}
	m.runsInFlight.Dec()
}

// Handler serves the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for test scraping.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
