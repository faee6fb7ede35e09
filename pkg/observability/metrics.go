// Package observability exposes Prometheus collectors for the chat proxy.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the proxy's collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry       *prometheus.Registry
	ChatRequests   *prometheus.CounterVec
	ChatDuration   *prometheus.HistogramVec
	Attempts       *prometheus.CounterVec
	SourceLookups  *prometheus.CounterVec
	RateWindowUsed prometheus.Gauge
}

// NewMetrics constructs a registry with the proxy collectors plus the
// standard Go and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	reqs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cascade_chat_requests_total",
		Help: "Chat requests by final outcome",
	}, []string{"outcome"})

	durs := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cascade_chat_duration_seconds",
		Help:    "End-to-end chat request duration in seconds",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"outcome"})

	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cascade_upstream_attempts_total",
		Help: "Upstream model attempts by model and result",
	}, []string{"model", "result"})

	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cascade_source_lookups_total",
		Help: "Cascade list lookups by origin",
	}, []string{"origin"})

	window := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cascade_rate_window_used",
		Help: "Successful completions inside the current admission window",
	})

	reg.MustRegister(
		reqs, durs, attempts, lookups, window,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		registry:       reg,
		ChatRequests:   reqs,
		ChatDuration:   durs,
		Attempts:       attempts,
		SourceLookups:  lookups,
		RateWindowUsed: window,
	}
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordChat records a finished chat request.
func (m *Metrics) RecordChat(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.ChatRequests.WithLabelValues(outcome).Inc()
	m.ChatDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordAttempt counts one model attempt or skip.
func (m *Metrics) RecordAttempt(model, result string) {
	if m == nil {
		return
	}
	if model == "" {
		model = "unknown"
	}
	m.Attempts.WithLabelValues(model, result).Inc()
}

// RecordLookup counts a cascade list lookup.
func (m *Metrics) RecordLookup(origin string) {
	if m == nil {
		return
	}
	m.SourceLookups.WithLabelValues(origin).Inc()
}

// SetWindowUsed publishes the admission window occupancy.
func (m *Metrics) SetWindowUsed(n int) {
	if m == nil {
		return
	}
	m.RateWindowUsed.Set(float64(n))
}
