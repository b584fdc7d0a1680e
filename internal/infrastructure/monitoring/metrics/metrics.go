// Package metrics registers the gateway's Prometheus collectors.  One Metrics
// value is constructed at startup and injected into the components that emit
// measurements; handlers expose the registry at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds every collector the gateway emits.
type Metrics struct {
	Registry *prometheus.Registry

	// Orchestration.
	FetchesTotal      *prometheus.CounterVec // channel, mode, outcome
	FetchDuration     *prometheus.HistogramVec
	CacheHitsTotal    *prometheus.CounterVec // channel
	CacheMissesTotal  *prometheus.CounterVec // channel
	CacheEntries      *prometheus.GaugeVec   // channel
	DebounceCollapsed prometheus.Counter
	InFlightSkips     *prometheus.CounterVec // channel, mode

	// Sessions.
	ActiveSessions prometheus.Gauge

	// HTTP surface.
	HTTPRequestsTotal   *prometheus.CounterVec // method, path, status
	HTTPRequestDuration *prometheus.HistogramVec
}

var fetchDurationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// New constructs and registers all gateway collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		Registry: reg,
		FetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tradepulse",
			Name:      "fetches_total",
			Help:      "Backend fetches by channel, mode, and outcome (issued|hit|canceled|error|ok).",
		}, []string{"channel", "mode", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tradepulse",
			Name:      "fetch_duration_seconds",
			Help:      "Latency of backend fetches that went to the network.",
			Buckets:   fetchDurationBuckets,
		}, []string{"channel", "mode"}),
		CacheHitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tradepulse",
			Name:      "result_cache_hits_total",
			Help:      "Result-cache lookups that short-circuited a fetch.",
		}, []string{"channel"}),
		CacheMissesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tradepulse",
			Name:      "result_cache_misses_total",
			Help:      "Result-cache lookups that fell through to the network.",
		}, []string{"channel"}),
		CacheEntries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "tradepulse",
			Name:      "result_cache_entries",
			Help:      "Entries currently held per channel namespace.",
		}, []string{"channel"}),
		DebounceCollapsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tradepulse",
			Name:      "debounce_collapsed_total",
			Help:      "Filter changes absorbed by the trailing-edge debounce instead of firing a final fetch.",
		}),
		InFlightSkips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tradepulse",
			Name:      "inflight_skips_total",
			Help:      "Fetches suppressed because the same key was already issued on the slot.",
		}, []string{"channel", "mode"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tradepulse",
			Name:      "active_sessions",
			Help:      "Dashboard sessions currently open.",
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tradepulse",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route, and status.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tradepulse",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   fetchDurationBuckets,
		}, []string{"method", "path"}),
	}

	reg.MustRegister(
		m.FetchesTotal,
		m.FetchDuration,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CacheEntries,
		m.DebounceCollapsed,
		m.InFlightSkips,
		m.ActiveSessions,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)
	return m
}
