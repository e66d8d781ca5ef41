// Package metrics owns the prometheus collectors the service exports at /metrics.
// Every recorder method is safe on a nil *Metrics so callers never guard
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "likert"

// Submission outcomes
const (
	OutcomeAccepted    = "accepted"
	OutcomeInvalid     = "invalid"
	OutcomeStoreFailed = "store_failed"
)

// Cache events
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CachePurge = "purge"
)

// Metrics bundles the collectors registered on a private registry
type Metrics struct {
	reg *prometheus.Registry

	submissions  *prometheus.CounterVec
	storeOps     *prometheus.HistogramVec
	malformed    prometheus.Gauge
	cacheEvents  *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

// New builds Metrics on a fresh registry that also carries the Go runtime and process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg)
}

// NewWithRegistry registers the likert collectors on reg. Panics on duplicate registration
func NewWithRegistry(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		reg: reg,
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Survey submissions by outcome.",
		}, []string{"outcome"}),
		storeOps: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_op_seconds",
			Help:      "Latency of backing store operations.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"driver", "op", "result"}),
		malformed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "malformed_rows",
			Help:      "Rows skipped as malformed on the most recent full read.",
		}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_events_total",
			Help:      "Read cache hits, misses and purges.",
		}, []string{"event"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(m.submissions, m.storeOps, m.malformed, m.cacheEvents, m.httpRequests, m.httpLatency)
	return m
}

// Registry exposes the underlying registry (tests, extra collectors)
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Submission counts one submit attempt
func (m *Metrics) Submission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

// StoreOp observes one store call; result is "ok" or the error code name
func (m *Metrics) StoreOp(driver, op, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.storeOps.WithLabelValues(driver, op, result).Observe(d.Seconds())
}

// Malformed records how many rows the last read skipped
func (m *Metrics) Malformed(n int) {
	if m == nil {
		return
	}
	m.malformed.Set(float64(n))
}

// Cache counts a read cache event
func (m *Metrics) Cache(event string) {
	if m == nil {
		return
	}
	m.cacheEvents.WithLabelValues(event).Inc()
}

// HTTP records one served request. route is the matched pattern, never the raw path
func (m *Metrics) HTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}
