// Package prometheus exposes the application's operational metrics: how many
// notations were validated and by which engine, depiction render times, cache
// effectiveness, and backend health.  Metrics live on a private registry so
// tests never collide with the global default.
package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Default histogram buckets.
var (
	DefaultDurationBuckets = []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}
	DefaultHTTPBuckets     = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
)

// MetricsConfig tunes the collector.
type MetricsConfig struct {
	Namespace            string `mapstructure:"namespace"`
	EnableProcessMetrics bool   `mapstructure:"enable_process_metrics"`
	EnableGoMetrics      bool   `mapstructure:"enable_go_metrics"`
}

// Metrics holds every metric the application records.
type Metrics struct {
	registry *prometheus.Registry

	// Validation
	ValidationsTotal   *prometheus.CounterVec // engine, outcome
	ValidationDuration *prometheus.HistogramVec
	DegradedTotal      prometheus.Counter

	// Depiction
	DepictionsTotal   *prometheus.CounterVec // format, status
	DepictionDuration *prometheus.HistogramVec

	// Import
	ImportsTotal *prometheus.CounterVec // format, status

	// Backend lifecycle
	BackendState *prometheus.GaugeVec // engine: numeric State value

	// Caching
	CacheHitsTotal   *prometheus.CounterVec // cache
	CacheMissesTotal *prometheus.CounterVec

	// Messaging
	EventsPublishedTotal *prometheus.CounterVec // topic, status

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec // method, path, status_code
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics registers all application metrics under cfg.Namespace.
func NewMetrics(cfg MetricsConfig) *Metrics {
	if cfg.Namespace == "" {
		cfg.Namespace = "chemnote"
	}
	registry := prometheus.NewRegistry()
	if cfg.EnableProcessMetrics {
		registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{
			Namespace: cfg.Namespace,
		}))
	}
	if cfg.EnableGoMetrics {
		registry.MustRegister(prometheus.NewGoCollector())
	}

	ns := cfg.Namespace
	m := &Metrics{registry: registry}

	m.ValidationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "validations_total",
		Help: "Notation validations by serving engine and outcome.",
	}, []string{"engine", "outcome"})
	m.ValidationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns, Name: "validation_duration_seconds",
		Help:    "Validation latency by serving engine.",
		Buckets: DefaultDurationBuckets,
	}, []string{"engine"})
	m.DegradedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns, Name: "degraded_dispatches_total",
		Help: "Requests served by the local engine because a configured backend was unavailable.",
	})

	m.DepictionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "depictions_total",
		Help: "Depiction renders by format and status.",
	}, []string{"format", "status"})
	m.DepictionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns, Name: "depiction_duration_seconds",
		Help:    "Depiction render latency by format.",
		Buckets: DefaultDurationBuckets,
	}, []string{"format"})

	m.ImportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "imports_total",
		Help: "Structure file imports by format and status.",
	}, []string{"format", "status"})

	m.BackendState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: ns, Name: "backend_state",
		Help: "Backend lifecycle state (0 unloaded, 1 loading, 2 ready, 3 failed).",
	}, []string{"engine"})

	m.CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "cache_hits_total",
		Help: "Cache hits by cache name.",
	}, []string{"cache"})
	m.CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "cache_misses_total",
		Help: "Cache misses by cache name.",
	}, []string{"cache"})

	m.EventsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "events_published_total",
		Help: "Lifecycle events published by topic and status.",
	}, []string{"topic", "status"})

	m.HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "http_requests_total",
		Help: "HTTP requests by method, route, and status code.",
	}, []string{"method", "path", "status_code"})
	m.HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns, Name: "http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: DefaultHTTPBuckets,
	}, []string{"method", "path"})

	registry.MustRegister(
		m.ValidationsTotal, m.ValidationDuration, m.DegradedTotal,
		m.DepictionsTotal, m.DepictionDuration,
		m.ImportsTotal, m.BackendState,
		m.CacheHitsTotal, m.CacheMissesTotal,
		m.EventsPublishedTotal,
		m.HTTPRequestsTotal, m.HTTPRequestDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry exposes the underlying registry for extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveValidation records one validation outcome.
func (m *Metrics) ObserveValidation(engine string, valid bool, degraded bool, elapsed time.Duration) {
	outcome := "invalid"
	if valid {
		outcome = "valid"
	}
	m.ValidationsTotal.WithLabelValues(engine, outcome).Inc()
	m.ValidationDuration.WithLabelValues(engine).Observe(elapsed.Seconds())
	if degraded {
		m.DegradedTotal.Inc()
	}
}

// ObserveDepiction records one render attempt.
func (m *Metrics) ObserveDepiction(format string, err error, elapsed time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.DepictionsTotal.WithLabelValues(format, status).Inc()
	m.DepictionDuration.WithLabelValues(format).Observe(elapsed.Seconds())
}
