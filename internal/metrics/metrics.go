package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	globalMetrics *Metrics
	globalMu      sync.RWMutex
)

// Metrics holds all Prometheus metrics for Scribe
type Metrics struct {
	// Template counters
	TemplateRendersTotal    *prometheus.CounterVec
	TemplateInsertionsTotal prometheus.Counter
	TemplateImportsTotal    *prometheus.CounterVec

	// Signature counters
	SignatureRendersTotal prometheus.Counter

	// Verse counters
	VerseFetchesTotal   *prometheus.CounterVec
	VerseCacheHitsTotal prometheus.Counter

	// Collection gauges
	TemplatesCount  prometheus.Gauge
	ProfilesCount   prometheus.Gauge
	SignaturesCount prometheus.Gauge

	// API metrics
	APIRequestsTotal          *prometheus.CounterVec
	APIRequestDurationSeconds *prometheus.HistogramVec
	APIErrorsTotal            *prometheus.CounterVec

	// System metrics
	UptimeSeconds    prometheus.Gauge
	Goroutines       prometheus.Gauge
	StorageUsedBytes prometheus.Gauge
	StorageKeys      prometheus.Gauge

	registry *prometheus.Registry
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		TemplateRendersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scribe_template_renders_total",
				Help: "Total number of template renders",
			},
			[]string{"category"},
		),
		TemplateInsertionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "scribe_template_insertions_total",
				Help: "Total number of template insertions",
			},
		),
		TemplateImportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scribe_template_imports_total",
				Help: "Total number of imported template records",
			},
			[]string{"strategy"},
		),

		SignatureRendersTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "scribe_signature_renders_total",
				Help: "Total number of signature renders",
			},
		),

		VerseFetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scribe_verse_fetches_total",
				Help: "Total number of remote verse fetches",
			},
			[]string{"result"},
		),
		VerseCacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "scribe_verse_cache_hits_total",
				Help: "Total number of verse cache hits",
			},
		),

		TemplatesCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "scribe_templates_count",
				Help: "Number of templates in the collection",
			},
		),
		ProfilesCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "scribe_profiles_count",
				Help: "Number of profiles in the collection",
			},
		),
		SignaturesCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "scribe_signatures_count",
				Help: "Number of signatures in the collection",
			},
		),

		APIRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scribe_api_requests_total",
				Help: "Total number of API requests",
			},
			[]string{"method", "path", "status"},
		),
		APIRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scribe_api_request_duration_seconds",
				Help:    "API request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		APIErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scribe_api_errors_total",
				Help: "Total number of API errors",
			},
			[]string{"error_type"},
		),

		UptimeSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "scribe_uptime_seconds",
				Help: "Server uptime in seconds",
			},
		),
		Goroutines: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "scribe_goroutines",
				Help: "Number of active goroutines",
			},
		),
		StorageUsedBytes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "scribe_storage_used_bytes",
				Help: "Bytes stored in the bulk storage namespace",
			},
		),
		StorageKeys: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "scribe_storage_keys",
				Help: "Number of keys in the bulk storage namespace",
			},
		),

		registry: reg,
	}

	reg.MustRegister(
		m.TemplateRendersTotal,
		m.TemplateInsertionsTotal,
		m.TemplateImportsTotal,
		m.SignatureRendersTotal,
		m.VerseFetchesTotal,
		m.VerseCacheHitsTotal,
		m.TemplatesCount,
		m.ProfilesCount,
		m.SignaturesCount,
		m.APIRequestsTotal,
		m.APIRequestDurationSeconds,
		m.APIErrorsTotal,
		m.UptimeSeconds,
		m.Goroutines,
		m.StorageUsedBytes,
		m.StorageKeys,
	)

	return m
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// SetGlobal sets the global metrics instance
func SetGlobal(m *Metrics) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalMetrics = m
}

// Global returns the global metrics instance
func Global() *Metrics {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalMetrics
}

// IncTemplateRenders increments the template render counter
func IncTemplateRenders(category string) {
	m := Global()
	if m != nil {
		m.TemplateRendersTotal.WithLabelValues(category).Inc()
	}
}

// IncTemplateInsertions increments the template insertion counter
func IncTemplateInsertions() {
	m := Global()
	if m != nil {
		m.TemplateInsertionsTotal.Inc()
	}
}

// AddTemplateImports adds to the imported template counter
func AddTemplateImports(strategy string, count int) {
	m := Global()
	if m != nil {
		m.TemplateImportsTotal.WithLabelValues(strategy).Add(float64(count))
	}
}

// IncSignatureRenders increments the signature render counter
func IncSignatureRenders() {
	m := Global()
	if m != nil {
		m.SignatureRendersTotal.Inc()
	}
}

// IncVerseFetches increments the remote verse fetch counter
func IncVerseFetches(result string) {
	m := Global()
	if m != nil {
		m.VerseFetchesTotal.WithLabelValues(result).Inc()
	}
}

// IncVerseCacheHits increments the verse cache hit counter
func IncVerseCacheHits() {
	m := Global()
	if m != nil {
		m.VerseCacheHitsTotal.Inc()
	}
}
