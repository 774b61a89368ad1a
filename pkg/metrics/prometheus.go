// Package metrics provides Prometheus metrics for the jobwatch pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager holds all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Cycle metrics
	cyclesTotal        prometheus.Counter
	cyclesFailed       prometheus.Counter
	cycleDuration      prometheus.Histogram
	postingsScraped    *prometheus.CounterVec
	postingsMatched    prometheus.Counter
	postingsNew        prometheus.Counter
	postingsDuplicate  prometheus.Counter
	sourceErrors       *prometheus.CounterVec
	notificationsSent  *prometheus.CounterVec
	notificationErrors *prometheus.CounterVec

	// Store metrics
	storePostings   prometheus.Gauge
	storeUnnotified prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "jobwatch",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.cyclesTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cycles_total",
		Help:      "Total number of completed pipeline cycles",
	})

	m.cyclesFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cycles_failed_total",
		Help:      "Total number of cycles aborted by a store failure",
	})

	m.cycleDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cycle_duration_seconds",
		Help:      "Histogram of full cycle duration in seconds",
		Buckets:   m.histogramBuckets,
	})

	m.postingsScraped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "postings_scraped_total",
		Help:      "Total postings returned by each source",
	}, []string{"source"})

	m.postingsMatched = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "postings_matched_total",
		Help:      "Total postings accepted by the matching engine",
	})

	m.postingsNew = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "postings_new_total",
		Help:      "Total first-seen postings persisted",
	})

	m.postingsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "postings_duplicate_total",
		Help:      "Total postings dropped as already seen",
	})

	m.sourceErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "source_errors_total",
		Help:      "Total fetch failures per source",
	}, []string{"source"})

	m.notificationsSent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notifications_sent_total",
		Help:      "Total postings delivered per channel",
	}, []string{"channel"})

	m.notificationErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notification_errors_total",
		Help:      "Total delivery failures per channel",
	}, []string{"channel"})

	m.storePostings = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_postings",
		Help:      "Total postings currently persisted",
	})

	m.storeUnnotified = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_unnotified_postings",
		Help:      "Persisted postings still awaiting notification",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests to the admin API",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_seconds",
		Help:      "Histogram of admin API request duration in seconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// Package-level helpers record against the global manager.

// RecordCycle records a completed cycle and its duration.
func RecordCycle(durationSeconds float64) {
	globalManager.cyclesTotal.Inc()
	globalManager.cycleDuration.Observe(durationSeconds)
}

// RecordCycleFailure records a cycle aborted by the store.
func RecordCycleFailure() {
	globalManager.cyclesFailed.Inc()
}

// RecordPostingsScraped records postings returned by a source.
func RecordPostingsScraped(source string, count int) {
	globalManager.postingsScraped.WithLabelValues(source).Add(float64(count))
}

// RecordPostingMatched records a posting accepted by the matching engine.
func RecordPostingMatched() {
	globalManager.postingsMatched.Inc()
}

// RecordPostingNew records a genuinely first-seen posting.
func RecordPostingNew() {
	globalManager.postingsNew.Inc()
}

// RecordPostingDuplicate records a posting dropped as already seen.
func RecordPostingDuplicate() {
	globalManager.postingsDuplicate.Inc()
}

// RecordSourceError records a fetch failure for a source.
func RecordSourceError(source string) {
	globalManager.sourceErrors.WithLabelValues(source).Inc()
}

// RecordNotificationsSent records postings delivered by a channel.
func RecordNotificationsSent(channel string, count int) {
	globalManager.notificationsSent.WithLabelValues(channel).Add(float64(count))
}

// RecordNotificationError records a delivery failure for a channel.
func RecordNotificationError(channel string) {
	globalManager.notificationErrors.WithLabelValues(channel).Inc()
}

// UpdateStorePostings updates the persisted postings gauge.
func UpdateStorePostings(count int) {
	globalManager.storePostings.Set(float64(count))
}

// UpdateStoreUnnotified updates the unnotified postings gauge.
func UpdateStoreUnnotified(count int) {
	globalManager.storeUnnotified.Set(float64(count))
}

// RecordHTTPRequest records an admin API request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records an admin API request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, seconds float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(seconds)
}

// GetRegistry returns the custom registry for the /metrics handler.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
