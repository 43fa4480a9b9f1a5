// Package metrics provides Prometheus metrics for the rollcall analytics service.
package metrics

import (
	"context"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
	defaultNamespace       = "rollcall"
	defaultSubsystem       = "analytics"
)

// Training outcomes recorded by RecordTrainingOutcome.
const (
	OutcomeTrained      = "trained"
	OutcomeInsufficient = "insufficient"
	OutcomeSingleClass  = "single_class"
	OutcomeFailed       = "failed"
	OutcomeDisabled     = "disabled"
)

// Name cache lookup results recorded by RecordNameCacheLookup.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Manager manages all Prometheus metrics for the rollcall service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// Analytics
	riskRequests     *prometheus.CounterVec
	overviewRequests *prometheus.CounterVec
	trainingOutcomes *prometheus.CounterVec
	trainingSamples  prometheus.Histogram
	trainingLatency  prometheus.Histogram
	rowsScored       prometheus.Counter
	scoringFallbacks prometheus.Counter

	// Collaborators
	storeQueryLatency *prometheus.HistogramVec
	nameCacheLookups  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
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
		namespace:        defaultNamespace,
		subsystem:        defaultSubsystem,
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_requests_total"),
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_request_duration_milliseconds"),
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("errors_by_endpoint_total"),
			Help:        "Total number of errors by endpoint, method and error type",
			ConstLabels: labels,
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.riskRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("risk_requests_total"),
			Help:        "Risk estimations by resolved role and visibility",
			ConstLabels: labels,
		},
		[]string{"role", "scope"},
	)

	m.overviewRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("overview_requests_total"),
			Help:        "Overview builds by resolved role and visibility",
			ConstLabels: labels,
		},
		[]string{"role", "scope"},
	)

	m.trainingOutcomes = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("training_outcomes_total"),
			Help:        "Classifier training attempts by outcome",
			ConstLabels: labels,
		},
		[]string{"outcome"},
	)

	m.trainingSamples = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("training_samples"),
		Help:        "Number of labelled windows available per estimation",
		Buckets:     []float64{0, 10, 30, 50, 100, 200, 500, 1000, 5000},
		ConstLabels: labels,
	})

	m.trainingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("training_latency_milliseconds"),
		Help:        "Classifier fit duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.rowsScored = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("rows_scored_total"),
		Help:        "Total number of (student, course) series scored",
		ConstLabels: labels,
	})

	m.scoringFallbacks = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("scoring_fallbacks_total"),
		Help:        "Rows that fell back to the heuristic after a model scoring failure",
		ConstLabels: labels,
	})

	m.storeQueryLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("store_query_latency_milliseconds"),
			Help:        "Data store query latency in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: labels,
		},
		[]string{"operation"},
	)

	m.nameCacheLookups = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("name_cache_lookups_total"),
			Help:        "Display name cache lookups by result",
			ConstLabels: labels,
		},
		[]string{"result"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_memory_usage_bytes"),
		Help:        "System memory usage in bytes",
		ConstLabels: labels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_goroutine_count"),
		Help:        "Number of goroutines",
		ConstLabels: labels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("system_gc_pause_time_milliseconds"),
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: labels,
	})
}

func active() bool {
	return globalManager != nil && globalManager.enabled
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if active() {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if active() {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if active() {
		globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// RecordRiskRequest counts a risk estimation for the resolved role and scope.
func RecordRiskRequest(role, scope string) {
	if active() {
		globalManager.riskRequests.WithLabelValues(role, scope).Inc()
	}
}

// RecordOverviewRequest counts an overview build for the resolved role and scope.
func RecordOverviewRequest(role, scope string) {
	if active() {
		globalManager.overviewRequests.WithLabelValues(role, scope).Inc()
	}
}

// RecordTrainingOutcome counts one training decision.
func RecordTrainingOutcome(outcome string) {
	if active() {
		globalManager.trainingOutcomes.WithLabelValues(outcome).Inc()
	}
}

// RecordTrainingSamples observes the size of a training set.
func RecordTrainingSamples(n int) {
	if active() {
		globalManager.trainingSamples.Observe(float64(n))
	}
}

// RecordTrainingLatency records classifier fit latency in milliseconds.
func RecordTrainingLatency(latencyMs float64) {
	if active() {
		globalManager.trainingLatency.Observe(latencyMs)
	}
}

// RecordRowsScored adds n scored rows.
func RecordRowsScored(n int) {
	if active() && n > 0 {
		globalManager.rowsScored.Add(float64(n))
	}
}

// RecordScoringFallback counts a row that dropped to the heuristic.
func RecordScoringFallback() {
	if active() {
		globalManager.scoringFallbacks.Inc()
	}
}

// RecordStoreQueryLatency records a data store query latency in milliseconds.
func RecordStoreQueryLatency(operation string, latencyMs float64) {
	if active() {
		globalManager.storeQueryLatency.WithLabelValues(operation).Observe(latencyMs)
	}
}

// RecordNameCacheLookup adds n lookups with the given result.
func RecordNameCacheLookup(result string, n int) {
	if active() && n > 0 {
		globalManager.nameCacheLookups.WithLabelValues(result).Add(float64(n))
	}
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if active() {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if active() {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if active() {
		globalManager.systemGCPauseTime.Observe(pauseMs)
	}
}

// StatusLabel formats an HTTP status code as a label value.
func StatusLabel(code int) string {
	return strconv.Itoa(code)
}

// RunSystemCollector samples runtime statistics every refresh interval until
// ctx is done.
func RunSystemCollector(ctx context.Context) {
	interval := defaultRefreshInterval
	if globalManager != nil {
		interval = globalManager.refreshInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastNumGC uint32
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)
			UpdateSystemMemoryUsage(ms.Alloc)
			UpdateSystemGoroutineCount(runtime.NumGoroutine())
			if ms.NumGC > lastNumGC {
				RecordSystemGCPauseTime(float64(ms.PauseNs[(ms.NumGC+255)%256]) / 1e6)
				lastNumGC = ms.NumGC
			}
		}
	}
}

// Configure replaces the global manager, registering on the custom registry.
// It must be called before serving traffic.
func Configure(opts ...Option) {
	customRegistry = prometheus.NewRegistry()
	globalManager = NewManager(append([]Option{WithPrometheusRegistry(customRegistry)}, opts...)...)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
