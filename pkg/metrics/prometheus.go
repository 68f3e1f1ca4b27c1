// Package metrics provides Prometheus metrics for the PitchLab drill service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the drill service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Session lifecycle
	sessionsStarted  *prometheus.CounterVec
	sessionsRejected *prometheus.CounterVec
	activeSessions   prometheus.Gauge
	ticks            *prometheus.CounterVec
	tickDuration     *prometheus.HistogramVec
	reports          *prometheus.CounterVec
	snapshotsDropped prometheus.Counter
	streamClients    prometheus.Gauge

	// Ratings
	ratingCommits    prometheus.Counter
	ratingDuplicates prometheus.Counter
	ratingChange     prometheus.Histogram

	// Roster
	rosterSize              prometheus.Gauge
	repositoryUpdateLatency prometheus.Histogram
	repositoryQueryLatency  prometheus.Histogram

	// Commit queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerActiveCount       prometheus.Gauge
	workerMessagesPerSecond prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pitchlab",
		subsystem:        "drills",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gauge(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.HistogramOpts {
	if buckets == nil {
		buckets = m.histogramBuckets
	}
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.sessionsStarted = auto.NewCounterVec(m.counter("sessions_started_total", "Sessions started by drill"), []string{"drill"})
	m.sessionsRejected = auto.NewCounterVec(m.counter("sessions_rejected_total", "Session starts rejected by reason"), []string{"reason"})
	m.activeSessions = auto.NewGauge(m.gauge("sessions_active", "Sessions held by the service"))
	m.ticks = auto.NewCounterVec(m.counter("ticks_total", "Simulation steps by drill"), []string{"drill"})
	m.tickDuration = auto.NewHistogramVec(
		m.histogram("tick_duration_milliseconds", "Wall time of one simulation step",
			[]float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}),
		[]string{"drill"},
	)
	m.reports = auto.NewCounterVec(m.counter("reports_total", "Session reports built by drill"), []string{"drill"})
	m.snapshotsDropped = auto.NewCounter(m.counter("snapshots_dropped_total", "Snapshots not delivered to a slow stream client"))
	m.streamClients = auto.NewGauge(m.gauge("stream_clients", "Connected snapshot stream clients"))

	m.ratingCommits = auto.NewCounter(m.counter("rating_commits_total", "Sessions whose ratings were written to the roster"))
	m.ratingDuplicates = auto.NewCounter(m.counter("rating_duplicates_total", "Commit attempts rejected because the session was already committed"))
	m.ratingChange = auto.NewHistogram(m.histogram("rating_change", "Speed rating change per committed player",
		[]float64{-30, -15, -5, -1, 0, 1, 5, 15, 30}))

	m.rosterSize = auto.NewGauge(m.gauge("roster_size", "Players in the roster"))
	m.repositoryUpdateLatency = auto.NewHistogram(m.histogram("repository_update_latency_milliseconds",
		"Latency of roster updates", []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}))
	m.repositoryQueryLatency = auto.NewHistogram(m.histogram("repository_query_latency_milliseconds",
		"Latency of leaderboard queries", []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}))

	m.queueSize = auto.NewGauge(m.gauge("queue_size", "Commit jobs waiting in the queue"))
	m.queueCapacity = auto.NewGauge(m.gauge("queue_capacity", "Commit queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gauge("queue_utilization_ratio", "Commit queue fill ratio (0-1)"))
	m.queueEnqueueRate = auto.NewCounter(m.counter("queue_enqueue_total", "Commit jobs enqueued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counter("queue_enqueue_errors_total", "Commit jobs refused by the queue"))

	m.workerActiveCount = auto.NewGauge(m.gauge("worker_active_count", "Running commit workers"))
	m.workerMessagesPerSecond = auto.NewGauge(m.gauge("worker_messages_per_second", "Commit jobs processed per second"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogram("worker_processing_latency_milliseconds",
		"Time to apply one commit job", nil))
	m.workerErrorRate = auto.NewCounter(m.counter("worker_errors_total", "Player updates that failed in a worker"))

	m.httpRequests = auto.NewCounterVec(m.counter("http_requests_total", "HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogram("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", nil), []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(m.counter("errors_by_component_total", "Errors by component"),
		[]string{"component", "error_type"})
	m.errorRateByType = auto.NewCounterVec(m.counter("errors_by_type_total", "Errors by type"),
		[]string{"error_type", "severity"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counter("errors_by_endpoint_total", "Errors by endpoint"),
		[]string{"endpoint", "method", "error_type"})
	m.errorLatency = auto.NewHistogramVec(m.histogram("error_latency_milliseconds",
		"Latency of operations that resulted in errors", nil), []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gauge("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gauge("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// Session Metrics Functions.

// RecordSessionStarted counts a started session of the given drill.
func RecordSessionStarted(drill string) {
	globalManager.sessionsStarted.WithLabelValues(drill).Inc()
}

// RecordSessionRejected counts a refused session start.
func RecordSessionRejected(reason string) {
	globalManager.sessionsRejected.WithLabelValues(reason).Inc()
}

// UpdateActiveSessions sets the number of sessions held by the service.
func UpdateActiveSessions(count int) {
	globalManager.activeSessions.Set(float64(count))
}

// RecordTick counts one simulation step and its wall time.
func RecordTick(drill string, durationMs float64) {
	globalManager.ticks.WithLabelValues(drill).Inc()
	globalManager.tickDuration.WithLabelValues(drill).Observe(durationMs)
}

// RecordReport counts a built session report.
func RecordReport(drill string) {
	globalManager.reports.WithLabelValues(drill).Inc()
}

// RecordSnapshotDropped counts a snapshot a stream client was too slow to take.
func RecordSnapshotDropped() {
	globalManager.snapshotsDropped.Inc()
}

// UpdateStreamClients sets the number of connected stream clients.
func UpdateStreamClients(count int) {
	globalManager.streamClients.Set(float64(count))
}

// Rating Metrics Functions.

// RecordRatingCommit counts a session whose ratings were written.
func RecordRatingCommit() {
	globalManager.ratingCommits.Inc()
}

// RecordRatingDuplicate counts a commit refused for an already committed session.
func RecordRatingDuplicate() {
	globalManager.ratingDuplicates.Inc()
}

// RecordRatingUpdate observes one player's rating change.
func RecordRatingUpdate(change int) {
	globalManager.ratingChange.Observe(float64(change))
}

// Roster Metrics Functions.

// UpdateRosterSize sets the number of players in the roster.
func UpdateRosterSize(count int) {
	globalManager.rosterSize.Set(float64(count))
}

// RecordRepositoryUpdateLatency records roster update latency.
func RecordRepositoryUpdateLatency(latencyMs float64) {
	globalManager.repositoryUpdateLatency.Observe(latencyMs)
}

// RecordRepositoryQueryLatency records leaderboard query latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
}

// Queue Metrics Functions.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// Worker Metrics Functions.

// UpdateWorkerActiveCount sets the number of active workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// UpdateWorkerMessagesPerSecond sets the average jobs processed per second.
func UpdateWorkerMessagesPerSecond(rate float64) {
	globalManager.workerMessagesPerSecond.Set(rate)
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
