package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by ecomap.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Proximity queries
	nearbyQueries     *prometheus.CounterVec
	nearbyResultSize  prometheus.Histogram
	nearbyQueryErrors *prometheus.CounterVec

	// Join flow
	joinsAccepted   prometheus.Counter
	joinsDuplicate  prometheus.Counter
	joinsApplied    prometheus.Counter
	joinsRejected   *prometheus.CounterVec
	rewardsCredited prometheus.Counter

	// Catalog and leaderboard
	catalogEvents      prometheus.Gauge
	leaderboardMembers prometheus.Gauge

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors *prometheus.CounterVec

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// customRegistry keeps the default Go collectors out of /metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Init rebuilds the global manager from opts on a fresh registry served by
// GetRegistry. Call it once at startup, before anything records or serves
// metrics.
func Init(opts ...Option) {
	registry := prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(registry))...)
	customRegistry = registry
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "ecomap",
		subsystem:        "events",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.nearbyQueries = auto.NewCounterVec(
		m.counterOpts("nearby_queries_total", "Event list queries by ranking mode"),
		[]string{"mode"},
	)
	m.nearbyResultSize = auto.NewHistogram(m.histogramOpts(
		"nearby_result_size", "Number of events returned per list query",
		[]float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
	))
	m.nearbyQueryErrors = auto.NewCounterVec(
		m.counterOpts("nearby_query_errors_total", "Rejected list queries by error kind"),
		[]string{"kind"},
	)

	m.joinsAccepted = auto.NewCounter(m.counterOpts("joins_accepted_total", "Join requests accepted for processing"))
	m.joinsDuplicate = auto.NewCounter(m.counterOpts("joins_duplicate_total", "Join requests dropped as duplicates"))
	m.joinsApplied = auto.NewCounter(m.counterOpts("joins_applied_total", "Join requests applied to the catalog"))
	m.joinsRejected = auto.NewCounterVec(
		m.counterOpts("joins_rejected_total", "Join requests rejected by reason"),
		[]string{"reason"},
	)
	m.rewardsCredited = auto.NewCounter(m.counterOpts("rewards_credited_coins_total", "Reward coins credited to participants"))

	m.catalogEvents = auto.NewGauge(m.gaugeOpts("catalog_events", "Events in the catalog"))
	m.leaderboardMembers = auto.NewGauge(m.gaugeOpts("leaderboard_members", "Participants on the community leaderboard"))

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Join requests waiting in the queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum join queue capacity"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueued_total", "Join requests enqueued"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("queue_dequeued_total", "Join requests dequeued"))
	m.queueEnqueueErrors = auto.NewCounterVec(
		m.counterOpts("queue_enqueue_errors_total", "Enqueue failures by reason"),
		[]string{"reason"},
	)

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Join workers running"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts(
		"worker_processing_latency_milliseconds", "Time to apply one join request", m.histogramBuckets,
	))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Join requests that failed in a worker"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("http_errors_total", "HTTP error responses by endpoint, method and error type"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds", "Average GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	))
}

// Proximity.

// RecordNearbyQuery counts a list query; mode is "ranked" or "unranked".
func RecordNearbyQuery(mode string, results int) {
	globalManager.nearbyQueries.WithLabelValues(mode).Inc()
	globalManager.nearbyResultSize.Observe(float64(results))
}

// RecordNearbyQueryError counts a rejected list query.
func RecordNearbyQueryError(kind string) {
	globalManager.nearbyQueryErrors.WithLabelValues(kind).Inc()
}

// Join flow.

// RecordJoinAccepted counts a join request handed to the queue.
func RecordJoinAccepted() { globalManager.joinsAccepted.Inc() }

// RecordJoinDuplicate counts a join request dropped by the deduper.
func RecordJoinDuplicate() { globalManager.joinsDuplicate.Inc() }

// RecordJoinApplied counts a join applied by a worker.
func RecordJoinApplied() { globalManager.joinsApplied.Inc() }

// RecordJoinRejected counts a join a worker could not apply.
func RecordJoinRejected(reason string) {
	globalManager.joinsRejected.WithLabelValues(reason).Inc()
}

// RecordRewardCredited adds reward coins credited to a participant.
func RecordRewardCredited(coins int) {
	if coins > 0 {
		globalManager.rewardsCredited.Add(float64(coins))
	}
}

// Catalog and leaderboard.

// UpdateCatalogEvents sets the number of catalog events.
func UpdateCatalogEvents(count int) { globalManager.catalogEvents.Set(float64(count)) }

// UpdateLeaderboardMembers sets the number of leaderboard participants.
func UpdateLeaderboardMembers(count int) { globalManager.leaderboardMembers.Set(float64(count)) }

// Queue.

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError counts an enqueue failure.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// Workers.

// UpdateWorkerCount sets the number of running workers.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordWorkerProcessingLatency records the time a worker spent on one request.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByEndpoint records an error response.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System.

// UpdateSystemMemoryUsage sets heap bytes allocated.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the custom Prometheus registry used by ecomap.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
