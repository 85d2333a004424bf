// Package metrics provides Prometheus metrics for the leadgate intake service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Admission control
	admissionDecisions *prometheus.CounterVec
	backendFallbacks   *prometheus.CounterVec
	durableLatency     *prometheus.HistogramVec
	memoryKeys         prometheus.Gauge
	memoryEvictions    prometheus.Counter
	botsDetected       *prometheus.CounterVec

	// Lead qualification
	leadScores      prometheus.Histogram
	leadsAccepted   *prometheus.CounterVec
	leadsRejected   *prometheus.CounterVec
	completionCalls *prometheus.CounterVec
	completionTime  prometheus.Histogram

	// Notification fan-out
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueDropped       *prometheus.CounterVec
	notificationsSent  *prometheus.CounterVec
	notificationErrors *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // service registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "leadgate",
		subsystem:        "intake",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.admissionDecisions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "admission_decisions_total",
		Help:      "Rate limit decisions by namespace, outcome and serving backend",
	}, []string{"namespace", "outcome", "backend"})

	m.backendFallbacks = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "counter_fallbacks_total",
		Help:      "Durable counter failures answered by the in-memory backend",
	}, []string{"namespace", "reason"})

	m.durableLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "durable_counter_latency_milliseconds",
		Help:      "Round trip latency of the durable counter backend",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	}, []string{"backend"})

	m.memoryKeys = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "memory_counter_keys",
		Help:      "Number of live keys in the in-memory counter table",
	})

	m.memoryEvictions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "memory_counter_evictions_total",
		Help:      "Expired windows removed by the in-memory sweeper",
	})

	m.botsDetected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "bots_detected_total",
		Help:      "Submissions silently discarded by the honeypot check",
	}, []string{"endpoint"})

	m.leadScores = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "lead_score",
		Help:      "Distribution of conversation lead scores",
		Buckets:   []float64{0, 5, 10, 15, 20, 30, 45, 60, 90},
	})

	m.leadsAccepted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leads_accepted_total",
		Help:      "Persisted leads by tier",
	}, []string{"tier"})

	m.leadsRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leads_rejected_total",
		Help:      "Lead submissions stopped by the admission pipeline, by stage",
	}, []string{"stage"})

	m.completionCalls = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "completion_calls_total",
		Help:      "Downstream completion calls by result",
	}, []string{"result"})

	m.completionTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "completion_latency_milliseconds",
		Help:      "Downstream completion latency in milliseconds",
		Buckets:   []float64{100, 250, 500, 1000, 2000, 4000, 8000, 15000, 30000},
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notification_queue_size",
		Help:      "Pending lead notifications",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notification_queue_capacity",
		Help:      "Maximum pending lead notifications",
	})

	m.queueDropped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notification_queue_dropped_total",
		Help:      "Notifications that could not be enqueued",
	}, []string{"reason"})

	m.notificationsSent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notifications_sent_total",
		Help:      "Notifications delivered by notifier",
	}, []string{"notifier"})

	m.notificationErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notification_errors_total",
		Help:      "Notification failures by notifier",
	}, []string{"notifier"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_endpoint_total",
		Help:      "HTTP error responses by endpoint, method and error type",
	}, []string{"endpoint", "method", "error_type"})
}

// RecordAdmission counts one limiter decision.
func RecordAdmission(namespace string, allowed bool, backend string) {
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	globalManager.admissionDecisions.WithLabelValues(namespace, outcome, backend).Inc()
}

// RecordBackendFallback counts a durable failure answered from memory.
func RecordBackendFallback(namespace, reason string) {
	globalManager.backendFallbacks.WithLabelValues(namespace, reason).Inc()
}

// RecordDurableLatency observes one durable round trip.
func RecordDurableLatency(backend string, latencyMs float64) {
	globalManager.durableLatency.WithLabelValues(backend).Observe(latencyMs)
}

// UpdateMemoryKeys sets the live key count of the memory table.
func UpdateMemoryKeys(count int) {
	globalManager.memoryKeys.Set(float64(count))
}

// RecordMemoryEvictions adds n sweeper evictions.
func RecordMemoryEvictions(n int) {
	globalManager.memoryEvictions.Add(float64(n))
}

// RecordBotDetected counts a honeypot hit.
func RecordBotDetected(endpoint string) {
	globalManager.botsDetected.WithLabelValues(endpoint).Inc()
}

// RecordLeadScore observes a computed lead score.
func RecordLeadScore(score int) {
	globalManager.leadScores.Observe(float64(score))
}

// RecordLeadAccepted counts a persisted lead.
func RecordLeadAccepted(tier string) {
	globalManager.leadsAccepted.WithLabelValues(tier).Inc()
}

// RecordLeadRejected counts a lead stopped at stage.
func RecordLeadRejected(stage string) {
	globalManager.leadsRejected.WithLabelValues(stage).Inc()
}

// RecordCompletion counts a downstream completion call and its latency.
func RecordCompletion(ok bool, latencyMs float64) {
	result := "error"
	if ok {
		result = "ok"
	}
	globalManager.completionCalls.WithLabelValues(result).Inc()
	globalManager.completionTime.Observe(latencyMs)
}

// UpdateQueueSize sets the pending notification count.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the notification queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueDropped counts a notification that was not enqueued.
func RecordQueueDropped(reason string) {
	globalManager.queueDropped.WithLabelValues(reason).Inc()
}

// RecordNotificationSent counts a delivered notification.
func RecordNotificationSent(notifier string) {
	globalManager.notificationsSent.WithLabelValues(notifier).Inc()
}

// RecordNotificationError counts a failed notification.
func RecordNotificationError(notifier string) {
	globalManager.notificationErrors.WithLabelValues(notifier).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error response.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// GetRegistry returns the registry holding the service metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
