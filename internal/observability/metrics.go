package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	httpRequestsTotal      *prometheus.CounterVec
	httpLatencySeconds     *prometheus.HistogramVec
	httpErrorsTotal        *prometheus.CounterVec
	gradesRecordedTotal    *prometheus.CounterVec
	changeRequestsTotal    *prometheus.CounterVec
	summaryCacheTotal      *prometheus.CounterVec
	notificationsSentTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors of the gradebook.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradebook_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gradebook_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradebook_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		gradesRecordedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradebook_grades_recorded_total",
			Help: "Grade entries recorded, by component type.",
		}, []string{"component"})

		changeRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradebook_change_requests_total",
			Help: "Change request lifecycle events, by request type and resulting status.",
		}, []string{"type", "status"})

		summaryCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradebook_summary_cache_total",
			Help: "Subject summary cache lookups, by result.",
		}, []string{"result"})

		notificationsSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradebook_notifications_total",
			Help: "Notifications persisted, by type.",
		}, []string{"type"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			gradesRecordedTotal,
			changeRequestsTotal,
			summaryCacheTotal,
			notificationsSentTotal,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// GradesRecorded counts recorded grade entries.
func GradesRecorded() *prometheus.CounterVec {
	RegisterMetrics()
	return gradesRecordedTotal
}

// ChangeRequests counts change request submissions and resolutions.
func ChangeRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return changeRequestsTotal
}

// SummaryCache counts summary cache hits and misses.
func SummaryCache() *prometheus.CounterVec {
	RegisterMetrics()
	return summaryCacheTotal
}

// NotificationsSent counts persisted notifications.
func NotificationsSent() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsSentTotal
}
