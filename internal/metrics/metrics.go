// Package metrics defines Prometheus metrics for revisor.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "revisor_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revisor_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revisor_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	// VersionsCreated counts committed version records by transition kind
	// (created, updated, restored).
	VersionsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revisor_versions_created_total",
			Help: "Version records created, by transition kind",
		},
		[]string{"kind"},
	)

	VersionConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "revisor_version_conflicts_total",
			Help: "Snapshot attempts rejected by the optimistic concurrency check",
		},
	)

	DispatchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revisor_dispatch_failures_total",
			Help: "Audit or notification side effects that failed after a commit",
		},
		[]string{"sink"},
	)

	DispatchQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "revisor_dispatch_queue_depth",
			Help: "Current async dispatch queue depth",
		},
	)

	DispatchDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "revisor_dispatch_dropped_total",
			Help: "Lifecycle events dropped because the dispatch queue was full",
		},
	)

	NotificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revisor_notifications_sent_total",
			Help: "Notifications created, by type",
		},
		[]string{"type"},
	)

	DirectoryCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revisor_directory_cache_lookups_total",
			Help: "Author directory lookups, by cache result (hit, miss) or error",
		},
		[]string{"result"},
	)

	RetentionPurged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revisor_retention_purged_total",
			Help: "Rows removed by retention jobs",
		},
		[]string{"job"},
	)

	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "revisor_websocket_connections",
			Help: "Active WebSocket connections",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		VersionsCreated, VersionConflicts,
		DispatchFailures, DispatchQueueDepth, DispatchDropped,
		NotificationsSent, DirectoryCacheLookups, RetentionPurged,
		WSConnections,
	)
}
