package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teamtask_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "teamtask_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teamtask_notifications_total",
		Help: "Notifications recorded by type and result",
	}, []string{"type", "result"})

	cascadeOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teamtask_cascade_operations_total",
		Help: "Transactional cascades by operation and result",
	}, []string{"operation", "result"})

	emailsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teamtask_emails_total",
		Help: "Outbound emails by provider and result",
	}, []string{"provider", "result"})

	realtimeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "teamtask_realtime_connections",
		Help: "Open websocket connections",
	})

	realtimeEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teamtask_realtime_events_total",
		Help: "Realtime events delivered by room kind",
	}, []string{"room_kind"})

	notificationsPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "teamtask_notifications_purged_total",
		Help: "Notifications removed by the retention purge",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveNotification counts a notification write attempt.
func ObserveNotification(notificationType, result string) {
	notificationsTotal.WithLabelValues(notificationType, result).Inc()
}

// ObserveCascade counts a cascade transaction by operation and result.
func ObserveCascade(operation string, err error) {
	cascadeOperations.WithLabelValues(operation, resultLabel(err)).Inc()
}

// ObserveEmail counts an outbound email attempt.
func ObserveEmail(provider string, err error) {
	emailsTotal.WithLabelValues(provider, resultLabel(err)).Inc()
}

func IncrementConnections() {
	realtimeConnections.Inc()
}

func DecrementConnections() {
	realtimeConnections.Dec()
}

// ObserveRealtimeEvent counts an event fanned out to a room kind.
func ObserveRealtimeEvent(roomKind string) {
	realtimeEvents.WithLabelValues(roomKind).Inc()
}

// ObservePurge adds the number of notifications removed by a purge pass.
func ObservePurge(count int64) {
	if count > 0 {
		notificationsPurged.Add(float64(count))
	}
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
