package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the application.
// Following the explicit dependency injection pattern, this struct
// is passed to all components that need to record metrics.
type Metrics struct {
	// Solana RPC Metrics
	solanaRPCCallsTotal   *prometheus.CounterVec
	solanaRPCCallDuration *prometheus.HistogramVec

	// Stream Metrics
	streamSubscribesTotal *prometheus.CounterVec
	notificationsTotal    *prometheus.CounterVec

	// Balance Change Metrics
	balanceChangesTotal     *prometheus.CounterVec
	qualifyingNotifications prometheus.Counter

	// NATS Metrics
	natsMessagesPublished *prometheus.CounterVec
	natsPublishDuration   *prometheus.HistogramVec
}

// Notification outcome labels for RecordNotification.
const (
	NotificationQualifying = "qualifying"
	NotificationEmpty      = "empty"
	NotificationSkipped    = "skipped"
	NotificationError      = "error"
)

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		// Solana RPC Metrics
		solanaRPCCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solana_rpc_calls_total",
				Help: "Total number of Solana RPC calls by method and status",
			},
			[]string{"method", "status", "endpoint"},
		),
		solanaRPCCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "solana_rpc_call_duration_seconds",
				Help:    "Duration of Solana RPC calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method", "endpoint"},
		),

		// Stream Metrics
		streamSubscribesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "log_stream_subscribes_total",
				Help: "Total number of log subscription attempts by status",
			},
			[]string{"status"},
		),
		notificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "log_notifications_total",
				Help: "Total number of log notifications processed by outcome",
			},
			[]string{"outcome"},
		),

		// Balance Change Metrics
		balanceChangesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "balance_changes_total",
				Help: "Total number of qualifying balance change events by direction",
			},
			[]string{"direction"},
		),
		qualifyingNotifications: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "qualifying_notifications_total",
				Help: "Total number of notifications that produced at least one qualifying event",
			},
		),

		// NATS Metrics
		natsMessagesPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nats_messages_published_total",
				Help: "Total number of NATS messages published",
			},
			[]string{"subject", "status"},
		),
		natsPublishDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nats_publish_duration_seconds",
				Help:    "Duration of NATS publish operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"subject"},
		),
	}
}

// Solana RPC metric helpers

// RecordRPCCall records a Solana RPC call with duration.
func (m *Metrics) RecordRPCCall(method, status, endpoint string, duration float64) {
	m.solanaRPCCallsTotal.WithLabelValues(method, status, endpoint).Inc()
	m.solanaRPCCallDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// Stream metric helpers

// RecordStreamSubscribe records a log subscription attempt.
func (m *Metrics) RecordStreamSubscribe(status string) {
	m.streamSubscribesTotal.WithLabelValues(status).Inc()
}

// RecordNotification records the outcome of processing one notification.
func (m *Metrics) RecordNotification(outcome string) {
	m.notificationsTotal.WithLabelValues(outcome).Inc()
}

// Balance change metric helpers

// RecordBalanceChanges records qualifying events by direction.
func (m *Metrics) RecordBalanceChanges(direction string, count int) {
	m.balanceChangesTotal.WithLabelValues(direction).Add(float64(count))
}

// RecordQualifyingNotification records a notification that contributed at
// least one qualifying event.
func (m *Metrics) RecordQualifyingNotification() {
	m.qualifyingNotifications.Inc()
}

// NATS metric helpers

// RecordNATSPublish records a NATS publish operation.
func (m *Metrics) RecordNATSPublish(subject, status string, duration float64) {
	m.natsMessagesPublished.WithLabelValues(subject, status).Inc()
	m.natsPublishDuration.WithLabelValues(subject).Observe(duration)
}
