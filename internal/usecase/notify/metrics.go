package notify

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dispatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_dispatched_total",
			Help: "Job report notifications handed to a channel",
		},
		[]string{"channel"},
	)

	sentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_sent_total",
			Help: "Notification send results",
		},
		[]string{"channel", "status"},
	)

	sendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notification_duration_seconds",
			Help:    "Time spent delivering a notification",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"channel"},
	)

	breakerOpenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_circuit_breaker_open_total",
			Help: "Times a channel's circuit breaker opened",
		},
		[]string{"channel"},
	)

	droppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_dropped_total",
			Help: "Notifications dropped before sending",
		},
		[]string{"channel", "reason"}, // pool_full, circuit_open, disabled
	)

	activeSends = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notification_active_goroutines",
			Help: "In-flight notification sends",
		},
	)

	channelsEnabled = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notification_channels_enabled",
			Help: "Configured notification channels",
		},
	)
)

// RecordDispatch counts a notification handed to a channel.
func RecordDispatch(channel string) {
	dispatchedTotal.WithLabelValues(channel).Inc()
}

// RecordSuccess counts a delivered notification and its latency.
func RecordSuccess(channel string, duration time.Duration) {
	sentTotal.WithLabelValues(channel, "success").Inc()
	sendDuration.WithLabelValues(channel).Observe(duration.Seconds())
}

// RecordFailure counts a failed delivery and its latency.
func RecordFailure(channel string, duration time.Duration) {
	sentTotal.WithLabelValues(channel, "failure").Inc()
	sendDuration.WithLabelValues(channel).Observe(duration.Seconds())
}

// RecordDropped counts a notification that never left the service.
func RecordDropped(channel, reason string) {
	droppedTotal.WithLabelValues(channel, reason).Inc()
}

// RecordCircuitBreakerOpen counts a breaker trip for the channel.
func RecordCircuitBreakerOpen(channel string) {
	breakerOpenTotal.WithLabelValues(channel).Inc()
}

// IncrementActiveGoroutines marks a send starting.
func IncrementActiveGoroutines() { activeSends.Inc() }

// DecrementActiveGoroutines marks a send finished.
func DecrementActiveGoroutines() { activeSends.Dec() }

// SetChannelsEnabled publishes how many channels are configured.
func SetChannelsEnabled(count float64) { channelsEnabled.Set(count) }
