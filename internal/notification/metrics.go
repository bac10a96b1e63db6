package notification

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	notificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projectmatch_notifications_sent_total",
			Help: "Notifications delivered by type and channel",
		},
		[]string{"type", "channel"},
	)

	deliveryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projectmatch_notification_delivery_failures_total",
			Help: "Notification delivery failures by channel",
		},
		[]string{"channel"},
	)

	wsConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "projectmatch_notification_websocket_connections",
			Help: "Open notification websocket connections",
		},
	)

	notificationsCleaned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "projectmatch_notifications_cleaned_total",
			Help: "Notifications removed by the retention job",
		},
	)
)

const (
	channelInApp    = "in_app"
	channelRealtime = "websocket"
	channelPush     = "push"
)

func recordSent(t NotificationType, channel string) {
	notificationsSent.WithLabelValues(string(t), channel).Inc()
}

func recordFailure(channel string) {
	deliveryFailures.WithLabelValues(channel).Inc()
}
