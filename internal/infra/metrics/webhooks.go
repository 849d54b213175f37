package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		webhookEventsTotal,
		webhookSignatureFailuresTotal,
		webhookDuration,
	)
}

var (
	// outcome: the acknowledged status code, e.g. "200", "400", "500".
	webhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Provider webhook deliveries by event type and outcome status.",
		},
		[]string{"type", "outcome"},
	)

	webhookSignatureFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_signature_failures_total",
			Help: "Webhook deliveries rejected before dispatch (bad signature or undecodable event).",
		},
	)

	webhookDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webhook_duration_seconds",
			Help:    "Time spent handling one webhook delivery.",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"type"},
	)
)

// ObserveWebhook records one handled delivery. An empty eventType means the
// delivery never got past verification.
func ObserveWebhook(eventType string, status int, elapsed time.Duration) {
	if eventType == "" {
		webhookSignatureFailuresTotal.Inc()
	}
	webhookEventsTotal.WithLabelValues(norm(eventType), strconv.Itoa(status)).Inc()
	webhookDuration.WithLabelValues(norm(eventType)).Observe(elapsed.Seconds())
}
