package metrics

import (
	"saas-starter-billing/internal/domain/model"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		subscriptionEventsTotal,
		subscriptionsTotal,
	)
}

var (
	subscriptionEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscriptions_events_total",
			Help: "Subscription lifecycle events applied, by kind (created/updated/deleted/checkout).",
		},
		[]string{"kind"},
	)

	subscriptionsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "subscriptions_total",
			Help: "Current number of stored subscriptions by status.",
		},
		[]string{"status"},
	)
)

func IncSubscriptionEvent(kind string) {
	subscriptionEventsTotal.WithLabelValues(norm(kind)).Inc()
}

func SetSubscriptionsTotal(counts map[model.SubscriptionStatus]int) {
	// Statuses absent from counts are dropped.
	subscriptionsTotal.Reset()
	for status, count := range counts {
		subscriptionsTotal.WithLabelValues(norm(string(status))).Set(float64(count))
	}
}
