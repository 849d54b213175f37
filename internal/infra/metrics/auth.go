package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(signinAttemptsTotal, rateLimitDecisionsTotal)
}

var (
	// result: complete|incomplete|invalid|refused|rate_limited
	signinAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signin_attempts_total",
			Help: "Password sign-in submissions by result.",
		},
		[]string{"result"},
	)

	rateLimitDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratelimit_decisions_total",
			Help: "Rate limiter decisions per scope (allowed/blocked/error).",
		},
		[]string{"scope", "result"},
	)
)

func IncSignIn(result string) {
	signinAttemptsTotal.WithLabelValues(norm(result)).Inc()
}

func IncRateLimit(scope, result string) {
	rateLimitDecisionsTotal.WithLabelValues(norm(scope), norm(result)).Inc()
}
