package observability

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	FlagsResolved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "referral_flags_resolved_total",
			Help: "Fraud flags marked resolved",
		},
	)

	ResolveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "referral_resolve_duration_seconds",
			Help:    "Fraud flag resolution latency in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"outcome"},
	)

	RewardsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "referral_rewards_created_total",
			Help: "Rewards created by settlement",
		},
		[]string{"level"},
	)

	SettlementWarnings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "referral_settlement_warnings_total",
			Help: "Settlement problems reported as warnings instead of errors",
		},
		[]string{"reason"},
	)

	WebhookDispatchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "referral_webhook_dispatch_failures_total",
			Help: "Webhook events that could not be handed to the event bus",
		},
	)

	WebhookDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "referral_webhook_deliveries_total",
			Help: "Webhook HTTP delivery attempts by outcome",
		},
		[]string{"outcome"},
	)
)

// MetricsHandler serves the default Prometheus registry.
func MetricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
