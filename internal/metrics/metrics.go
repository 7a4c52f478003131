package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Interaction metrics
var (
	// InteractionsTotal counts dispatched interactions by kind, command and result
	InteractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timesrelay_interactions_total",
			Help: "Interactions handled by kind, command and result",
		},
		[]string{"kind", "command", "result"},
	)

	// InteractionDuration tracks end-to-end handling latency of verified interactions
	InteractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "timesrelay_interaction_duration_seconds",
			Help:    "Interaction handling duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"kind"},
	)

	// SignatureFailuresTotal counts requests rejected by the signature check
	SignatureFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "timesrelay_signature_failures_total",
			Help: "Webhook requests rejected for an invalid Ed25519 signature",
		},
	)
)

// Channel publishing metrics
var (
	// ChannelPostsTotal counts channel message posts by result (success/failure)
	ChannelPostsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timesrelay_channel_posts_total",
			Help: "Discord channel posts by result",
		},
		[]string{"result"},
	)

	// ChannelPostDuration tracks latency of a single channel post
	ChannelPostDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "timesrelay_channel_post_duration_seconds",
			Help:    "Discord channel post duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)
)

// Store metrics
var (
	// SubscriptionOpsTotal counts subscription store operations by operation and result
	SubscriptionOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timesrelay_subscription_operations_total",
			Help: "Subscription store operations by operation and result",
		},
		[]string{"operation", "result"},
	)
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Result maps a boolean outcome onto a result label.
func Result(ok bool) string {
	if ok {
		return ResultSuccess
	}
	return ResultFailure
}
