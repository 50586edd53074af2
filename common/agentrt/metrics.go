package agentrt

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesTotal counts inbound bus messages by agent and kind.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vocal_agent_messages_total",
			Help: "Total number of bus messages received",
		},
		[]string{"agent", "kind"},
	)

	// HandlerErrors counts handler failures by agent and kind.
	HandlerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vocal_agent_handler_errors_total",
			Help: "Total number of message handler errors",
		},
		[]string{"agent", "kind"},
	)

	// RateLimited counts requests rejected by the per-sender quota.
	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vocal_agent_rate_limited_total",
			Help: "Total number of rate-limited requests",
		},
		[]string{"agent"},
	)

	// HandleDuration observes handler latency by agent and kind.
	HandleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vocal_agent_handle_duration_seconds",
			Help:    "Duration of message handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"agent", "kind"},
	)
)
