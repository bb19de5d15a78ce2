package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboardly_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "onboardly_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	// chat pipeline metrics
	ChatTurns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "onboardly_chat_turns_total",
			Help: "Total chat turns handled",
		},
	)

	ModerationBlocked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "onboardly_moderation_blocked_total",
			Help: "Chat turns denied by the moderation gate",
		},
	)

	ModerationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "onboardly_moderation_failures_total",
			Help: "Moderation classification failures (fail-closed)",
		},
	)

	ToolInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboardly_tool_invocations_total",
			Help: "Tool invocations by tool name",
		},
		[]string{"tool"},
	)

	StreamFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "onboardly_stream_failures_total",
			Help: "Generation streams that ended in error",
		},
	)

	// safety sidecar metrics
	AlertsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboardly_safety_alerts_dispatched_total",
			Help: "Safety alerts dispatched by channel",
		},
		[]string{"channel"},
	)

	AlertFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "onboardly_safety_alert_failures_total",
			Help: "Safety alert dispatch failures (never surfaced to users)",
		},
	)
)
