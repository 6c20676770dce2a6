// Package metrics holds the Prometheus collectors exposed at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration observes request latency per route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "labs_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "route", "status"},
	)

	// RPCDuration observes JSON-RPC method latency.
	RPCDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "labs_rpc_duration_seconds",
			Help:    "JSON-RPC method duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"method", "outcome"},
	)

	// Mutations counts experiment mutations by operation and outcome.
	Mutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labs_experiment_mutations_total",
			Help: "Total number of experiment mutations",
		},
		[]string{"operation", "outcome"},
	)

	// ActivityEvents counts events appended to the activity log.
	ActivityEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labs_activity_events_total",
			Help: "Total number of activity events appended",
		},
		[]string{"type"},
	)

	// ToolCalls counts MCP tool invocations.
	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labs_mcp_tool_calls_total",
			Help: "Total number of MCP tool calls",
		},
		[]string{"tool", "outcome"},
	)

	// CacheLookups counts user directory cache lookups by result.
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labs_user_cache_lookups_total",
			Help: "Total number of user cache lookups",
		},
		[]string{"key", "result"},
	)
)

// Outcome labels a result as "ok" or "error".
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordHTTPRequest observes one HTTP request.
func RecordHTTPRequest(method, route, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// RecordRPC observes one JSON-RPC call.
func RecordRPC(method string, err error, duration time.Duration) {
	RPCDuration.WithLabelValues(method, Outcome(err)).Observe(duration.Seconds())
}

// IncrementMutation counts one experiment mutation.
func IncrementMutation(operation string, err error) {
	Mutations.WithLabelValues(operation, Outcome(err)).Inc()
}

// IncrementActivityEvent counts one appended event.
func IncrementActivityEvent(eventType string) {
	ActivityEvents.WithLabelValues(eventType).Inc()
}

// IncrementToolCall counts one MCP tool call.
func IncrementToolCall(tool string, err error) {
	ToolCalls.WithLabelValues(tool, Outcome(err)).Inc()
}

// IncrementCacheLookup counts one cache lookup; result is hit, miss or error.
func IncrementCacheLookup(key, result string) {
	CacheLookups.WithLabelValues(key, result).Inc()
}
