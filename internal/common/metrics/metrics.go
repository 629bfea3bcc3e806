// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coordinator_upstream_requests_total",
			Help: "Total number of upstream marketplace API requests",
		},
		[]string{"operation", "outcome"},
	)

	LifecycleTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coordinator_lifecycle_transitions_total",
			Help: "Total number of engagement status transitions applied",
		},
		[]string{"entity", "status"},
	)

	TransitionsRefused = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coordinator_transitions_refused_total",
			Help: "Total number of transitions refused by the local lifecycle guard",
		},
		[]string{"entity", "error_code"},
	)

	ConversationsDerived = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "coordinator_conversations_derived",
			Help: "Number of conversations produced by the last derivation",
		},
		[]string{"viewer_role"},
	)
)
