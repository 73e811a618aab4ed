package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session metrics
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "codepad_connections_active",
			Help: "Currently connected sessions",
		},
	)

	RoomsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codepad_rooms_created_total",
			Help: "Total rooms created",
		},
	)

	// Broadcast metrics
	BroadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codepad_broadcasts_total",
			Help: "Total room broadcasts",
		},
		[]string{"type"}, // "status", "code" or "output"
	)

	DeliveriesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codepad_deliveries_dropped_total",
			Help: "Broadcast frames dropped for slow sessions",
		},
	)

	// Execution metrics
	ExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codepad_executions_total",
			Help: "Total sandbox executions",
		},
		[]string{"status"}, // "success", "compile_error", "runtime_error"
	)

	ExecutionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "codepad_execution_duration_seconds",
			Help:    "Wall-clock duration of sandbox executions",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15},
		},
	)
)
