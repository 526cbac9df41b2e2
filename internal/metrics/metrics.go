// Package metrics provides Prometheus metrics for fixture collection lifecycles.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Drop phases.
const (
	PhaseTracked = "tracked"
	PhasePrefix  = "prefix"
)

var (
	// CollectionsTrackedTotal counts collection names handed out by fixtures.
	CollectionsTrackedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fixture_collections_tracked_total",
			Help: "Total number of collection names handed out by fixtures",
		},
	)

	// CollectionsDroppedTotal counts drop requests that completed, by phase.
	CollectionsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixture_collections_dropped_total",
			Help: "Total number of collections dropped by fixtures",
		},
		[]string{"phase"},
	)

	// DropErrorsTotal counts failed drop requests, by phase.
	DropErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixture_drop_errors_total",
			Help: "Total number of failed fixture drop requests",
		},
		[]string{"phase"},
	)

	// DropDuration tracks how long a full drop procedure takes.
	DropDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fixture_drop_duration_seconds",
			Help:    "Fixture drop procedure duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)
)

// RecordTracked records a newly tracked collection name.
func RecordTracked() {
	CollectionsTrackedTotal.Inc()
}

// RecordDrop records a completed drop request.
func RecordDrop(phase string) {
	CollectionsDroppedTotal.WithLabelValues(phase).Inc()
}

// RecordDropError records a failed drop request.
func RecordDropError(phase string) {
	DropErrorsTotal.WithLabelValues(phase).Inc()
}

// ObserveDrop records the duration of a drop procedure.
func ObserveDrop(duration time.Duration) {
	DropDuration.Observe(duration.Seconds())
}
