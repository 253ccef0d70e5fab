package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Write outcome labels recorded by the coordinator.
const (
	OutcomeApplied  = "applied"
	OutcomeFailed   = "failed"
	OutcomePartial  = "partial"
	OutcomeUnknown  = "unknown"
	OutcomeRejected = "rejected"
)

// Metrics contains all write-path metrics (not entity-specific)
type Metrics struct {
	// Coordinator metrics
	WritesTotal          *prometheus.CounterVec
	WriteDuration        *prometheus.HistogramVec
	CompensationsTotal   *prometheus.CounterVec
	UnknownOutcomesTotal *prometheus.CounterVec

	// Store client metrics
	StoreUp                *prometheus.GaugeVec
	StoreOperationDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all write-path metrics
func NewMetrics() *Metrics {
	return &Metrics{
		WritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bookgraph",
				Subsystem: "writes",
				Name:      "total",
				Help:      "Total number of logical writes by kind, operation and outcome",
			},
			[]string{"kind", "op", "outcome"},
		),

		WriteDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "bookgraph",
				Subsystem: "writes",
				Name:      "duration_seconds",
				Help:      "End-to-end duration of logical writes through both stores",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind", "op"},
		),

		CompensationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bookgraph",
				Subsystem: "writes",
				Name:      "compensations_total",
				Help:      "Compensating document writes by kind and result (reversed, failed)",
			},
			[]string{"kind", "result"},
		),

		UnknownOutcomesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bookgraph",
				Subsystem: "writes",
				Name:      "unknown_outcomes_total",
				Help:      "Commit calls interrupted before the store acknowledged them",
			},
			[]string{"kind", "store"},
		),

		StoreUp: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "bookgraph",
				Subsystem: "store",
				Name:      "up",
				Help:      "Store reachability (1=reachable, 0=unreachable)",
			},
			[]string{"store"},
		),

		StoreOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "bookgraph",
				Subsystem: "store",
				Name:      "operation_duration_seconds",
				Help:      "Duration of individual store operations",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"store", "operation"},
		),
	}
}

// RecordWrite records the outcome of one logical write.
func (m *Metrics) RecordWrite(kind, op, outcome string, elapsed time.Duration) {
	m.WritesTotal.WithLabelValues(kind, op, outcome).Inc()
	m.WriteDuration.WithLabelValues(kind, op).Observe(elapsed.Seconds())
}

// RecordCompensation records a compensating document write.
func (m *Metrics) RecordCompensation(kind string, reversed bool) {
	result := "reversed"
	if !reversed {
		result = "failed"
	}
	m.CompensationsTotal.WithLabelValues(kind, result).Inc()
}

// RecordUnknownOutcome records an interrupted commit.
func (m *Metrics) RecordUnknownOutcome(kind, store string) {
	m.UnknownOutcomesTotal.WithLabelValues(kind, store).Inc()
}

// SetStoreUp records store reachability from the health pinger.
func (m *Metrics) SetStoreUp(store string, up bool) {
	v := 0.0
	if up {
		v = 1.0
	}
	m.StoreUp.WithLabelValues(store).Set(v)
}

// ObserveStoreOperation records the duration of one store call.
func (m *Metrics) ObserveStoreOperation(store, operation string, elapsed time.Duration) {
	m.StoreOperationDuration.WithLabelValues(store, operation).Observe(elapsed.Seconds())
}
