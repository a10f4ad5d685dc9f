package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LendingMetrics records borrow/return activity for the circulation desk.
type LendingMetrics struct {
	duration *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
	returns  *prometheus.CounterVec
}

// NewLendingMetrics registers the lending metrics on the provided registerer.
func NewLendingMetrics(reg prometheus.Registerer) *LendingMetrics {
	if reg == nil {
		return &LendingMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lending_operation_duration_seconds",
		Help:    "Duration of lending operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lending_borrow_outcomes",
		Help: "Borrow attempts by outcome.",
	}, []string{"outcome"})
	returns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lending_return_outcomes",
		Help: "Return attempts by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(duration, outcomes, returns)
	return &LendingMetrics{
		duration: duration,
		outcomes: outcomes,
		returns:  returns,
	}
}

// ObserveDuration records the duration for the named lending operation.
func (l *LendingMetrics) ObserveDuration(operation string, duration time.Duration) {
	if l == nil || l.duration == nil {
		return
	}
	l.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncBorrowOutcome increments the borrow counter for the given outcome.
func (l *LendingMetrics) IncBorrowOutcome(outcome string) {
	if l == nil || l.outcomes == nil {
		return
	}
	l.outcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncReturnOutcome increments the return counter for the given outcome.
func (l *LendingMetrics) IncReturnOutcome(outcome string) {
	if l == nil || l.returns == nil {
		return
	}
	l.returns.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(label string) string {
	if label == "" {
		return "unknown"
	}
	return label
}
