// Package observability exposes the service's Prometheus metrics.
package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	ConfirmOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skillpath",
		Subsystem: "attendance",
		Name:      "confirm_outcomes_total",
		Help:      "Attendance confirmation attempts by outcome.",
	}, []string{"outcome"})

	ConfirmDistance = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "skillpath",
		Subsystem: "attendance",
		Name:      "confirm_distance_meters",
		Help:      "Distance between the caller and the activity center at confirmation time.",
		Buckets:   []float64{10, 25, 50, 100, 200, 400, 1000, 5000},
	})

	SkippedRecords = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skillpath",
		Subsystem: "records",
		Name:      "skipped_total",
		Help:      "Malformed records skipped during decoding or aggregation, by reason.",
	}, []string{"reason"})

	ActionsDispatched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skillpath",
		Subsystem: "action",
		Name:      "dispatched_total",
		Help:      "Dispatched row actions by kind and result.",
	}, []string{"kind", "result"})

	QuizAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skillpath",
		Subsystem: "quiz",
		Name:      "attempts_total",
		Help:      "Graded quiz attempts by result.",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(ConfirmOutcomes, ConfirmDistance, SkippedRecords, ActionsDispatched, QuizAttempts)
}

// ObserveConfirm records one confirmation outcome.
func ObserveConfirm(outcome string) {
	ConfirmOutcomes.WithLabelValues(outcome).Inc()
}

func ObserveSkip(reason string) {
	SkippedRecords.WithLabelValues(reason).Inc()
}

func ObserveAction(kind, result string) {
	ActionsDispatched.WithLabelValues(kind, result).Inc()
}

func ObserveQuiz(passed bool) {
	result := "failed"
	if passed {
		result = "passed"
	}
	QuizAttempts.WithLabelValues(result).Inc()
}
