package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	allocationOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_allocation_operations_total",
			Help: "Capacity operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	seatsDistributed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_waiting_queue_assignments_total",
			Help: "Units assigned to waiting queue subscribers",
		},
		[]string{"event_id"},
	)

	reservationsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inventory_reservations_expired_total",
			Help: "Reservations expired and returned to the pool",
		},
	)

	jobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_job_runs_total",
			Help: "Scheduled job runs by outcome",
		},
		[]string{"job", "outcome"},
	)

	jobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inventory_job_duration_seconds",
			Help:    "Duration of scheduled job runs",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"job"},
	)
)

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeSkipped Outcome = "skipped"
)

type errorKind struct {
	err   error
	label string
}

var kinds []errorKind

// RegisterKind reports errors wrapping err under their own outcome label
// instead of "failure".
func RegisterKind(err error, label string) {
	kinds = append(kinds, errorKind{err: err, label: label})
}

func outcomeOf(err error) string {
	if err == nil {
		return string(OutcomeSuccess)
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.label
		}
	}
	return string(OutcomeFailure)
}

func ObserveAllocation(operation string, err error) {
	allocationOperations.WithLabelValues(operation, outcomeOf(err)).Inc()
}

func SeatsDistributed(eventID uint, n int) {
	if n > 0 {
		seatsDistributed.WithLabelValues(strconv.FormatUint(uint64(eventID), 10)).Add(float64(n))
	}
}

func ReservationExpired() {
	reservationsExpired.Inc()
}

func ObserveJob(job string, outcome Outcome, took time.Duration) {
	jobRuns.WithLabelValues(job, string(outcome)).Inc()
	if outcome != OutcomeSkipped {
		jobDuration.WithLabelValues(job).Observe(took.Seconds())
	}
}
