package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for SubmissionOutcome.
const (
	OutcomeSaved     = "saved"
	OutcomeInvalid   = "invalid"
	OutcomeBusy      = "busy"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// Metrics provides observability for user record intake.
type Metrics struct {
	// Submission outcomes: saved, invalid, busy, failed, cancelled
	SubmissionOutcome *prometheus.CounterVec

	// Validation failures by field
	ValidationFailures *prometheus.CounterVec

	// Insert latency on the single connection
	InsertLatency prometheus.Histogram

	// Time spent waiting for the connection slot
	QueueWait prometheus.Histogram

	// Submissions currently holding the connection
	ActiveSubmissions prometheus.Gauge
}

// New creates a Metrics instance registered with reg.
// A nil reg falls back to the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		SubmissionOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "userdata_submissions_total",
			Help: "Total user record submissions by outcome",
		}, []string{"outcome"}),

		ValidationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "userdata_validation_failures_total",
			Help: "Total validation failures by field",
		}, []string{"field"}),

		InsertLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "userdata_insert_duration_seconds",
			Help:    "Duration of user row inserts",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		QueueWait: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "userdata_queue_wait_seconds",
			Help:    "Time a submission waited for the database connection",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}),

		ActiveSubmissions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "userdata_active_submissions",
			Help: "Submissions currently holding the database connection",
		}),
	}
}

// IncrementOutcome records a submission outcome.
func (m *Metrics) IncrementOutcome(outcome string) {
	if m != nil {
		m.SubmissionOutcome.WithLabelValues(outcome).Inc()
	}
}

// IncrementValidationFailure records a rejected field.
func (m *Metrics) IncrementValidationFailure(field string) {
	if m != nil {
		m.ValidationFailures.WithLabelValues(field).Inc()
	}
}

// ObserveInsertLatency records the duration of one insert.
func (m *Metrics) ObserveInsertLatency(d time.Duration) {
	if m != nil {
		m.InsertLatency.Observe(d.Seconds())
	}
}

// ObserveQueueWait records how long a submission waited for the slot.
func (m *Metrics) ObserveQueueWait(d time.Duration) {
	if m != nil {
		m.QueueWait.Observe(d.Seconds())
	}
}

// SetActive sets the number of submissions holding the connection.
func (m *Metrics) SetActive(n int) {
	if m != nil {
		m.ActiveSubmissions.Set(float64(n))
	}
}
