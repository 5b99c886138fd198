package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for verification runs.
type Metrics struct {
	// Batch outcomes: "ok", or the provider error category
	BatchOutcome *prometheus.CounterVec

	// Per-batch session latency by outcome
	BatchLatency *prometheus.HistogramVec

	// Record verdicts
	Verdicts *prometheus.CounterVec

	// Rows dropped before batching by reason
	RowsSkipped *prometheus.CounterVec

	// Whole-run latency by result: "completed", "failed", "canceled"
	RunLatency *prometheus.HistogramVec
}

// New creates a new Metrics instance registered with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BatchOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vatcheck_batches_total",
			Help: "Total registry batches looked up by outcome",
		}, []string{"outcome"}),

		BatchLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vatcheck_batch_duration_seconds",
			Help:    "Duration of one registry batch lookup including page extraction",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}, []string{"outcome"}),

		Verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vatcheck_verdicts_total",
			Help: "Total record verdicts",
		}, []string{"verdict"}),

		RowsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vatcheck_rows_skipped_total",
			Help: "Input rows not looked up by reason",
		}, []string{"reason"}), // reason: "excluded", "duplicate"

		RunLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vatcheck_run_duration_seconds",
			Help:    "Duration of a full verification run",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}, []string{"result"}),
	}
}

// ObserveBatch records one batch lookup.
func (m *Metrics) ObserveBatch(outcome string, d time.Duration) {
	if m != nil {
		m.BatchOutcome.WithLabelValues(outcome).Inc()
		m.BatchLatency.WithLabelValues(outcome).Observe(d.Seconds())
	}
}

// IncrementVerdict records a record verdict.
func (m *Metrics) IncrementVerdict(verdict string) {
	if m != nil {
		m.Verdicts.WithLabelValues(verdict).Inc()
	}
}

// AddSkipped records rows dropped before batching.
func (m *Metrics) AddSkipped(reason string, n int) {
	if m != nil && n > 0 {
		m.RowsSkipped.WithLabelValues(reason).Add(float64(n))
	}
}

// ObserveRun records the total run duration.
func (m *Metrics) ObserveRun(result string, d time.Duration) {
	if m != nil {
		m.RunLatency.WithLabelValues(result).Observe(d.Seconds())
	}
}
