package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the proofing context.
type Metrics struct {
	// Vendor call latency by stage and outcome (passed, failed, exception)
	StageLatency *prometheus.HistogramVec

	// Proofing job outcomes by status: succeeded, failed, stale, invalid
	JobOutcome *prometheus.CounterVec

	// End-to-end job duration
	JobDuration prometheus.Histogram

	// Adjudicated results by success
	ProofingOutcome *prometheus.CounterVec

	// Ledger appends that failed, by cost type
	CostRecordFailures *prometheus.CounterVec

	// Shadow-mode jobs enqueued
	ShadowEnqueued prometheus.Counter
}

// New registers the proofing metrics on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		StageLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idv_proofing_stage_duration_seconds",
			Help:    "Duration of vendor proofing stages",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
		}, []string{"stage", "outcome"}),

		JobOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "idv_proofing_jobs_total",
			Help: "Total proofing jobs by terminal status",
		}, []string{"status"}),

		JobDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "idv_proofing_job_duration_seconds",
			Help:    "Duration of a proofing job including result storage",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),

		ProofingOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "idv_proofing_results_total",
			Help: "Adjudicated proofing results by success",
		}, []string{"success"}),

		CostRecordFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "idv_proofing_cost_record_failures_total",
			Help: "Vendor cost ledger appends that failed",
		}, []string{"cost_type"}),

		ShadowEnqueued: factory.NewCounter(prometheus.CounterOpts{
			Name: "idv_proofing_shadow_jobs_enqueued_total",
			Help: "Shadow-mode comparison jobs enqueued",
		}),
	}
}

// ObserveStage records the duration and outcome of one vendor stage.
func (m *Metrics) ObserveStage(stage, outcome string, d time.Duration) {
	if m != nil {
		m.StageLatency.WithLabelValues(stage, outcome).Observe(d.Seconds())
	}
}

// IncrementJob records a terminal job status.
func (m *Metrics) IncrementJob(status string) {
	if m != nil {
		m.JobOutcome.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) ObserveJobDuration(d time.Duration) {
	if m != nil {
		m.JobDuration.Observe(d.Seconds())
	}
}

// IncrementOutcome records an adjudicated result.
func (m *Metrics) IncrementOutcome(success bool) {
	if m != nil {
		label := "false"
		if success {
			label = "true"
		}
		m.ProofingOutcome.WithLabelValues(label).Inc()
	}
}

// IncrementCostFailure is shaped to plug into costs.WithErrorHook.
func (m *Metrics) IncrementCostFailure(costType string) {
	if m != nil {
		m.CostRecordFailures.WithLabelValues(costType).Inc()
	}
}

func (m *Metrics) IncrementShadowEnqueued() {
	if m != nil {
		m.ShadowEnqueued.Inc()
	}
}
