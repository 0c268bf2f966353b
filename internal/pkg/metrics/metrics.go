package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WorkerMetrics holds the Prometheus metrics for the job worker:
// overall job throughput/latency plus per-stage compression pipeline
// detail.
type WorkerMetrics struct {
	JobsTotal       *prometheus.CounterVec
	JobDuration     *prometheus.HistogramVec
	JobErrorsTotal  *prometheus.CounterVec
	PipelineStage   *prometheus.HistogramVec
	PipelineSavings *prometheus.HistogramVec
	CandidateSize   *prometheus.HistogramVec
}

// NewWorkerMetrics creates and registers the worker metrics.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		JobsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zenpdf_jobs_total",
				Help: "Total number of jobs terminated, by tool and outcome.",
			},
			[]string{"tool", "outcome"},
		),
		JobDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "zenpdf_job_duration_seconds",
				Help:    "End-to-end job duration from claim to terminal event.",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"tool"},
		),
		JobErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zenpdf_job_errors_total",
				Help: "Total number of job failures, by tool and error class.",
			},
			[]string{"tool", "class"},
		),
		PipelineStage: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "zenpdf_compression_stage_duration_seconds",
				Help:    "Duration of one compression pipeline stage.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage", "ok"},
		),
		PipelineSavings: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "zenpdf_compression_savings_percent",
				Help:    "Percentage size reduction achieved by the compression pipeline.",
				Buckets: []float64{0, 5, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			},
			[]string{"method"},
		),
		CandidateSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "zenpdf_compression_candidate_bytes",
				Help:    "Size in bytes of each validated compression candidate.",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 12),
			},
			[]string{"method"},
		),
	}
}
