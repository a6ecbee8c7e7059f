package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WorkerMetrics provides Prometheus metrics for the batch worker: per-job
// execution metrics plus two gauges tracking configuration fallbacks. The
// worker runs three recurring jobs, so every job metric carries a job
// label: similarity_rebuild, model_retrain, or recompute_all.
type WorkerMetrics struct {
	// JobRunsTotal counts job runs by job name and status
	// (started/success/failure/skipped).
	JobRunsTotal *prometheus.CounterVec

	// JobDurationSeconds measures job execution time per job name.
	JobDurationSeconds *prometheus.HistogramVec

	// JobLastSuccessTimestamp records the Unix timestamp of the last
	// successful run per job name.
	JobLastSuccessTimestamp *prometheus.GaugeVec

	// ConfigFallbacksTotal counts environment values that failed
	// validation at startup, by field.
	ConfigFallbacksTotal *prometheus.CounterVec

	// ConfigFallbackActive is 1 while the running worker uses at least
	// one fallback default instead of its configured value.
	ConfigFallbackActive prometheus.Gauge
}

// NewWorkerMetrics creates a WorkerMetrics instance. Metrics register
// with the default registry via promauto.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		JobRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_job_runs_total",
			Help: "Total number of job runs by job name and status",
		}, []string{"job", "status"}),

		JobDurationSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "worker_job_duration_seconds",
			Help:    "Duration of job execution in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
		}, []string{"job"}),

		JobLastSuccessTimestamp: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "worker_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful run per job",
		}, []string{"job"}),

		ConfigFallbacksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_config_fallbacks_total",
			Help: "Total number of configuration values replaced by their defaults",
		}, []string{"field"}),

		ConfigFallbackActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "worker_config_fallback_active",
			Help: "1 if any configuration fallback is active, 0 otherwise",
		}),
	}
}

// RecordJobRun increments the run counter for a job.
func (m *WorkerMetrics) RecordJobRun(job, status string) {
	m.JobRunsTotal.WithLabelValues(job, status).Inc()
}

// RecordJobDuration observes a job's execution time in seconds.
func (m *WorkerMetrics) RecordJobDuration(job string, seconds float64) {
	m.JobDurationSeconds.WithLabelValues(job).Observe(seconds)
}

// RecordLastSuccess records the current time as a job's last
// successful completion.
func (m *WorkerMetrics) RecordLastSuccess(job string) {
	m.JobLastSuccessTimestamp.WithLabelValues(job).SetToCurrentTime()
}

// RecordConfigFallback counts one environment value that failed
// validation and reverted to its default.
func (m *WorkerMetrics) RecordConfigFallback(field string) {
	m.ConfigFallbacksTotal.WithLabelValues(field).Inc()
}

// SetConfigFallbackActive reports whether any fallback default is in
// effect for the running process.
func (m *WorkerMetrics) SetConfigFallbackActive(active bool) {
	if active {
		m.ConfigFallbackActive.Set(1)
	} else {
		m.ConfigFallbackActive.Set(0)
	}
}
