package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

// JobMetrics records housekeeping job runs.
type JobMetrics struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	affected *prometheus.CounterVec
}

func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	if reg == nil {
		return &JobMetrics{}
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cron_job_runs_total",
		Help: "Cron job runs by job and result.",
	}, []string{"job", "result"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cron_job_duration_seconds",
		Help:    "Duration of cron jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	affected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cron_job_rows_affected_total",
		Help: "Rows changed by cron jobs.",
	}, []string{"job"})
	reg.MustRegister(runs, duration, affected)
	return &JobMetrics{runs: runs, duration: duration, affected: affected}
}

// ObserveRun records one run; a non-nil err counts as a failure.
func (m *JobMetrics) ObserveRun(job string, elapsed time.Duration, err error) {
	if m == nil || m.runs == nil {
		return
	}
	result := resultSuccess
	if err != nil {
		result = resultFailure
	}
	m.runs.WithLabelValues(normalizeLabel(job), result).Inc()
	m.duration.WithLabelValues(normalizeLabel(job)).Observe(elapsed.Seconds())
}

func (m *JobMetrics) AddAffected(job string, rows int64) {
	if m == nil || m.affected == nil || rows <= 0 {
		return
	}
	m.affected.WithLabelValues(normalizeLabel(job)).Add(float64(rows))
}
