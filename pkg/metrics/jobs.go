package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storefront"

// Job run results.
const (
	JobOK     = "ok"
	JobFailed = "failed"
)

// JobMetrics times the recurring loops: outbox drains and janitor tasks.
type JobMetrics struct {
	runs    *prometheus.CounterVec
	elapsed *prometheus.HistogramVec
}

// NewJobMetrics registers on reg. A nil reg yields a recorder that drops everything.
func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	if reg == nil {
		return &JobMetrics{}
	}
	m := &JobMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Background job runs by result.",
		}, []string{"job", "result"}),
		elapsed: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_run_seconds",
			Help:      "Wall time of one background job run.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"job"}),
	}
	reg.MustRegister(m.runs, m.elapsed)
	return m
}

// Observe records one run of job. A non-nil err counts it as failed.
func (m *JobMetrics) Observe(job string, elapsed time.Duration, err error) {
	if m == nil || m.runs == nil {
		return
	}
	job = orUnknown(job)
	result := JobOK
	if err != nil {
		result = JobFailed
	}
	m.runs.WithLabelValues(job, result).Inc()
	m.elapsed.WithLabelValues(job).Observe(elapsed.Seconds())
}

func orUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
