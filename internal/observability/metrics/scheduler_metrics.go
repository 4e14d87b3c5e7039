package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SchedulerMetrics instruments background job runs.
type SchedulerMetrics struct {
	jobRuns     *prometheus.CounterVec
	jobErrors   *prometheus.CounterVec
	jobTimeouts *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec

	recoverySent   prometheus.Counter
	recoveryFailed prometheus.Counter
}

var (
	schedulerOnce sync.Once
	schedulerInst *SchedulerMetrics
)

// Scheduler returns the process-wide scheduler metrics, registering the
// instruments on first use.
func Scheduler() *SchedulerMetrics {
	schedulerOnce.Do(func() {
		schedulerInst = newSchedulerMetrics()
	})
	return schedulerInst
}

// ResetSchedulerMetricsForTest clears the singleton so a test can install a
// fresh registry.
func ResetSchedulerMetricsForTest() {
	schedulerOnce = sync.Once{}
	schedulerInst = nil
}

func newSchedulerMetrics() *SchedulerMetrics {
	return &SchedulerMetrics{
		jobRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "privehub_scheduler_job_runs_total",
			Help: "Scheduler job executions by job name.",
		}, []string{"job"}),
		jobErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "privehub_scheduler_job_errors_total",
			Help: "Scheduler job failures by job name.",
		}, []string{"job"}),
		jobTimeouts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "privehub_scheduler_job_timeouts_total",
			Help: "Scheduler jobs that hit their deadline.",
		}, []string{"job"}),
		jobDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "privehub_scheduler_job_duration_seconds",
			Help:    "Scheduler job duration by job name.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		recoverySent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "privehub_recovery_emails_sent_total",
			Help: "Recovery reminder emails accepted by the provider.",
		}),
		recoveryFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "privehub_recovery_emails_failed_total",
			Help: "Recovery reminder emails the provider rejected.",
		}),
	}
}

func (m *SchedulerMetrics) IncJobRun(job string) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job).Inc()
}

func (m *SchedulerMetrics) IncJobError(job string) {
	if m == nil {
		return
	}
	m.jobErrors.WithLabelValues(job).Inc()
}

func (m *SchedulerMetrics) IncJobTimeout(job string) {
	if m == nil {
		return
	}
	m.jobTimeouts.WithLabelValues(job).Inc()
}

func (m *SchedulerMetrics) ObserveJobDuration(job string, d time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

func (m *SchedulerMetrics) AddRecoverySent(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.recoverySent.Add(float64(n))
}

func (m *SchedulerMetrics) AddRecoveryFailed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.recoveryFailed.Add(float64(n))
}
