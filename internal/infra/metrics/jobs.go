package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(jobsProcessedTotal, jobsQueueDepth, jobDurationSeconds) }

var jobsProcessedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "neurocanvas_jobs_processed_total",
		Help: "Total number of generation jobs reaching a terminal state, labeled by status.",
	},
	[]string{"status"}, // 'completed', 'failed', 'cancelled'
)

var jobsQueueDepth = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "neurocanvas_jobs_queue_depth",
		Help: "Number of jobs currently waiting in the queue.",
	},
)

var jobDurationSeconds = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "neurocanvas_job_duration_seconds",
		Help:    "Wall time from job start to terminal state.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	},
)

func IncJob(status string) {
	jobsProcessedTotal.WithLabelValues(norm(status)).Inc()
}

func SetQueueDepth(n int) {
	jobsQueueDepth.Set(float64(n))
}

func ObserveJobDuration(seconds float64) {
	jobDurationSeconds.Observe(seconds)
}
