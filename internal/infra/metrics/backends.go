package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(generationsTotal, generationSeconds, backendAvgScore) }

var generationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "neurocanvas_generations_total",
		Help: "Backend generation attempts, labeled by backend and outcome.",
	},
	[]string{"backend", "status"}, // 'ok', 'error'
)

var generationSeconds = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "neurocanvas_generation_seconds",
		Help:    "Latency of a single backend generation.",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
	},
	[]string{"backend"},
)

var backendAvgScore = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "neurocanvas_backend_avg_score",
		Help: "Cross-user running average quality score per backend.",
	},
	[]string{"backend"},
)

func IncGeneration(backend, status string) {
	generationsTotal.WithLabelValues(norm(backend), norm(status)).Inc()
}

func ObserveGenerationSeconds(backend string, seconds float64) {
	generationSeconds.WithLabelValues(norm(backend)).Observe(seconds)
}

func SetBackendAvgScore(backend string, score float64) {
	backendAvgScore.WithLabelValues(norm(backend)).Set(score)
}
