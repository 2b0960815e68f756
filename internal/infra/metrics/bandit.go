package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(selectionsTotal, feedbackTotal) }

var selectionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "neurocanvas_bandit_selections_total",
		Help: "Backend selections, labeled by algorithm, arm and explore/exploit mode.",
	},
	[]string{"algorithm", "arm", "mode"},
)

var feedbackTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "neurocanvas_feedback_total",
		Help: "Accepted feedback events, labeled by action and backend.",
	},
	[]string{"action", "backend"},
)

func IncSelection(algorithm, arm string, exploring bool) {
	mode := "exploit"
	if exploring {
		mode = "explore"
	}
	selectionsTotal.WithLabelValues(norm(algorithm), norm(arm), mode).Inc()
}

func IncFeedback(action, backend string) {
	feedbackTotal.WithLabelValues(norm(action), norm(backend)).Inc()
}
