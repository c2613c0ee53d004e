package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search session Prometheus metrics.
var (
	SessionTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_transitions_total",
			Help:      "Search session state transitions",
		},
		[]string{"from", "to"},
	)

	SessionStaleResultsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_stale_results_total",
			Help:      "Fetch results discarded because a newer request superseded them",
		},
	)
)

var sessionMetricsRegistered bool

// RegisterSessionMetrics registers session metrics. Must be called once from main.
func RegisterSessionMetrics() {
	if sessionMetricsRegistered {
		return
	}
	prometheus.MustRegister(SessionTransitionsTotal)
	prometheus.MustRegister(SessionStaleResultsTotal)
	sessionMetricsRegistered = true
}

// ObserveTransition counts a session state change.
func ObserveTransition(from, to string) {
	SessionTransitionsTotal.WithLabelValues(from, to).Inc()
}

// NewLiveSessionsGauge reports the sessions currently held in memory by live.
func NewLiveSessionsGauge(live func() int) prometheus.GaugeFunc {
	return prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_live",
			Help:      "Sessions held in memory by in-flight requests",
		},
		func() float64 { return float64(live()) },
	)
}

// NewStoredKeysGauge reports the keys held by the in-process session store.
func NewStoredKeysGauge(stored func() int) prometheus.GaugeFunc {
	return prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_store_keys",
			Help:      "Keys held by the in-process session store, expired ones included until swept",
		},
		func() float64 { return float64(stored()) },
	)
}
