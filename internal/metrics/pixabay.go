package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "pixsearch"

// Upstream (Pixabay) Prometheus metrics.
var (
	PixabayRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pixabay_requests_total",
			Help:      "Total number of Pixabay API requests by outcome",
		},
		[]string{"status"}, // "success" / "rate_limited" / "http_error" / "network_error"
	)

	PixabayRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pixabay_request_duration_seconds",
			Help:      "Pixabay API request duration in seconds (single attempt)",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	PixabayRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pixabay_retries_total",
			Help:      "Total number of requests re-issued after a 429 response",
		},
	)

	PixabayRateLimitRemaining = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pixabay_ratelimit_remaining",
			Help:      "Last X-RateLimit-Remaining value reported by Pixabay",
		},
	)
)

var pixabayMetricsRegistered bool

// RegisterPixabayMetrics registers the upstream client metrics. Must be called once from main.
func RegisterPixabayMetrics() {
	if pixabayMetricsRegistered {
		return
	}
	prometheus.MustRegister(PixabayRequestsTotal)
	prometheus.MustRegister(PixabayRequestDuration)
	prometheus.MustRegister(PixabayRetriesTotal)
	prometheus.MustRegister(PixabayRateLimitRemaining)
	pixabayMetricsRegistered = true
}
