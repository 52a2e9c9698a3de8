package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTP request counter by route template and status code
	RequestsTotal *prometheus.CounterVec

	// HTTP request latency
	RequestDuration *prometheus.HistogramVec

	// Generation outcomes (ok, invalid, unknown_model, missing_credential, upstream_error, no_images)
	GenerationsTotal *prometheus.CounterVec

	// Upstream inference latency
	UpstreamDuration *prometheus.HistogramVec
)

func init() {
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "genstudio",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "genstudio",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 120},
		},
		[]string{"method", "route"},
	)

	GenerationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "genstudio",
			Subsystem: "generation",
			Name:      "requests_total",
			Help:      "Generation requests by model and outcome",
		},
		[]string{"model", "outcome"},
	)

	UpstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "genstudio",
			Subsystem: "upstream",
			Name:      "run_duration_seconds",
			Help:      "Duration of upstream model runs in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
		},
		[]string{"model", "status"},
	)

	prometheus.MustRegister(RequestsTotal, RequestDuration, GenerationsTotal, UpstreamDuration)
}

// RecordGeneration counts one finished generation request.
func RecordGeneration(model, outcome string) {
	GenerationsTotal.WithLabelValues(model, outcome).Inc()
}

// RecordUpstream observes the duration of one upstream run.
func RecordUpstream(model, status string, seconds float64) {
	UpstreamDuration.WithLabelValues(model, status).Observe(seconds)
}
