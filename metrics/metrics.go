// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Conversion metrics
var (
	ConversionsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imgconv_conversions_started_total",
			Help: "Total number of conversions started",
		},
		[]string{"format"},
	)

	ConversionsSucceeded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imgconv_conversions_succeeded_total",
			Help: "Total number of conversions that produced output",
		},
		[]string{"format"},
	)

	ConversionsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imgconv_conversions_failed_total",
			Help: "Total number of conversions that failed",
		},
		[]string{"format", "stage"},
	)

	ConversionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "imgconv_conversion_duration_seconds",
			Help:    "Conversion duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"format"},
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imgconv_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "imgconv_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// RegisterHandleGauge exports the number of live registry handles.
func RegisterHandleGauge(live func() float64) {
	promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "imgconv_live_handles",
			Help: "Number of byte buffers currently held by the handle registry",
		},
		live,
	)
}
