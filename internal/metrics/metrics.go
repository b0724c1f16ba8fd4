// Package metrics provides Prometheus metrics for later2pdf.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ConversionsTotal counts conversion requests by format and outcome.
	ConversionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "later2pdf",
			Name:      "conversions_total",
			Help:      "Total number of conversion requests",
		},
		[]string{"format", "status"},
	)

	// ConversionDuration measures end-to-end conversion time.
	ConversionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "later2pdf",
			Name:      "conversion_duration_seconds",
			Help:      "Duration of conversions in seconds",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 60, 120},
		},
		[]string{"format"},
	)

	// ArticlesConverted counts articles included in delivered documents.
	ArticlesConverted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "later2pdf",
			Name:      "articles_converted_total",
			Help:      "Total number of articles included in documents",
		},
		[]string{"format"},
	)

	// ImagesTotal counts image optimizations by outcome.
	ImagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "later2pdf",
			Name:      "images_total",
			Help:      "Total number of images fetched for optimization",
		},
		[]string{"status"},
	)

	// RateLimitedTotal counts rejected requests by route.
	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "later2pdf",
			Name:      "rate_limited_total",
			Help:      "Total number of requests rejected by the rate limiter",
		},
		[]string{"route"},
	)

	// ProgressSubscribers tracks open progress streams.
	ProgressSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "later2pdf",
			Name:      "progress_subscribers",
			Help:      "Number of open progress event streams",
		},
	)
)

// Status label values.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// RecordConversion records one finished conversion.
func RecordConversion(format string, ok bool, seconds float64, articles int) {
	status := StatusFailed
	if ok {
		status = StatusOK
		ArticlesConverted.WithLabelValues(format).Add(float64(articles))
	}
	ConversionsTotal.WithLabelValues(format, status).Inc()
	ConversionDuration.WithLabelValues(format).Observe(seconds)
}

// RecordImage records an image optimization outcome. Its signature matches
// imageopt.WithObserver.
func RecordImage(ok bool) {
	if ok {
		ImagesTotal.WithLabelValues(StatusOK).Inc()
		return
	}
	ImagesTotal.WithLabelValues(StatusFailed).Inc()
}

// RecordRateLimited records a rejected request.
func RecordRateLimited(route string) {
	RateLimitedTotal.WithLabelValues(route).Inc()
}
