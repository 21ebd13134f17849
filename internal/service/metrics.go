package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	renderCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "savorly_render_cache_requests_total",
			Help: "Rendered recipe cache lookups by result",
		},
		[]string{"result"},
	)

	aiRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "savorly_ai_requests_total",
			Help: "Calls to external AI providers",
		},
		[]string{"provider", "operation", "outcome"},
	)

	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "savorly_ai_request_duration_seconds",
			Help:    "Latency of external AI provider calls",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider", "operation"},
	)

	newsletterDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "savorly_newsletter_deliveries_total",
			Help: "Newsletter emails by outcome",
		},
		[]string{"outcome"},
	)
)

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
