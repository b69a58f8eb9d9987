// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProfileBuilds counts profile resolutions by mode: full, incremental, cached.
	ProfileBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taste_profile_builds_total",
			Help: "Taste profile resolutions by mode",
		},
		[]string{"mode"},
	)

	ProfileBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taste_profile_build_duration_seconds",
			Help:    "Time spent building a taste profile",
			Buckets: []float64{.01, .05, .1, .5, 1, 2, 5, 10},
		},
		[]string{"mode"},
	)

	// SourcingFailures counts isolated upstream task failures per source label.
	SourcingFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sourcing_task_failures_total",
			Help: "Candidate sourcing tasks that failed and contributed nothing",
		},
		[]string{"source"},
	)

	CandidatePoolSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "candidate_pool_size",
			Help:    "Deduplicated candidate pool size per strategy",
			Buckets: []float64{0, 10, 25, 50, 100, 200, 400, 800},
		},
		[]string{"strategy"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Cache lookups by cache and result",
		},
		[]string{"cache", "result"},
	)

	DetailGateWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "detail_gate_wait_seconds",
			Help:    "Time spent waiting for a metadata detail fetch slot",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route pattern and status code",
		},
		[]string{"route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

func RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(cache, result).Inc()
}
