// Package metrics defines Prometheus metrics for pricewatch.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pricewatch"

// HTTP metrics.
var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})

	HealthzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "healthz_up",
		Help:      "1 if the last liveness probe returned 200, 0 otherwise.",
	})

	ReadyzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "readyz_up",
		Help:      "1 if the last readiness probe returned 200, 0 otherwise.",
	})

	RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_requests_total",
		Help:      "Total number of requests rejected by the rate limiter.",
	})
)

// Price history metrics.
var (
	ChartBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "chart_build_duration_seconds",
		Help:      "Duration of chart series construction in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	ChartSyntheticPointsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chart_synthetic_points_total",
		Help:      "Total number of synthesized chart points (empty months, unknown products).",
	})

	SuggestionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "suggestions_total",
		Help:      "Total buy suggestions served, by category.",
	}, []string{"category"})
)

// Tracking metrics.
var (
	TrackingOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tracking_ops_total",
		Help:      "Total tracking state operations, by operation and result.",
	}, []string{"op", "result"})

	TrackingConflictRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tracking_conflict_retries_total",
		Help:      "Total transaction conflict retries during tracking operations.",
	})

	TrackingCountRepairsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tracking_count_repairs_total",
		Help:      "Total products whose tracking_count was repaired by reconciliation.",
	})

	ReconcileDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "reconcile_duration_seconds",
		Help:      "Duration of tracking count reconciliation runs in seconds.",
		Buckets:   prometheus.DefBuckets,
	})
)
