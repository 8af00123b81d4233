// Aisleplan - Wedding Services Marketplace Decision Support
// Copyright 2026 Aisleplan Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aisleplan/aisleplan

// Package metrics defines the Prometheus instrumentation for Aisleplan:
// recommendation pipeline latency, result cache efficiency, catalog fetches
// and circuit breaker state, booking dispatch, and API endpoint throughput.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recommendation pipeline metrics.
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_pipeline_runs_total",
			Help: "Total number of recommendation pipeline runs",
		},
		[]string{"sort_key"},
	)

	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_pipeline_duration_seconds",
			Help:    "Duration of full recommendation pipeline runs in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
	)

	PipelineCatalogSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_pipeline_catalog_size",
			Help:    "Number of catalog services scored per pipeline run",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000},
		},
	)

	ResultCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_result_cache_hits_total",
			Help: "Total number of memoized recommendation set hits",
		},
	)

	ResultCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_result_cache_misses_total",
			Help: "Total number of memoized recommendation set misses",
		},
	)

	// Catalog collaborator metrics.
	CatalogFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_fetches_total",
			Help: "Total number of catalog fetch attempts",
		},
		[]string{"outcome"}, // "success", "error", "breaker_open"
	)

	CatalogFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalog_fetch_duration_seconds",
			Help:    "Duration of catalog fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	CatalogServices = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_services",
			Help: "Number of services in the current catalog snapshot",
		},
	)

	CatalogLastRefresh = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_last_refresh_timestamp",
			Help: "Unix timestamp of the last successful catalog refresh",
		},
	)

	CatalogStaleServes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_stale_serves_total",
			Help: "Total number of requests served from a stale catalog snapshot",
		},
	)

	CatalogBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_breaker_state",
			Help: "Catalog circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// Booking dispatch metrics.
	BookingsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_dispatched_total",
			Help: "Total number of booking requests dispatched",
		},
		[]string{"kind"}, // "service", "package"
	)

	BookingDispatchErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_dispatch_errors_total",
			Help: "Total number of booking dispatch failures",
		},
	)

	// API endpoint metrics.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)
)

// RecordPipelineRun records one full pipeline execution.
func RecordPipelineRun(sortKey string, catalogSize int, duration time.Duration) {
	PipelineRuns.WithLabelValues(sortKey).Inc()
	PipelineDuration.Observe(duration.Seconds())
	PipelineCatalogSize.Observe(float64(catalogSize))
}

// RecordCatalogFetch records one catalog fetch attempt.
func RecordCatalogFetch(outcome string, duration time.Duration) {
	CatalogFetches.WithLabelValues(outcome).Inc()
	if outcome == "success" {
		CatalogFetchDuration.Observe(duration.Seconds())
		CatalogLastRefresh.SetToCurrentTime()
	}
}

// RecordBookingDispatch records one booking dispatch attempt.
func RecordBookingDispatch(kind string, err error) {
	if err != nil {
		BookingDispatchErrors.Inc()
		return
	}
	BookingsDispatched.WithLabelValues(kind).Inc()
}
