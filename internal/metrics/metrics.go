// MeepleMind - Board Game Catalog and Recommendation Service
// Copyright 2026 MeepleMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meeplemind/recommender

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - Recommendation requests, cache efficiency and engine latency
// - MongoDB query performance
// - API endpoint latency and throughput

var (
	// Recommendation Metrics
	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_requests_total",
			Help: "Total number of recommendation requests by algorithm",
		},
		[]string{"algorithm", "cache"},
	)

	RecommendationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_errors_total",
			Help: "Total number of failed recommendation computations",
		},
		[]string{"algorithm"},
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_compute_duration_seconds",
			Help:    "Duration of engine score computations in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"algorithm"},
	)

	CacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_cache_invalidations_total",
			Help: "Total number of per-user cache invalidations",
		},
	)

	PrecomputeRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_precompute_runs_total",
			Help: "Total number of background precompute runs by outcome",
		},
		[]string{"algorithm", "outcome"},
	)

	// MongoDB Metrics
	MongoQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mongo_query_duration_seconds",
			Help:    "Duration of MongoDB operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "collection"},
	)

	MongoQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mongo_query_errors_total",
			Help: "Total number of MongoDB operation errors",
		},
		[]string{"operation", "collection"},
	)

	// API Endpoint Metrics
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
)

// RecordRecommendation records a served recommendation request.
func RecordRecommendation(algorithm string, cacheHit bool, duration time.Duration) {
	cache := "miss"
	if cacheHit {
		cache = "hit"
	}
	RecommendationRequests.WithLabelValues(algorithm, cache).Inc()
	if !cacheHit {
		RecommendationDuration.WithLabelValues(algorithm).Observe(duration.Seconds())
	}
}

// RecordRecommendationError records a failed computation.
func RecordRecommendationError(algorithm string) {
	RecommendationErrors.WithLabelValues(algorithm).Inc()
}

// RecordPrecompute records the outcome of one background precompute run.
func RecordPrecompute(algorithm string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	PrecomputeRuns.WithLabelValues(algorithm, outcome).Inc()
}

// RecordMongoQuery records a MongoDB operation's duration and outcome.
func RecordMongoQuery(operation, collection string, duration time.Duration, err error) {
	MongoQueryDuration.WithLabelValues(operation, collection).Observe(duration.Seconds())
	if err != nil {
		MongoQueryErrors.WithLabelValues(operation, collection).Inc()
	}
}

// RecordAPIRequest records an HTTP request's status and latency.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
