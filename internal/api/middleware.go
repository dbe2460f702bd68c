// MeepleMind - Board Game Catalog and Recommendation Service
// Copyright 2026 MeepleMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meeplemind/recommender

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/meeplemind/recommender/internal/logging"
	"github.com/meeplemind/recommender/internal/metrics"
)

// RequestIDWithLogging injects an X-Request-ID header and threads the ID
// through the logging context so every log line of a request carries it.
func RequestIDWithLogging() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		chiRequestID := chimiddleware.RequestID(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = logging.GenerateRequestID()
				r.Header.Set("X-Request-ID", requestID)
			}
			w.Header().Set("X-Request-ID", requestID)

			ctx := logging.ContextWithRequestID(r.Context(), requestID)
			chiRequestID.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimitByIP limits each client IP to reqs requests per window.
// reqs <= 0 disables the limiter.
func RateLimitByIP(reqs int, window time.Duration) func(http.Handler) http.Handler {
	if reqs <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return httprate.Limit(
		reqs,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			respondError(w, http.StatusTooManyRequests,
				"RATE_LIMIT_EXCEEDED", "Too many requests, slow down", nil)
		}),
	)
}

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestMetrics records per-route Prometheus counters and latency, and
// emits one structured access log line per request. The route pattern
// (not the raw URL) is used as the endpoint label to keep cardinality
// bounded.
func RequestMetrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			pattern := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if rp := rctx.RoutePattern(); rp != "" {
					pattern = rp
				}
			}

			duration := time.Since(start)
			metrics.RecordAPIRequest(r.Method, pattern, rec.status, duration)

			logging.Ctx(r.Context()).Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rec.status).
				Dur("duration", duration).
				Msg("request handled")
		})
	}
}
