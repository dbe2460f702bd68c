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
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig tunes the middleware applied to all routes.
type RouterConfig struct {
	CORSAllowedOrigins []string
	RateLimitReqs      int
	RateLimitWindow    time.Duration
}

// NewRouter assembles the HTTP routing table.
func NewRouter(handler *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		MaxAge:         86400,
	}))
	r.Use(RequestMetrics())

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RateLimitByIP(cfg.RateLimitReqs, cfg.RateLimitWindow))

		r.Get("/health", handler.Health)
		r.Get("/algorithms", handler.ListAlgorithms)

		r.Route("/games", func(r chi.Router) {
			r.Get("/", handler.ListGames)
			r.Get("/search", handler.SearchGames)
			r.Get("/{id}", handler.GetGame)
		})

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/ratings", handler.ListRatings)
			r.Put("/ratings/{gameID}", handler.PutRating)
			r.Delete("/ratings/{gameID}", handler.DeleteRating)
			r.Get("/recommendations", handler.GetRecommendations)
		})
	})

	return r
}
