// MeepleMind - Board Game Catalog and Recommendation Service
// Copyright 2026 MeepleMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meeplemind/recommender

// Package main is the entry point for the MeepleMind recommendation
// server.
//
// MeepleMind serves a board game catalog stored in MongoDB and computes
// personalized recommendations with four algorithms: popularity,
// content-based, user-based collaborative filtering, and item-based
// KNN. Computed lists are cached per (user, algorithm) with a TTL and
// invalidated whenever the user's ratings change.
//
// # Startup Order
//
//  1. Configuration: Koanf v2 layered loading (defaults, YAML, env)
//  2. Logging: zerolog, JSON by default
//  3. MongoDB: connect, ping, ensure indexes
//  4. Stores and engine registry: explicit dependency injection
//  5. HTTP server: Chi router with graceful shutdown on SIGINT/SIGTERM
//
// # Example Usage
//
//	export MEEPLE_MONGO__URI=mongodb://localhost:27017
//	export MEEPLE_MONGO__DATABASE=meeplemind
//	./meeplemind-server
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/meeplemind/recommender/internal/api"
	"github.com/meeplemind/recommender/internal/config"
	"github.com/meeplemind/recommender/internal/database"
	"github.com/meeplemind/recommender/internal/logging"
	"github.com/meeplemind/recommender/internal/recommend"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	logging.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Msg("Starting MeepleMind server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Connect(ctx, database.Config{
		URI:            cfg.Mongo.URI,
		Database:       cfg.Mongo.Database,
		ConnectTimeout: cfg.Mongo.ConnectTimeout,
		QueryTimeout:   cfg.Mongo.QueryTimeout,
	}, logging.WithComponent("database"))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer func() {
		if err := db.Close(context.Background()); err != nil {
			logging.Error().Err(err).Msg("Failed to close MongoDB connection")
		}
	}()

	if err := db.EnsureIndexes(ctx); err != nil {
		logging.Fatal().Err(err).Msg("Failed to ensure MongoDB indexes")
	}

	games := database.NewGameStore(db)
	ratings := database.NewRatingStore(db)
	similarities := database.NewSimilarityStore(db)
	recommendations := database.NewRecommendationStore(db)
	provider := database.NewProvider(games, ratings, similarities, recommendations)

	service := recommend.NewService(
		cfg.Recommend.Service,
		logging.Logger(),
		provider, // RatingSource
		provider, // CacheStore
		provider, // GameCatalog
	)
	service.Register(recommend.NewPopularityEngine(cfg.Recommend.Popularity, provider))
	service.Register(recommend.NewContentEngine(cfg.Recommend.Content, provider))
	service.Register(recommend.NewCollaborativeEngine(cfg.Recommend.Collaborative, provider))
	service.Register(recommend.NewKNNEngine(cfg.Recommend.KNN, provider))

	handler := api.NewHandler(service, games, ratings, db)
	router := api.NewRouter(handler, api.RouterConfig{
		CORSAllowedOrigins: []string{"*"},
		RateLimitReqs:      cfg.Server.RateLimitReqs,
		RateLimitWindow:    cfg.Server.RateLimitWindow,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("HTTP server failed")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Graceful shutdown failed")
	}

	logging.Info().Msg("Server stopped gracefully")
}
