// MeepleMind - Board Game Catalog and Recommendation Service
// Copyright 2026 MeepleMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meeplemind/recommender

// Package database provides MongoDB-backed stores for the catalog,
// ratings, precomputed similarities and the recommendation cache.
//
// Store methods are thin, typed wrappers over collection operations; all
// recommendation logic lives in the recommend package, which consumes the
// stores through its provider interfaces (see provider.go).
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names.
const (
	CollectionGames            = "games"
	CollectionRatings          = "ratings"
	CollectionRecommendations  = "recommendations"
	CollectionGameSimilarities = "gameSimilarities"
)

// Config holds MongoDB connection parameters.
type Config struct {
	// URI is the MongoDB connection string.
	URI string

	// Database is the database name.
	Database string

	// ConnectTimeout bounds the initial connection and ping.
	// Default: 10s.
	ConnectTimeout time.Duration

	// QueryTimeout bounds individual store operations.
	// Default: 15s.
	QueryTimeout time.Duration
}

// DB wraps a MongoDB database handle and exposes typed stores.
type DB struct {
	client       *mongo.Client
	db           *mongo.Database
	queryTimeout time.Duration
	logger       zerolog.Logger
}

// Connect establishes a MongoDB connection and verifies it with a ping.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Connect(ctx context.Context, cfg Config, logger zerolog.Logger) (*DB, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("mongo database name is required")
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 15 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	logger = logger.With().Str("component", "database").Logger()
	logger.Info().Str("database", cfg.Database).Msg("connected to mongodb")

	return &DB{
		client:       client,
		db:           client.Database(cfg.Database),
		queryTimeout: cfg.QueryTimeout,
		logger:       logger,
	}, nil
}

// Close disconnects the underlying client.
func (d *DB) Close(ctx context.Context) error {
	if err := d.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongodb: %w", err)
	}
	return nil
}

// Ping verifies the connection is alive. Used by readiness checks.
func (d *DB) Ping(ctx context.Context) error {
	ctx, cancel := d.opContext(ctx)
	defer cancel()
	return d.client.Ping(ctx, readpref.Primary())
}

// Games returns the games collection handle.
func (d *DB) Games() *mongo.Collection { return d.db.Collection(CollectionGames) }

// Ratings returns the ratings collection handle.
func (d *DB) Ratings() *mongo.Collection { return d.db.Collection(CollectionRatings) }

// Recommendations returns the recommendations collection handle.
func (d *DB) Recommendations() *mongo.Collection { return d.db.Collection(CollectionRecommendations) }

// GameSimilarities returns the gameSimilarities collection handle.
func (d *DB) GameSimilarities() *mongo.Collection { return d.db.Collection(CollectionGameSimilarities) }

// opContext applies the configured query timeout to an operation.
func (d *DB) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d.queryTimeout)
}
