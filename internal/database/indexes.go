// MeepleMind - Board Game Catalog and Recommendation Service
// Copyright 2026 MeepleMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meeplemind/recommender

package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the stores rely on. Creation is
// idempotent; existing indexes are left untouched.
//
// The recommendations TTL index reaps expired cache entries in the
// background, but FindLive still checks expiresAt explicitly so
// correctness never depends on the reaper having run.
func (d *DB) EnsureIndexes(ctx context.Context) error {
	gameIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "bggId", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}}},
		{Keys: bson.D{{Key: "categories", Value: 1}}},
		{Keys: bson.D{{Key: "mechanics", Value: 1}}},
		{Keys: bson.D{{Key: "bggRating.average", Value: -1}}},
		{Keys: bson.D{{Key: "bggRating.count", Value: -1}}},
	}
	if _, err := d.Games().Indexes().CreateMany(ctx, gameIndexes); err != nil {
		return fmt.Errorf("create game indexes: %w", err)
	}

	ratingIndexes := []mongo.IndexModel{
		// One rating per (user, game); upserts serialize on this key.
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "gameId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "gameId", Value: 1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	if _, err := d.Ratings().Indexes().CreateMany(ctx, ratingIndexes); err != nil {
		return fmt.Errorf("create rating indexes: %w", err)
	}

	recommendationIndexes := []mongo.IndexModel{
		// One live entry per (user, algorithm).
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "algorithm", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
	}
	if _, err := d.Recommendations().Indexes().CreateMany(ctx, recommendationIndexes); err != nil {
		return fmt.Errorf("create recommendation indexes: %w", err)
	}

	similarityIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "gameId", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := d.GameSimilarities().Indexes().CreateMany(ctx, similarityIndexes); err != nil {
		return fmt.Errorf("create similarity indexes: %w", err)
	}

	d.logger.Info().Msg("mongodb indexes ensured")
	return nil
}
