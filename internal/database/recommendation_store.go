// MeepleMind - Board Game Catalog and Recommendation Service
// Copyright 2026 MeepleMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meeplemind/recommender

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/meeplemind/recommender/internal/metrics"
	"github.com/meeplemind/recommender/internal/models"
)

// RecommendationStore persists computed recommendation lists, one
// document per (user, algorithm) pair.
type RecommendationStore struct {
	db *DB
}

// NewRecommendationStore creates a recommendation store.
func NewRecommendationStore(db *DB) *RecommendationStore {
	return &RecommendationStore{db: db}
}

// FindLive returns the cached recommendation for (user, algorithm) if it
// has not expired, or nil when no live entry exists.
func (s *RecommendationStore) FindLive(ctx context.Context, userID, algorithm string) (*models.Recommendation, error) {
	ctx, cancel := s.db.opContext(ctx)
	defer cancel()

	filter := bson.M{
		"userId":    userID,
		"algorithm": algorithm,
		"expiresAt": bson.M{"$gt": time.Now().UTC()},
	}

	start := time.Now()
	var rec models.Recommendation
	err := s.db.Recommendations().FindOne(ctx, filter).Decode(&rec)
	metrics.RecordMongoQuery("findOne", CollectionRecommendations, time.Since(start), err)

	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find recommendation: %w", err)
	}
	return &rec, nil
}

// Save stores a recommendation list, replacing any previous document for
// the same (user, algorithm) pair.
func (s *RecommendationStore) Save(ctx context.Context, rec *models.Recommendation) error {
	ctx, cancel := s.db.opContext(ctx)
	defer cancel()

	filter := bson.M{"userId": rec.UserID, "algorithm": rec.Algorithm}

	start := time.Now()
	_, err := s.db.Recommendations().ReplaceOne(ctx, filter, rec,
		options.Replace().SetUpsert(true))
	metrics.RecordMongoQuery("upsert", CollectionRecommendations, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("save recommendation: %w", err)
	}
	return nil
}

// DeleteByUser removes every cached recommendation for a user, across
// all algorithms. Returns the number of documents removed.
func (s *RecommendationStore) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := s.db.opContext(ctx)
	defer cancel()

	start := time.Now()
	res, err := s.db.Recommendations().DeleteMany(ctx, bson.M{"userId": userID})
	metrics.RecordMongoQuery("deleteMany", CollectionRecommendations, time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("delete recommendations for user %s: %w", userID, err)
	}
	return res.DeletedCount, nil
}
