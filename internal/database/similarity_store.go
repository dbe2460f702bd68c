// MeepleMind - Board Game Catalog and Recommendation Service
// Copyright 2026 MeepleMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meeplemind/recommender

package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/meeplemind/recommender/internal/metrics"
	"github.com/meeplemind/recommender/internal/models"
)

// SimilarityStore reads and writes precomputed item-item similarities.
type SimilarityStore struct {
	db *DB
}

// NewSimilarityStore creates a similarity store.
func NewSimilarityStore(db *DB) *SimilarityStore {
	return &SimilarityStore{db: db}
}

// FindSimilarGames returns the similarity documents for the given games.
// Games without a precomputed document are omitted.
func (s *SimilarityStore) FindSimilarGames(ctx context.Context, gameIDs []primitive.ObjectID) ([]models.GameSimilarity, error) {
	if len(gameIDs) == 0 {
		return []models.GameSimilarity{}, nil
	}

	ctx, cancel := s.db.opContext(ctx)
	defer cancel()

	start := time.Now()
	cursor, err := s.db.GameSimilarities().Find(ctx, bson.M{"gameId": bson.M{"$in": gameIDs}})
	metrics.RecordMongoQuery("find", CollectionGameSimilarities, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("find similar games: %w", err)
	}

	var docs []models.GameSimilarity
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode similarities: %w", err)
	}
	return docs, nil
}

// SaveSimilarities replaces the similarity document for each game.
func (s *SimilarityStore) SaveSimilarities(ctx context.Context, docs []models.GameSimilarity) error {
	ctx, cancel := s.db.opContext(ctx)
	defer cancel()

	for _, doc := range docs {
		start := time.Now()
		_, err := s.db.GameSimilarities().ReplaceOne(ctx,
			bson.M{"gameId": doc.GameID}, doc,
			options.Replace().SetUpsert(true))
		metrics.RecordMongoQuery("upsert", CollectionGameSimilarities, time.Since(start), err)
		if err != nil {
			return fmt.Errorf("save similarities for game %s: %w", doc.GameID.Hex(), err)
		}
	}
	return nil
}
