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
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/meeplemind/recommender/internal/metrics"
	"github.com/meeplemind/recommender/internal/models"
)

// ErrNotFound indicates the requested document does not exist.
var ErrNotFound = errors.New("document not found")

// GameStore reads the board game catalog.
type GameStore struct {
	db *DB
}

// NewGameStore creates a game store.
func NewGameStore(db *DB) *GameStore {
	return &GameStore{db: db}
}

// FindGameByID returns one catalog record, or ErrNotFound.
func (s *GameStore) FindGameByID(ctx context.Context, id primitive.ObjectID) (*models.Game, error) {
	ctx, cancel := s.db.opContext(ctx)
	defer cancel()

	start := time.Now()
	var game models.Game
	err := s.db.Games().FindOne(ctx, bson.M{"_id": id}).Decode(&game)
	metrics.RecordMongoQuery("findOne", CollectionGames, time.Since(start), err)

	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find game %s: %w", id.Hex(), err)
	}
	return &game, nil
}

// FindGamesByIDs returns the catalog records for the given IDs. Missing
// IDs are silently omitted.
func (s *GameStore) FindGamesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Game, error) {
	if len(ids) == 0 {
		return []models.Game{}, nil
	}

	ctx, cancel := s.db.opContext(ctx)
	defer cancel()

	start := time.Now()
	cursor, err := s.db.Games().Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	metrics.RecordMongoQuery("find", CollectionGames, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("find games by ids: %w", err)
	}

	var games []models.Game
	if err := cursor.All(ctx, &games); err != nil {
		return nil, fmt.Errorf("decode games: %w", err)
	}
	return games, nil
}

// ListOptions controls catalog listing.
type ListOptions struct {
	Filter bson.M
	Sort   bson.D
	Skip   int64
	Limit  int64
}

// FindGames lists catalog records. Defaults: no filter, external rating
// average descending, limit 50.
func (s *GameStore) FindGames(ctx context.Context, opts ListOptions) ([]models.Game, error) {
	if opts.Filter == nil {
		opts.Filter = bson.M{}
	}
	if opts.Sort == nil {
		opts.Sort = bson.D{{Key: "bggRating.average", Value: -1}}
	}
	if opts.Limit <= 0 {
		opts.Limit = 50
	}

	ctx, cancel := s.db.opContext(ctx)
	defer cancel()

	start := time.Now()
	cursor, err := s.db.Games().Find(ctx, opts.Filter,
		options.Find().SetSort(opts.Sort).SetSkip(opts.Skip).SetLimit(opts.Limit))
	metrics.RecordMongoQuery("find", CollectionGames, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("find games: %w", err)
	}

	var games []models.Game
	if err := cursor.All(ctx, &games); err != nil {
		return nil, fmt.Errorf("decode games: %w", err)
	}
	return games, nil
}

// SearchGames performs a text search over game names and descriptions,
// ranked by text score.
func (s *GameStore) SearchGames(ctx context.Context, query string, limit int64) ([]models.Game, error) {
	if limit <= 0 {
		limit = 20
	}

	ctx, cancel := s.db.opContext(ctx)
	defer cancel()

	start := time.Now()
	cursor, err := s.db.Games().Find(ctx,
		bson.M{"$text": bson.M{"$search": query}},
		options.Find().
			SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}}).
			SetSort(bson.D{{Key: "score", Value: bson.M{"$meta": "textScore"}}}).
			SetLimit(limit))
	metrics.RecordMongoQuery("textSearch", CollectionGames, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("search games: %w", err)
	}

	var games []models.Game
	if err := cursor.All(ctx, &games); err != nil {
		return nil, fmt.Errorf("decode games: %w", err)
	}
	return games, nil
}

// gameStatsProjection decodes the popularity projection.
type gameStatsProjection struct {
	ID        primitive.ObjectID `bson:"_id"`
	BggRating *struct {
		Average float64 `bson:"average"`
		Count   int     `bson:"count"`
	} `bson:"bggRating"`
}

// GameStats returns aggregate rating stats for all games with at least
// minRatingCount external ratings.
func (s *GameStore) GameStats(ctx context.Context, minRatingCount int) ([]gameStat, error) {
	ctx, cancel := s.db.opContext(ctx)
	defer cancel()

	filter := bson.M{
		"bggRating":       bson.M{"$ne": nil},
		"bggRating.count": bson.M{"$gte": minRatingCount},
	}

	start := time.Now()
	cursor, err := s.db.Games().Find(ctx, filter,
		options.Find().SetProjection(bson.M{"_id": 1, "bggRating.average": 1, "bggRating.count": 1}))
	metrics.RecordMongoQuery("find", CollectionGames, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("find rated games: %w", err)
	}

	var docs []gameStatsProjection
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode game stats: %w", err)
	}

	stats := make([]gameStat, 0, len(docs))
	for _, doc := range docs {
		if doc.BggRating == nil {
			continue
		}
		stats = append(stats, gameStat{
			GameID:  doc.ID,
			Average: doc.BggRating.Average,
			Count:   doc.BggRating.Count,
		})
	}
	return stats, nil
}

// gameStat is the popularity projection of one catalog record.
type gameStat struct {
	GameID  primitive.ObjectID
	Average float64
	Count   int
}

// CandidatesByFeatures returns up to limit games sharing at least one of
// the given categories or mechanics.
func (s *GameStore) CandidatesByFeatures(ctx context.Context, categories, mechanics []string, limit int64) ([]models.Game, error) {
	if len(categories) == 0 && len(mechanics) == 0 {
		return []models.Game{}, nil
	}

	ctx, cancel := s.db.opContext(ctx)
	defer cancel()

	filter := bson.M{"$or": []bson.M{
		{"categories": bson.M{"$in": categories}},
		{"mechanics": bson.M{"$in": mechanics}},
	}}

	start := time.Now()
	cursor, err := s.db.Games().Find(ctx, filter, options.Find().SetLimit(limit))
	metrics.RecordMongoQuery("find", CollectionGames, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("find candidate games: %w", err)
	}

	var games []models.Game
	if err := cursor.All(ctx, &games); err != nil {
		return nil, fmt.Errorf("decode candidate games: %w", err)
	}
	return games, nil
}

// GameBaselines returns the external aggregate rating average per game.
// Games without an aggregate rating are omitted.
func (s *GameStore) GameBaselines(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]float64, error) {
	if len(ids) == 0 {
		return map[primitive.ObjectID]float64{}, nil
	}

	ctx, cancel := s.db.opContext(ctx)
	defer cancel()

	start := time.Now()
	cursor, err := s.db.Games().Find(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"_id": 1, "bggRating.average": 1}))
	metrics.RecordMongoQuery("find", CollectionGames, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("find game baselines: %w", err)
	}

	var docs []gameStatsProjection
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode game baselines: %w", err)
	}

	baselines := make(map[primitive.ObjectID]float64, len(docs))
	for _, doc := range docs {
		if doc.BggRating == nil {
			continue
		}
		baselines[doc.ID] = doc.BggRating.Average
	}
	return baselines, nil
}
