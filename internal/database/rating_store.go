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

// RatingStore reads and writes user ratings.
type RatingStore struct {
	db *DB
}

// NewRatingStore creates a rating store.
func NewRatingStore(db *DB) *RatingStore {
	return &RatingStore{db: db}
}

// FindRatingsByUser returns all ratings by one user, newest first.
func (s *RatingStore) FindRatingsByUser(ctx context.Context, userID string) ([]models.Rating, error) {
	ctx, cancel := s.db.opContext(ctx)
	defer cancel()

	start := time.Now()
	cursor, err := s.db.Ratings().Find(ctx,
		bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	metrics.RecordMongoQuery("find", CollectionRatings, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("find ratings for user %s: %w", userID, err)
	}

	var ratings []models.Rating
	if err := cursor.All(ctx, &ratings); err != nil {
		return nil, fmt.Errorf("decode ratings: %w", err)
	}
	return ratings, nil
}

// UpsertRating creates or updates a user's rating for a game and returns
// the resulting document.
func (s *RatingStore) UpsertRating(ctx context.Context, userID string, gameID primitive.ObjectID, score int, origin models.RatingOrigin) (*models.Rating, error) {
	if err := models.ValidateRating(score); err != nil {
		return nil, err
	}
	if origin == "" {
		origin = models.OriginApp
	}

	ctx, cancel := s.db.opContext(ctx)
	defer cancel()

	now := time.Now().UTC()
	filter := bson.M{"userId": userID, "gameId": gameID}
	update := bson.M{
		"$set": bson.M{
			"rating":    score,
			"origin":    origin,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"createdAt": now,
		},
	}

	start := time.Now()
	var rating models.Rating
	err := s.db.Ratings().FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)).Decode(&rating)
	metrics.RecordMongoQuery("upsert", CollectionRatings, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("upsert rating: %w", err)
	}
	return &rating, nil
}

// DeleteRating removes a user's rating for a game. The bool reports
// whether a rating existed.
func (s *RatingStore) DeleteRating(ctx context.Context, userID string, gameID primitive.ObjectID) (bool, error) {
	ctx, cancel := s.db.opContext(ctx)
	defer cancel()

	start := time.Now()
	res, err := s.db.Ratings().DeleteOne(ctx, bson.M{"userId": userID, "gameId": gameID})
	metrics.RecordMongoQuery("deleteOne", CollectionRatings, time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("delete rating: %w", err)
	}
	return res.DeletedCount > 0, nil
}

// CountRatingsByUser returns the number of ratings a user has submitted.
func (s *RatingStore) CountRatingsByUser(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := s.db.opContext(ctx)
	defer cancel()

	start := time.Now()
	count, err := s.db.Ratings().CountDocuments(ctx, bson.M{"userId": userID})
	metrics.RecordMongoQuery("count", CollectionRatings, time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("count ratings for user %s: %w", userID, err)
	}
	return count, nil
}

// ratingTripleDoc is the flattened aggregation output row.
type ratingTripleDoc struct {
	UserID string             `bson:"userId"`
	GameID primitive.ObjectID `bson:"gameId"`
	Rating int                `bson:"rating"`
}

// RatingTriples returns every rating whose game has at least
// minRatingsPerGame ratings, flattened to (user, game, rating) rows.
func (s *RatingStore) RatingTriples(ctx context.Context, minRatingsPerGame int) ([]ratingTripleDoc, error) {
	ctx, cancel := s.db.opContext(ctx)
	defer cancel()

	pipeline := bson.A{
		bson.M{"$group": bson.M{
			"_id":   "$gameId",
			"count": bson.M{"$sum": 1},
			"ratings": bson.M{"$push": bson.M{
				"userId": "$userId",
				"rating": "$rating",
			}},
		}},
		bson.M{"$match": bson.M{"count": bson.M{"$gte": minRatingsPerGame}}},
		bson.M{"$unwind": "$ratings"},
		bson.M{"$project": bson.M{
			"_id":    0,
			"gameId": "$_id",
			"userId": "$ratings.userId",
			"rating": "$ratings.rating",
		}},
	}

	start := time.Now()
	cursor, err := s.db.Ratings().Aggregate(ctx, pipeline)
	metrics.RecordMongoQuery("aggregate", CollectionRatings, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("aggregate rating triples: %w", err)
	}

	var docs []ratingTripleDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode rating triples: %w", err)
	}
	return docs, nil
}
