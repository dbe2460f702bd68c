// MeepleMind - Board Game Catalog and Recommendation Service
// Copyright 2026 MeepleMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meeplemind/recommender

// Package models defines the MongoDB document types shared by the stores
// and the API layer.
//
// Collections:
//   - games: board game catalog with metadata
//   - ratings: user game ratings, unique per (user, game)
//   - recommendations: cached recommendation results with TTL
//   - gameSimilarities: precomputed item-item similarity lists
package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RatingOrigin tags where a rating came from.
type RatingOrigin string

const (
	// OriginApp marks ratings entered through the application.
	OriginApp RatingOrigin = "app"
	// OriginImport marks ratings imported from an external profile.
	OriginImport RatingOrigin = "bgg"
)

// Game is a board game catalog record. It is immutable from this
// service's perspective except for periodic metadata refresh owned by the
// catalog ingestion process.
type Game struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	// BggID is the BoardGameGeek identifier, when known.
	BggID *int `bson:"bggId" json:"bgg_id,omitempty"`

	Name          string  `bson:"name" json:"name"`
	Description   *string `bson:"description" json:"description,omitempty"`
	YearPublished *int    `bson:"yearPublished" json:"year_published,omitempty"`

	MinPlayers *int `bson:"minPlayers" json:"min_players,omitempty"`
	MaxPlayers *int `bson:"maxPlayers" json:"max_players,omitempty"`

	// Playtimes are in minutes.
	MinPlaytime *int `bson:"minPlaytime" json:"min_playtime,omitempty"`
	MaxPlaytime *int `bson:"maxPlaytime" json:"max_playtime,omitempty"`

	MinAge *int `bson:"minAge" json:"min_age,omitempty"`

	// Complexity is the community weight on a 1-5 scale.
	Complexity *float64 `bson:"complexity" json:"complexity,omitempty"`

	ThumbnailURL *string `bson:"thumbnailUrl" json:"thumbnail_url,omitempty"`
	ImageURL     *string `bson:"imageUrl" json:"image_url,omitempty"`

	// Categories and mechanics are denormalized for query performance.
	Categories []string `bson:"categories" json:"categories"`
	Mechanics  []string `bson:"mechanics" json:"mechanics"`

	Designers  []Credit `bson:"designers" json:"designers,omitempty"`
	Publishers []Credit `bson:"publishers" json:"publishers,omitempty"`

	// BggRating is the externally sourced aggregate rating.
	BggRating *ExternalRating `bson:"bggRating" json:"bgg_rating,omitempty"`

	BggRank *int `bson:"bggRank" json:"bgg_rank,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"created_at"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updated_at"`
}

// Credit is a designer or publisher reference.
type Credit struct {
	ID   string `bson:"id" json:"id"`
	Name string `bson:"name" json:"name"`
	URL  string `bson:"url,omitempty" json:"url,omitempty"`
}

// ExternalRating is an aggregate rating from an external source.
type ExternalRating struct {
	Average float64  `bson:"average" json:"average"`
	Count   int      `bson:"count" json:"count"`
	StdDev  *float64 `bson:"stddev,omitempty" json:"stddev,omitempty"`
}

// Rating is a user's rating of one game, an integer on a 1-10 scale.
// At most one rating exists per (user, game); writes use upsert
// semantics backed by a unique compound index.
type Rating struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	UserID string             `bson:"userId" json:"user_id"`
	GameID primitive.ObjectID `bson:"gameId" json:"game_id"`

	Rating int          `bson:"rating" json:"rating"`
	Origin RatingOrigin `bson:"origin" json:"origin"`

	CreatedAt time.Time `bson:"createdAt" json:"created_at"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updated_at"`
}

// ValidateRating checks that score is in the valid 1-10 range.
func ValidateRating(score int) error {
	if score < 1 || score > 10 {
		return fmt.Errorf("rating must be between 1 and 10, got %d", score)
	}
	return nil
}

// Recommendation is a cached recommendation result. At most one live
// entry exists per (user, algorithm); a computation always replaces the
// document wholesale, never partially.
type Recommendation struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	UserID    string `bson:"userId" json:"user_id"`
	Algorithm string `bson:"algorithm" json:"algorithm"`

	Games []RecommendedGame `bson:"games" json:"games"`

	GeneratedAt time.Time `bson:"generatedAt" json:"generated_at"`
	ExpiresAt   time.Time `bson:"expiresAt" json:"expires_at"`

	// InputRatingCount is how many ratings were used as input.
	InputRatingCount int `bson:"inputRatingCount" json:"input_rating_count"`
}

// RecommendedGame is one entry of a cached recommendation list.
type RecommendedGame struct {
	GameID primitive.ObjectID `bson:"gameId" json:"game_id"`
	Score  float64            `bson:"score" json:"score"`
	Rank   int                `bson:"rank" json:"rank"`
}

// GameSimilarity holds the precomputed similarity list for one game,
// sorted by similarity descending. It is produced by an offline batch job
// and read-only here. Lists need not be symmetric between two games.
type GameSimilarity struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	GameID       primitive.ObjectID `bson:"gameId" json:"game_id"`
	SimilarGames []SimilarGameRef   `bson:"similarGames" json:"similar_games"`

	ComputedAt time.Time `bson:"computedAt" json:"computed_at"`
}

// SimilarGameRef is one entry of a similarity list, with similarity in
// [0, 1].
type SimilarGameRef struct {
	GameID     primitive.ObjectID `bson:"gameId" json:"game_id"`
	Similarity float64            `bson:"similarity" json:"similarity"`
}
