// MeepleMind - Board Game Catalog and Recommendation Service
// Copyright 2026 MeepleMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meeplemind/recommender

package recommend

import (
	"context"
	"sort"
	"time"
)

// Algorithm identifies a recommendation algorithm.
type Algorithm string

const (
	// AlgorithmPopularity ranks games by community rating average and count.
	AlgorithmPopularity Algorithm = "popularity"
	// AlgorithmContentBased scores candidates against a weighted taste profile.
	AlgorithmContentBased Algorithm = "content-based"
	// AlgorithmCollaborative aggregates ratings from users with similar taste.
	AlgorithmCollaborative Algorithm = "collaborative"
	// AlgorithmKNN predicts ratings from precomputed item-item similarities.
	AlgorithmKNN Algorithm = "knn"
)

// Algorithms returns all known algorithms in stable order.
func Algorithms() []Algorithm {
	return []Algorithm{
		AlgorithmPopularity,
		AlgorithmContentBased,
		AlgorithmCollaborative,
		AlgorithmKNN,
	}
}

// Valid reports whether a is a known algorithm.
func (a Algorithm) Valid() bool {
	switch a {
	case AlgorithmPopularity, AlgorithmContentBased, AlgorithmCollaborative, AlgorithmKNN:
		return true
	default:
		return false
	}
}

// String returns the algorithm identifier.
func (a Algorithm) String() string {
	return string(a)
}

// UserRating is one (game, rating) pair from a user's rating list.
// Ratings are integers on a 1-10 scale.
type UserRating struct {
	GameID string `json:"game_id"`
	Rating int    `json:"rating"`
}

// ScoredGame is a candidate game with its recommendation score.
// Scores are normalized to [0, 1]; higher is better.
type ScoredGame struct {
	GameID string  `json:"game_id"`
	Score  float64 `json:"score"`
}

// RankedGame is a scored game with its position in the ranked list.
// Rank starts at 1.
type RankedGame struct {
	GameID string  `json:"game_id"`
	Score  float64 `json:"score"`
	Rank   int     `json:"rank"`
}

// Result is the outcome of a recommendation request.
type Result struct {
	// Algorithm is the algorithm that produced the result.
	Algorithm Algorithm `json:"algorithm"`

	// Games is the ranked recommendation list, best first.
	Games []ScoredGame `json:"games"`

	// GeneratedAt is when the underlying scores were computed.
	GeneratedAt time.Time `json:"generated_at"`

	// InputRatingCount is the number of user ratings used as input.
	InputRatingCount int `json:"input_rating_count"`

	// CacheHit indicates whether the result was served from cache.
	CacheHit bool `json:"cache_hit"`
}

// Engine is implemented by each scoring algorithm.
//
// Recommend converts the user's rating list into a ranked candidate list.
// Games in exclude (keyed by game ID) never appear in the output. Fewer
// ratings than MinRatings is not an error: the engine returns an empty
// list. Only infrastructure failures (provider errors, malformed
// precomputed data) return a non-nil error.
type Engine interface {
	// Name returns the algorithm identifier.
	Name() Algorithm

	// MinRatings is the minimum number of user ratings the engine needs
	// to produce results.
	MinRatings() int

	// Recommend scores candidates for the user and returns up to limit
	// games sorted by score descending.
	Recommend(ctx context.Context, userID string, ratings []UserRating, exclude map[string]struct{}, limit int) ([]ScoredGame, error)
}

// GameStats summarizes a game's externally sourced aggregate rating.
type GameStats struct {
	GameID  string
	Average float64
	Count   int
}

// GameFeatures carries the catalog metadata used for content scoring.
// Pointer fields are nil when the catalog record lacks the value.
type GameFeatures struct {
	GameID      string
	Categories  []string
	Mechanics   []string
	MinPlayers  *int
	MaxPlayers  *int
	MinPlaytime *int
	MaxPlaytime *int
	Complexity  *float64
}

// SimilarGame is one entry of a precomputed item-item similarity list.
type SimilarGame struct {
	GameID     string
	Similarity float64
}

// RatingTriple is a single (user, game, rating) observation from the
// global rating collection.
type RatingTriple struct {
	UserID string
	GameID string
	Rating int
}

// PopularityData loads the inputs of the popularity engine.
type PopularityData interface {
	// GameStats returns aggregate rating stats for all games with at
	// least minRatingCount external ratings.
	GameStats(ctx context.Context, minRatingCount int) ([]GameStats, error)
}

// ContentData loads the inputs of the content-based engine.
type ContentData interface {
	// GameFeaturesByID returns catalog features for the given game IDs.
	// Unknown IDs are silently omitted.
	GameFeaturesByID(ctx context.Context, gameIDs []string) ([]GameFeatures, error)

	// CandidatesByFeatures returns up to limit games sharing at least one
	// of the given categories or mechanics.
	CandidatesByFeatures(ctx context.Context, categories, mechanics []string, limit int) ([]GameFeatures, error)
}

// CollaborativeData loads the inputs of the collaborative engine.
type CollaborativeData interface {
	// RatingTriples returns all ratings of games that have at least
	// minRatingsPerGame ratings, forming the utility matrix.
	RatingTriples(ctx context.Context, minRatingsPerGame int) ([]RatingTriple, error)
}

// KNNData loads the inputs of the KNN engine.
type KNNData interface {
	// SimilarGames returns the precomputed similarity lists for the given
	// games, keyed by game ID. Games without a list are omitted.
	SimilarGames(ctx context.Context, gameIDs []string) (map[string][]SimilarGame, error)

	// GameBaselines returns the external aggregate rating average per
	// game. Games without an aggregate rating are omitted.
	GameBaselines(ctx context.Context, gameIDs []string) (map[string]float64, error)
}

// RatingSource reads a user's ratings for the orchestrator.
type RatingSource interface {
	FindRatingsByUser(ctx context.Context, userID string) ([]UserRating, error)
	CountRatingsByUser(ctx context.Context, userID string) (int, error)
}

// CachedRecommendation is a persisted cache entry, keyed (user, algorithm).
type CachedRecommendation struct {
	UserID           string
	Algorithm        Algorithm
	Games            []RankedGame
	GeneratedAt      time.Time
	ExpiresAt        time.Time
	InputRatingCount int
}

// CacheStore persists recommendation results per (user, algorithm).
type CacheStore interface {
	// FindLive returns the non-expired entry for (user, algorithm), or
	// nil when none exists. Expired entries are treated as absent.
	FindLive(ctx context.Context, userID string, algorithm Algorithm) (*CachedRecommendation, error)

	// Save upserts the entry, replacing any previous one wholesale.
	Save(ctx context.Context, entry *CachedRecommendation) error

	// DeleteByUser removes all cached entries for the user.
	DeleteByUser(ctx context.Context, userID string) error
}

// GameInfo is the catalog projection joined onto recommendations for
// presentation.
type GameInfo struct {
	GameID        string   `json:"game_id"`
	Name          string   `json:"name"`
	YearPublished *int     `json:"year_published,omitempty"`
	ImageURL      string   `json:"image_url,omitempty"`
	ThumbnailURL  string   `json:"thumbnail_url,omitempty"`
	Categories    []string `json:"categories"`
	Mechanics     []string `json:"mechanics"`
	MinPlayers    *int     `json:"min_players,omitempty"`
	MaxPlayers    *int     `json:"max_players,omitempty"`
	MinPlaytime   *int     `json:"min_playtime,omitempty"`
	MaxPlaytime   *int     `json:"max_playtime,omitempty"`
	Complexity    *float64 `json:"complexity,omitempty"`
	RatingAverage *float64 `json:"rating_average,omitempty"`
	RatingCount   *int     `json:"rating_count,omitempty"`
}

// GameCatalog resolves game IDs to catalog records for the detail join.
type GameCatalog interface {
	// GameInfoByID returns catalog records for the given IDs. IDs no
	// longer present in the catalog are silently omitted.
	GameInfoByID(ctx context.Context, gameIDs []string) ([]GameInfo, error)
}

// DetailedGame is a recommendation joined with its catalog record.
type DetailedGame struct {
	GameInfo
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
}

// DetailedResult is a recommendation result with full game records.
type DetailedResult struct {
	Algorithm        Algorithm      `json:"algorithm"`
	Games            []DetailedGame `json:"games"`
	GeneratedAt      time.Time      `json:"generated_at"`
	InputRatingCount int            `json:"input_rating_count"`
}

// AlgorithmInfo describes an algorithm for discovery endpoints.
type AlgorithmInfo struct {
	ID          Algorithm `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	MinRatings  int       `json:"min_ratings"`
}

// sortScoredGames orders games by score descending, breaking ties by game
// ID ascending so identical snapshots always produce identical output.
func sortScoredGames(games []ScoredGame) {
	sort.Slice(games, func(i, j int) bool {
		if games[i].Score != games[j].Score {
			return games[i].Score > games[j].Score
		}
		return games[i].GameID < games[j].GameID
	})
}

// truncateScoredGames limits the list to at most limit entries.
func truncateScoredGames(games []ScoredGame, limit int) []ScoredGame {
	if limit > 0 && len(games) > limit {
		return games[:limit]
	}
	return games
}

// excludeSetFromRatings builds the exclusion set of already-rated games.
func excludeSetFromRatings(ratings []UserRating) map[string]struct{} {
	exclude := make(map[string]struct{}, len(ratings))
	for _, r := range ratings {
		exclude[r.GameID] = struct{}{}
	}
	return exclude
}
