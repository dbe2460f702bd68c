// MeepleMind - Board Game Catalog and Recommendation Service
// Copyright 2026 MeepleMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meeplemind/recommender

package recommend

import (
	"context"
	"fmt"
	"math"
)

// Feature defaults used when no rated game contributed the value.
const (
	defaultMinPlayers  = 2.0
	defaultMaxPlayers  = 4.0
	defaultMinPlaytime = 60.0
	defaultMaxPlaytime = 90.0
	defaultComplexity  = 2.5
)

// ContentEngine recommends games similar to the user's highly-rated games.
//
// A weighted taste profile is built from ratings at or above
// HighRatingThreshold (falling back to all ratings if none qualify), with
// each game weighted by rating/10. Candidates sharing at least one profile
// category or mechanic are scored by weighted feature similarity:
// categories, mechanics, player count, playtime and complexity.
type ContentEngine struct {
	cfg  ContentConfig
	data ContentData
}

// tasteProfile is the weighted aggregate of a user's highly-rated games.
type tasteProfile struct {
	categories map[string]float64
	mechanics  map[string]float64

	avgMinPlayers  float64
	avgMaxPlayers  float64
	avgMinPlaytime float64
	avgMaxPlaytime float64
	avgComplexity  float64
}

// NewContentEngine creates a new content-based engine.
func NewContentEngine(cfg ContentConfig, data ContentData) *ContentEngine {
	if cfg.HighRatingThreshold <= 0 {
		cfg.HighRatingThreshold = 7
	}
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = 1000
	}
	if cfg.CategoryWeight == 0 && cfg.MechanicWeight == 0 &&
		cfg.PlayersWeight == 0 && cfg.PlaytimeWeight == 0 && cfg.ComplexityWeight == 0 {
		cfg.CategoryWeight = 0.5
		cfg.MechanicWeight = 0.3
		cfg.PlayersWeight = 0.07
		cfg.PlaytimeWeight = 0.07
		cfg.ComplexityWeight = 0.06
	}

	return &ContentEngine{cfg: cfg, data: data}
}

// Name returns the algorithm identifier.
func (e *ContentEngine) Name() Algorithm { return AlgorithmContentBased }

// MinRatings returns 1: at least one rating is needed to build a profile.
func (e *ContentEngine) MinRatings() int { return 1 }

// Recommend builds the user's taste profile and scores candidate games
// against it.
func (e *ContentEngine) Recommend(ctx context.Context, userID string, ratings []UserRating, exclude map[string]struct{}, limit int) ([]ScoredGame, error) {
	if len(ratings) < e.MinRatings() {
		return []ScoredGame{}, nil
	}

	profileRatings := e.selectProfileRatings(ratings)

	gameIDs := make([]string, 0, len(profileRatings))
	for _, r := range profileRatings {
		gameIDs = append(gameIDs, r.GameID)
	}

	ratedGames, err := e.data.GameFeaturesByID(ctx, gameIDs)
	if err != nil {
		return nil, fmt.Errorf("load rated games: %w", err)
	}
	if len(ratedGames) == 0 {
		return []ScoredGame{}, nil
	}

	profile := buildTasteProfile(ratedGames, profileRatings)

	categories := mapKeys(profile.categories)
	mechanics := mapKeys(profile.mechanics)

	candidates, err := e.data.CandidatesByFeatures(ctx, categories, mechanics, e.cfg.CandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}

	scored := make([]ScoredGame, 0, len(candidates))
	for i := range candidates {
		game := &candidates[i]
		if _, excluded := exclude[game.GameID]; excluded {
			continue
		}

		// Candidates with no overlap at all score exactly 0 and are
		// filtered out.
		score := e.similarity(profile, game)
		if score > 0 {
			scored = append(scored, ScoredGame{GameID: game.GameID, Score: score})
		}
	}

	sortScoredGames(scored)
	return truncateScoredGames(scored, limit), nil
}

// selectProfileRatings picks ratings at or above the threshold, falling
// back to the full list when none qualify.
func (e *ContentEngine) selectProfileRatings(ratings []UserRating) []UserRating {
	high := make([]UserRating, 0, len(ratings))
	for _, r := range ratings {
		if r.Rating >= e.cfg.HighRatingThreshold {
			high = append(high, r)
		}
	}
	if len(high) == 0 {
		return ratings
	}
	return high
}

// buildTasteProfile aggregates the rated games into weighted category and
// mechanic maps plus weighted averages of the numeric features.
func buildTasteProfile(games []GameFeatures, ratings []UserRating) *tasteProfile {
	ratingByGame := make(map[string]int, len(ratings))
	for _, r := range ratings {
		ratingByGame[r.GameID] = r.Rating
	}

	profile := &tasteProfile{
		categories: make(map[string]float64),
		mechanics:  make(map[string]float64),
	}

	var totalWeight float64
	var sumMinPlayers, sumMaxPlayers, playersWeight float64
	var sumMinPlaytime, sumMaxPlaytime, playtimeWeight float64
	var sumComplexity, complexityWeight float64

	for i := range games {
		game := &games[i]

		rating, ok := ratingByGame[game.GameID]
		if !ok {
			rating = 5
		}
		weight := float64(rating) / 10

		for _, cat := range game.Categories {
			profile.categories[cat] += weight
		}
		for _, mech := range game.Mechanics {
			profile.mechanics[mech] += weight
		}

		if game.MinPlayers != nil && game.MaxPlayers != nil {
			sumMinPlayers += float64(*game.MinPlayers) * weight
			sumMaxPlayers += float64(*game.MaxPlayers) * weight
			playersWeight += weight
		}
		if game.MinPlaytime != nil && game.MaxPlaytime != nil {
			sumMinPlaytime += float64(*game.MinPlaytime) * weight
			sumMaxPlaytime += float64(*game.MaxPlaytime) * weight
			playtimeWeight += weight
		}
		if game.Complexity != nil {
			sumComplexity += *game.Complexity * weight
			complexityWeight += weight
		}

		totalWeight += weight
	}

	if totalWeight > 0 {
		for cat, w := range profile.categories {
			profile.categories[cat] = w / totalWeight
		}
		for mech, w := range profile.mechanics {
			profile.mechanics[mech] = w / totalWeight
		}
	}

	profile.avgMinPlayers = weightedAvg(sumMinPlayers, playersWeight, defaultMinPlayers)
	profile.avgMaxPlayers = weightedAvg(sumMaxPlayers, playersWeight, defaultMaxPlayers)
	profile.avgMinPlaytime = weightedAvg(sumMinPlaytime, playtimeWeight, defaultMinPlaytime)
	profile.avgMaxPlaytime = weightedAvg(sumMaxPlaytime, playtimeWeight, defaultMaxPlaytime)
	profile.avgComplexity = weightedAvg(sumComplexity, complexityWeight, defaultComplexity)

	return profile
}

// similarity scores a candidate against the profile. Each component
// contributes its configured weight; 0 means no overlap at all.
func (e *ContentEngine) similarity(profile *tasteProfile, game *GameFeatures) float64 {
	var score float64

	var catScore float64
	for _, cat := range game.Categories {
		catScore += profile.categories[cat]
	}
	score += catScore * e.cfg.CategoryWeight

	var mechScore float64
	for _, mech := range game.Mechanics {
		mechScore += profile.mechanics[mech]
	}
	score += mechScore * e.cfg.MechanicWeight

	if game.MinPlayers != nil && game.MaxPlayers != nil {
		dist := math.Abs(float64(*game.MinPlayers)-profile.avgMinPlayers) +
			math.Abs(float64(*game.MaxPlayers)-profile.avgMaxPlayers)
		score += math.Max(0, 1-dist/10) * e.cfg.PlayersWeight
	}

	if game.MinPlaytime != nil && game.MaxPlaytime != nil {
		dist := math.Abs(float64(*game.MinPlaytime)-profile.avgMinPlaytime) +
			math.Abs(float64(*game.MaxPlaytime)-profile.avgMaxPlaytime)
		score += math.Max(0, 1-dist/200) * e.cfg.PlaytimeWeight
	}

	if game.Complexity != nil {
		dist := math.Abs(*game.Complexity - profile.avgComplexity)
		score += math.Max(0, 1-dist/2.5) * e.cfg.ComplexityWeight
	}

	return score
}

// weightedAvg returns sum/weight, or fallback when nothing contributed.
func weightedAvg(sum, weight, fallback float64) float64 {
	if weight > 0 {
		return sum / weight
	}
	return fallback
}

// mapKeys returns the keys of a weight map in unspecified order.
func mapKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
