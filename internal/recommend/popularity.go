// MeepleMind - Board Game Catalog and Recommendation Service
// Copyright 2026 MeepleMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meeplemind/recommender

package recommend

import (
	"context"
	"fmt"
)

// PopularityEngine ranks games by a blend of normalized external rating
// average and rating count.
//
// This engine is useful for:
//   - Cold start users with no ratings
//   - Fallback when personalized engines have too little data
//
// The popularity score is computed as:
//
//	score(game) = AverageWeight*norm(average) + CountWeight*norm(count)
//
// where norm is min-max scaling over all games with at least
// MinRatingCount external ratings.
type PopularityEngine struct {
	cfg  PopularityConfig
	data PopularityData
}

// NewPopularityEngine creates a new popularity engine.
func NewPopularityEngine(cfg PopularityConfig, data PopularityData) *PopularityEngine {
	if cfg.MinRatingCount <= 0 {
		cfg.MinRatingCount = 100
	}
	if cfg.AverageWeight <= 0 && cfg.CountWeight <= 0 {
		cfg.AverageWeight = 0.7
		cfg.CountWeight = 0.3
	}

	return &PopularityEngine{cfg: cfg, data: data}
}

// Name returns the algorithm identifier.
func (e *PopularityEngine) Name() Algorithm { return AlgorithmPopularity }

// MinRatings returns 0: popularity needs no user ratings.
func (e *PopularityEngine) MinRatings() int { return 0 }

// Recommend scores all sufficiently rated games, skipping excluded ones.
// User identity and ratings are ignored beyond the exclusion set.
func (e *PopularityEngine) Recommend(ctx context.Context, userID string, ratings []UserRating, exclude map[string]struct{}, limit int) ([]ScoredGame, error) {
	stats, err := e.data.GameStats(ctx, e.cfg.MinRatingCount)
	if err != nil {
		return nil, fmt.Errorf("load game stats: %w", err)
	}

	if len(stats) == 0 {
		return []ScoredGame{}, nil
	}

	minAvg, maxAvg := stats[0].Average, stats[0].Average
	minCount, maxCount := stats[0].Count, stats[0].Count
	for _, s := range stats[1:] {
		if s.Average < minAvg {
			minAvg = s.Average
		}
		if s.Average > maxAvg {
			maxAvg = s.Average
		}
		if s.Count < minCount {
			minCount = s.Count
		}
		if s.Count > maxCount {
			maxCount = s.Count
		}
	}

	// Range of 1 when min == max avoids division by zero and maps every
	// score component to 0.
	avgRange := maxAvg - minAvg
	if avgRange == 0 {
		avgRange = 1
	}
	countRange := float64(maxCount - minCount)
	if countRange == 0 {
		countRange = 1
	}

	scored := make([]ScoredGame, 0, len(stats))
	for _, s := range stats {
		if _, excluded := exclude[s.GameID]; excluded {
			continue
		}

		normAvg := (s.Average - minAvg) / avgRange
		normCount := float64(s.Count-minCount) / countRange
		score := normAvg*e.cfg.AverageWeight + normCount*e.cfg.CountWeight

		scored = append(scored, ScoredGame{GameID: s.GameID, Score: score})
	}

	sortScoredGames(scored)
	return truncateScoredGames(scored, limit), nil
}
