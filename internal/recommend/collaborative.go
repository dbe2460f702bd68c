// MeepleMind - Board Game Catalog and Recommendation Service
// Copyright 2026 MeepleMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meeplemind/recommender

package recommend

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// CollaborativeEngine implements user-based collaborative filtering.
//
// It builds a utility matrix over games with sufficient rating counts,
// measures centered cosine similarity between the target user and every
// other user, keeps the top NeighborFraction of similar users, and scores
// each game rated by that neighborhood as the average neighbor rating
// normalized to [0, 1]. Games with fewer than MinGroupSize neighbor
// ratings produce no prediction.
type CollaborativeEngine struct {
	cfg  CollaborativeConfig
	data CollaborativeData
}

// NewCollaborativeEngine creates a new user-based collaborative engine.
func NewCollaborativeEngine(cfg CollaborativeConfig, data CollaborativeData) *CollaborativeEngine {
	if cfg.MinRatingsPerGame <= 0 {
		cfg.MinRatingsPerGame = 50
	}
	if cfg.MinOverlap <= 0 {
		cfg.MinOverlap = 2
	}
	if cfg.NeighborFraction <= 0 || cfg.NeighborFraction > 1 {
		cfg.NeighborFraction = 0.2
	}
	if cfg.MinGroupSize <= 0 {
		cfg.MinGroupSize = 5
	}

	return &CollaborativeEngine{cfg: cfg, data: data}
}

// Name returns the algorithm identifier.
func (e *CollaborativeEngine) Name() Algorithm { return AlgorithmCollaborative }

// MinRatings returns 3: below that, user similarity is too noisy.
func (e *CollaborativeEngine) MinRatings() int { return 3 }

// Recommend aggregates ratings from the target user's most similar users.
func (e *CollaborativeEngine) Recommend(ctx context.Context, userID string, ratings []UserRating, exclude map[string]struct{}, limit int) ([]ScoredGame, error) {
	if len(ratings) < e.MinRatings() {
		return []ScoredGame{}, nil
	}

	triples, err := e.data.RatingTriples(ctx, e.cfg.MinRatingsPerGame)
	if err != nil {
		return nil, fmt.Errorf("load utility matrix: %w", err)
	}
	if len(triples) == 0 {
		return []ScoredGame{}, nil
	}

	// Utility matrix: user -> game -> rating, plus the set of games that
	// survived the minimum rating count filter.
	matrix := make(map[string]map[string]float64)
	matrixGames := make(map[string]struct{})
	for _, t := range triples {
		matrixGames[t.GameID] = struct{}{}
		row := matrix[t.UserID]
		if row == nil {
			row = make(map[string]float64)
			matrix[t.UserID] = row
		}
		row[t.GameID] = float64(t.Rating)
	}

	// The target vector only keeps ratings on games present in the
	// matrix; otherwise there is nothing to compare against.
	target := make(map[string]float64, len(ratings))
	for _, r := range ratings {
		if _, ok := matrixGames[r.GameID]; ok {
			target[r.GameID] = float64(r.Rating)
		}
	}
	if len(target) == 0 {
		return []ScoredGame{}, nil
	}
	targetMean := meanOf(target)

	type userSimilarity struct {
		userID     string
		similarity float64
	}

	similarities := make([]userSimilarity, 0, len(matrix))
	for uid, row := range matrix {
		if uid == userID {
			continue
		}

		sim := e.centeredCosine(target, targetMean, row, meanOf(row))
		if sim > 0 {
			similarities = append(similarities, userSimilarity{userID: uid, similarity: sim})
		}
	}
	if len(similarities) == 0 {
		return []ScoredGame{}, nil
	}

	sort.Slice(similarities, func(i, j int) bool {
		if similarities[i].similarity != similarities[j].similarity {
			return similarities[i].similarity > similarities[j].similarity
		}
		return similarities[i].userID < similarities[j].userID
	})

	keep := int(math.Round(float64(len(similarities)) * e.cfg.NeighborFraction))
	if keep < 1 {
		keep = 1
	}
	neighbors := similarities[:keep]

	// Accumulate neighbor ratings on games the target has not rated.
	type prediction struct {
		sum   float64
		count int
	}
	predictions := make(map[string]*prediction)

	for _, n := range neighbors {
		for gid, rating := range matrix[n.userID] {
			if _, rated := target[gid]; rated {
				continue
			}
			if _, excluded := exclude[gid]; excluded {
				continue
			}

			p := predictions[gid]
			if p == nil {
				p = &prediction{}
				predictions[gid] = p
			}
			p.sum += rating
			p.count++
		}
	}

	scored := make([]ScoredGame, 0, len(predictions))
	for gid, p := range predictions {
		if p.count < e.cfg.MinGroupSize {
			continue
		}

		// Average neighbor rating, normalized to [0, 1] for consistency
		// with the other engines.
		scored = append(scored, ScoredGame{GameID: gid, Score: p.sum / float64(p.count) / 10})
	}

	sortScoredGames(scored)
	return truncateScoredGames(scored, limit), nil
}

// centeredCosine computes centered cosine similarity over commonly rated
// games. Users with fewer than MinOverlap games in common score 0.
func (e *CollaborativeEngine) centeredCosine(a map[string]float64, meanA float64, b map[string]float64, meanB float64) float64 {
	common := 0
	var dot, normA, normB float64
	for gid, ra := range a {
		rb, ok := b[gid]
		if !ok {
			continue
		}
		common++

		ca := ra - meanA
		cb := rb - meanB
		dot += ca * cb
		normA += ca * ca
		normB += cb * cb
	}

	if common < e.cfg.MinOverlap {
		return 0
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return dot / denom
}

// meanOf returns the arithmetic mean of the map values.
func meanOf(ratings map[string]float64) float64 {
	if len(ratings) == 0 {
		return 0
	}
	var sum float64
	for _, r := range ratings {
		sum += r
	}
	return sum / float64(len(ratings))
}
