// MeepleMind - Board Game Catalog and Recommendation Service
// Copyright 2026 MeepleMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meeplemind/recommender

package recommend

import (
	"context"
	"fmt"
	"sort"
)

// KNNEngine predicts ratings from a precomputed game-to-game similarity
// table. For each candidate game it gathers the user's rated games with a
// positive similarity to the candidate, keeps the K most similar, and
// predicts:
//
//	prediction = baseline(candidate) + sum(sim*(rating - baseline(rated))) / sum(sim)
//
// clamped to [1, 10], where baseline is the game's external aggregate
// rating average (FallbackBaseline when absent). Candidates with fewer
// than MinK usable neighbors are skipped rather than predicted.
//
// The similarity table itself is produced by an offline batch job and is
// read-only here.
type KNNEngine struct {
	cfg  KNNConfig
	data KNNData
}

// NewKNNEngine creates a new item-based KNN engine.
func NewKNNEngine(cfg KNNConfig, data KNNData) *KNNEngine {
	if cfg.K <= 0 {
		cfg.K = 40
	}
	if cfg.MinK <= 0 {
		cfg.MinK = 5
	}
	if cfg.FallbackBaseline <= 0 {
		cfg.FallbackBaseline = 6.5
	}

	return &KNNEngine{cfg: cfg, data: data}
}

// Name returns the algorithm identifier.
func (e *KNNEngine) Name() Algorithm { return AlgorithmKNN }

// MinRatings returns 3: predictions need several anchor ratings.
func (e *KNNEngine) MinRatings() int { return 3 }

// Recommend predicts a rating for every candidate referenced by the
// similarity lists of the user's rated games.
func (e *KNNEngine) Recommend(ctx context.Context, userID string, ratings []UserRating, exclude map[string]struct{}, limit int) ([]ScoredGame, error) {
	if len(ratings) < e.MinRatings() {
		return []ScoredGame{}, nil
	}

	ratedIDs := make([]string, 0, len(ratings))
	ratingByGame := make(map[string]int, len(ratings))
	for _, r := range ratings {
		ratedIDs = append(ratedIDs, r.GameID)
		ratingByGame[r.GameID] = r.Rating
	}

	simLists, err := e.data.SimilarGames(ctx, ratedIDs)
	if err != nil {
		return nil, fmt.Errorf("load similarity lists: %w", err)
	}
	if len(simLists) == 0 {
		return []ScoredGame{}, nil
	}

	// Lookup of rated game -> candidate -> similarity, plus the union of
	// every candidate referenced by any list.
	simLookup := make(map[string]map[string]float64, len(simLists))
	candidateSet := make(map[string]struct{})
	for ratedID, list := range simLists {
		simMap := make(map[string]float64, len(list))
		for _, s := range list {
			simMap[s.GameID] = s.Similarity
			candidateSet[s.GameID] = struct{}{}
		}
		simLookup[ratedID] = simMap
	}

	// Baselines are needed for candidates and rated games alike.
	baselineIDs := make([]string, 0, len(candidateSet)+len(ratedIDs))
	for id := range candidateSet {
		baselineIDs = append(baselineIDs, id)
	}
	baselineIDs = append(baselineIDs, ratedIDs...)

	baselines, err := e.data.GameBaselines(ctx, baselineIDs)
	if err != nil {
		return nil, fmt.Errorf("load game baselines: %w", err)
	}

	predictions := make([]ScoredGame, 0, len(candidateSet))
	for candidateID := range candidateSet {
		if _, rated := ratingByGame[candidateID]; rated {
			continue
		}
		if _, excluded := exclude[candidateID]; excluded {
			continue
		}

		pred, ok := e.predict(candidateID, ratings, simLookup, baselines)
		if !ok {
			continue
		}

		// Normalize to [0, 1] for consistency with the other engines.
		predictions = append(predictions, ScoredGame{GameID: candidateID, Score: pred / 10})
	}

	sortScoredGames(predictions)
	return truncateScoredGames(predictions, limit), nil
}

// knnNeighbor is one of the user's rated games with a positive similarity
// to the prediction target.
type knnNeighbor struct {
	gameID     string
	similarity float64
	rating     int
}

// predict computes the baseline-adjusted weighted prediction for one
// candidate. The second return value is false when fewer than MinK
// neighbors are usable.
func (e *KNNEngine) predict(candidateID string, ratings []UserRating, simLookup map[string]map[string]float64, baselines map[string]float64) (float64, bool) {
	neighbors := make([]knnNeighbor, 0, len(ratings))
	for _, r := range ratings {
		simMap, ok := simLookup[r.GameID]
		if !ok {
			continue
		}
		sim, ok := simMap[candidateID]
		if !ok || sim <= 0 {
			continue
		}
		neighbors = append(neighbors, knnNeighbor{gameID: r.GameID, similarity: sim, rating: r.Rating})
	}

	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].similarity != neighbors[j].similarity {
			return neighbors[i].similarity > neighbors[j].similarity
		}
		return neighbors[i].gameID < neighbors[j].gameID
	})
	if len(neighbors) > e.cfg.K {
		neighbors = neighbors[:e.cfg.K]
	}

	if len(neighbors) < e.cfg.MinK {
		return 0, false
	}

	var sumSim, sumWeightedDiff float64
	for _, n := range neighbors {
		sumSim += n.similarity
		sumWeightedDiff += n.similarity * (float64(n.rating) - e.baseline(baselines, n.gameID))
	}

	prediction := e.baseline(baselines, candidateID)
	if sumSim > 0 {
		prediction += sumWeightedDiff / sumSim
	}

	// Clamp to the valid rating range.
	if prediction < 1 {
		prediction = 1
	}
	if prediction > 10 {
		prediction = 10
	}
	return prediction, true
}

// baseline returns the game's aggregate rating average, or the configured
// fallback when the catalog has none.
func (e *KNNEngine) baseline(baselines map[string]float64, gameID string) float64 {
	if b, ok := baselines[gameID]; ok {
		return b
	}
	return e.cfg.FallbackBaseline
}
