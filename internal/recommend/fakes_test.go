// MeepleMind - Board Game Catalog and Recommendation Service
// Copyright 2026 MeepleMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meeplemind/recommender

package recommend

import (
	"context"
	"sync"
)

// In-memory provider fakes shared by the engine and service tests.

type fakePopularityData struct {
	stats  []GameStats
	err    error
	gotMin int
}

func (f *fakePopularityData) GameStats(_ context.Context, minRatingCount int) ([]GameStats, error) {
	f.gotMin = minRatingCount
	if f.err != nil {
		return nil, f.err
	}
	return f.stats, nil
}

type fakeContentData struct {
	features   []GameFeatures
	candidates []GameFeatures

	featuresErr   error
	candidatesErr error

	gotGameIDs    []string
	gotCategories []string
	gotMechanics  []string
	gotLimit      int
}

func (f *fakeContentData) GameFeaturesByID(_ context.Context, gameIDs []string) ([]GameFeatures, error) {
	f.gotGameIDs = gameIDs
	if f.featuresErr != nil {
		return nil, f.featuresErr
	}
	return f.features, nil
}

func (f *fakeContentData) CandidatesByFeatures(_ context.Context, categories, mechanics []string, limit int) ([]GameFeatures, error) {
	f.gotCategories = categories
	f.gotMechanics = mechanics
	f.gotLimit = limit
	if f.candidatesErr != nil {
		return nil, f.candidatesErr
	}
	return f.candidates, nil
}

type fakeCollaborativeData struct {
	triples []RatingTriple
	err     error
	gotMin  int
}

func (f *fakeCollaborativeData) RatingTriples(_ context.Context, minRatingsPerGame int) ([]RatingTriple, error) {
	f.gotMin = minRatingsPerGame
	if f.err != nil {
		return nil, f.err
	}
	return f.triples, nil
}

type fakeKNNData struct {
	similar   map[string][]SimilarGame
	baselines map[string]float64

	similarErr  error
	baselineErr error
}

func (f *fakeKNNData) SimilarGames(_ context.Context, gameIDs []string) (map[string][]SimilarGame, error) {
	if f.similarErr != nil {
		return nil, f.similarErr
	}
	out := make(map[string][]SimilarGame)
	for _, id := range gameIDs {
		if list, ok := f.similar[id]; ok {
			out[id] = list
		}
	}
	return out, nil
}

func (f *fakeKNNData) GameBaselines(_ context.Context, gameIDs []string) (map[string]float64, error) {
	if f.baselineErr != nil {
		return nil, f.baselineErr
	}
	out := make(map[string]float64)
	for _, id := range gameIDs {
		if b, ok := f.baselines[id]; ok {
			out[id] = b
		}
	}
	return out, nil
}

type fakeRatingSource struct {
	ratings map[string][]UserRating
	err     error
}

func (f *fakeRatingSource) FindRatingsByUser(_ context.Context, userID string) ([]UserRating, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ratings[userID], nil
}

func (f *fakeRatingSource) CountRatingsByUser(_ context.Context, userID string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return len(f.ratings[userID]), nil
}

type cacheKey struct {
	userID    string
	algorithm Algorithm
}

type fakeCacheStore struct {
	mu      sync.Mutex
	entries map[cacheKey]*CachedRecommendation

	findErr   error
	saveErr   error
	deleteErr error

	saveCount int
}

func newFakeCacheStore() *fakeCacheStore {
	return &fakeCacheStore{entries: make(map[cacheKey]*CachedRecommendation)}
}

func (f *fakeCacheStore) FindLive(_ context.Context, userID string, algorithm Algorithm) (*CachedRecommendation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.entries[cacheKey{userID, algorithm}], nil
}

func (f *fakeCacheStore) Save(_ context.Context, entry *CachedRecommendation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saveCount++
	f.entries[cacheKey{entry.UserID, entry.Algorithm}] = entry
	return nil
}

func (f *fakeCacheStore) DeleteByUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for key := range f.entries {
		if key.userID == userID {
			delete(f.entries, key)
		}
	}
	return nil
}

type fakeGameCatalog struct {
	infos map[string]GameInfo
	err   error
}

func (f *fakeGameCatalog) GameInfoByID(_ context.Context, gameIDs []string) ([]GameInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]GameInfo, 0, len(gameIDs))
	for _, id := range gameIDs {
		if info, ok := f.infos[id]; ok {
			out = append(out, info)
		}
	}
	return out, nil
}

// fakeEngine returns canned results and records the limits it was asked
// to compute at.
type fakeEngine struct {
	name       Algorithm
	minRatings int
	results    []ScoredGame
	err        error

	mu        sync.Mutex
	calls     int
	gotLimits []int
}

func (f *fakeEngine) Name() Algorithm { return f.name }
func (f *fakeEngine) MinRatings() int { return f.minRatings }

func (f *fakeEngine) Recommend(_ context.Context, _ string, _ []UserRating, _ map[string]struct{}, limit int) ([]ScoredGame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.gotLimits = append(f.gotLimits, limit)
	if f.err != nil {
		return nil, f.err
	}
	results := f.results
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (f *fakeEngine) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func intPtr(v int) *int             { return &v }
func floatPtr(v float64) *float64   { return &v }
