// MeepleMind - Board Game Catalog and Recommendation Service
// Copyright 2026 MeepleMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meeplemind/recommender

package recommend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestService(cfg ServiceConfig, ratings *fakeRatingSource, cache *fakeCacheStore, catalog *fakeGameCatalog) *Service {
	if ratings == nil {
		ratings = &fakeRatingSource{ratings: map[string][]UserRating{}}
	}
	if cache == nil {
		cache = newFakeCacheStore()
	}
	if catalog == nil {
		catalog = &fakeGameCatalog{infos: map[string]GameInfo{}}
	}
	return NewService(cfg, zerolog.Nop(), ratings, cache, catalog)
}

func TestServiceComputesAndCaches(t *testing.T) {
	cache := newFakeCacheStore()
	svc := newTestService(ServiceConfig{CacheTTL: time.Hour}, nil, cache, nil)

	engine := &fakeEngine{name: AlgorithmPopularity, results: []ScoredGame{
		{GameID: "a", Score: 0.9},
		{GameID: "b", Score: 0.5},
	}}
	svc.Register(engine)

	result, err := svc.Recommendations(context.Background(), "u1", AlgorithmPopularity, 10, false)
	if err != nil {
		t.Fatalf("Recommendations: %v", err)
	}
	if result.CacheHit {
		t.Error("first call should not be a cache hit")
	}
	if len(result.Games) != 2 || result.Games[0].GameID != "a" {
		t.Fatalf("unexpected games: %v", result.Games)
	}

	entry := cache.entries[cacheKey{"u1", AlgorithmPopularity}]
	if entry == nil {
		t.Fatal("result was not cached")
	}
	if entry.Games[0].Rank != 1 || entry.Games[1].Rank != 2 {
		t.Errorf("cached ranks wrong: %+v", entry.Games)
	}
	ttl := entry.ExpiresAt.Sub(entry.GeneratedAt)
	if ttl != time.Hour {
		t.Errorf("cache TTL = %v, want 1h", ttl)
	}
}

func TestServiceCacheHitSkipsEngine(t *testing.T) {
	cache := newFakeCacheStore()
	svc := newTestService(ServiceConfig{}, nil, cache, nil)

	engine := &fakeEngine{name: AlgorithmPopularity, results: []ScoredGame{{GameID: "a", Score: 0.9}}}
	svc.Register(engine)

	first, err := svc.Recommendations(context.Background(), "u1", AlgorithmPopularity, 10, false)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := svc.Recommendations(context.Background(), "u1", AlgorithmPopularity, 10, false)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if engine.callCount() != 1 {
		t.Errorf("engine ran %d times, want 1", engine.callCount())
	}
	if !second.CacheHit {
		t.Error("second call should be served from cache")
	}
	if len(first.Games) != len(second.Games) || first.Games[0] != second.Games[0] {
		t.Errorf("cached result differs from computed: %v vs %v", first.Games, second.Games)
	}
}

func TestServiceForceRefreshBypassesCache(t *testing.T) {
	svc := newTestService(ServiceConfig{}, nil, nil, nil)
	engine := &fakeEngine{name: AlgorithmPopularity, results: []ScoredGame{{GameID: "a", Score: 0.9}}}
	svc.Register(engine)

	if _, err := svc.Recommendations(context.Background(), "u1", AlgorithmPopularity, 10, false); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Recommendations(context.Background(), "u1", AlgorithmPopularity, 10, true); err != nil {
		t.Fatal(err)
	}

	if engine.callCount() != 2 {
		t.Errorf("engine ran %d times, want 2 with forceRefresh", engine.callCount())
	}
}

func TestServiceInvalidationForcesRecompute(t *testing.T) {
	cache := newFakeCacheStore()
	svc := newTestService(ServiceConfig{}, nil, cache, nil)
	engine := &fakeEngine{name: AlgorithmPopularity, results: []ScoredGame{{GameID: "a", Score: 0.9}}}
	svc.Register(engine)

	if _, err := svc.Recommendations(context.Background(), "u1", AlgorithmPopularity, 10, false); err != nil {
		t.Fatal(err)
	}
	if err := svc.InvalidateCache(context.Background(), "u1"); err != nil {
		t.Fatalf("InvalidateCache: %v", err)
	}
	if _, err := svc.Recommendations(context.Background(), "u1", AlgorithmPopularity, 10, false); err != nil {
		t.Fatal(err)
	}

	if engine.callCount() != 2 {
		t.Errorf("engine ran %d times, want 2 after invalidation", engine.callCount())
	}
}

func TestServiceComputesAtComputeLimit(t *testing.T) {
	svc := newTestService(ServiceConfig{ComputeLimit: 100, DefaultLimit: 50, MaxLimit: 100}, nil, nil, nil)
	engine := &fakeEngine{name: AlgorithmPopularity}
	svc.Register(engine)

	if _, err := svc.Recommendations(context.Background(), "u1", AlgorithmPopularity, 5, false); err != nil {
		t.Fatal(err)
	}

	if len(engine.gotLimits) != 1 || engine.gotLimits[0] != 100 {
		t.Errorf("engine limit = %v, want [100]", engine.gotLimits)
	}
}

func TestServiceLimitClamping(t *testing.T) {
	results := make([]ScoredGame, 200)
	for i := range results {
		results[i] = ScoredGame{GameID: string(rune('a' + i%26)), Score: 1 - float64(i)/200}
	}

	tests := []struct {
		name      string
		limit     int
		wantGames int
	}{
		{"zero uses default", 0, 50},
		{"negative uses default", -3, 50},
		{"above max clamps", 500, 100},
		{"normal passes through", 7, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(ServiceConfig{DefaultLimit: 50, MaxLimit: 100, ComputeLimit: 300}, nil, nil, nil)
			svc.Register(&fakeEngine{name: AlgorithmPopularity, results: results})

			result, err := svc.Recommendations(context.Background(), "u1", AlgorithmPopularity, tt.limit, false)
			if err != nil {
				t.Fatal(err)
			}
			if len(result.Games) != tt.wantGames {
				t.Errorf("got %d games, want %d", len(result.Games), tt.wantGames)
			}
		})
	}
}

func TestServiceUnknownAlgorithm(t *testing.T) {
	svc := newTestService(ServiceConfig{}, nil, nil, nil)

	_, err := svc.Recommendations(context.Background(), "u1", Algorithm("mystery"), 10, false)
	if !errors.Is(err, ErrUnknownAlgorithm) {
		t.Fatalf("expected ErrUnknownAlgorithm, got %v", err)
	}
}

func TestServiceEmptyUserID(t *testing.T) {
	svc := newTestService(ServiceConfig{}, nil, nil, nil)
	svc.Register(&fakeEngine{name: AlgorithmPopularity})

	if _, err := svc.Recommendations(context.Background(), "", AlgorithmPopularity, 10, false); !errors.Is(err, ErrInvalidUserID) {
		t.Fatalf("expected ErrInvalidUserID, got %v", err)
	}
	if err := svc.InvalidateCache(context.Background(), ""); !errors.Is(err, ErrInvalidUserID) {
		t.Fatalf("expected ErrInvalidUserID from InvalidateCache, got %v", err)
	}
}

func TestServiceCacheWriteFailureDoesNotFail(t *testing.T) {
	cache := newFakeCacheStore()
	cache.saveErr = errors.New("disk full")
	svc := newTestService(ServiceConfig{}, nil, cache, nil)
	svc.Register(&fakeEngine{name: AlgorithmPopularity, results: []ScoredGame{{GameID: "a", Score: 0.9}}})

	result, err := svc.Recommendations(context.Background(), "u1", AlgorithmPopularity, 10, false)
	if err != nil {
		t.Fatalf("cache write failure should not fail the request: %v", err)
	}
	if len(result.Games) != 1 {
		t.Errorf("expected computed games despite cache failure, got %v", result.Games)
	}
}

func TestServiceEngineErrorPropagates(t *testing.T) {
	wantErr := errors.New("provider exploded")
	svc := newTestService(ServiceConfig{}, nil, nil, nil)
	svc.Register(&fakeEngine{name: AlgorithmPopularity, err: wantErr})

	if _, err := svc.Recommendations(context.Background(), "u1", AlgorithmPopularity, 10, false); !errors.Is(err, wantErr) {
		t.Fatalf("engine error not propagated: %v", err)
	}
}

func TestServicePrecomputeEligibility(t *testing.T) {
	ratings := &fakeRatingSource{ratings: map[string][]UserRating{
		"u1": {{GameID: "g1", Rating: 8}}, // one rating
	}}
	svc := newTestService(ServiceConfig{}, ratings, nil, nil)

	popularity := &fakeEngine{name: AlgorithmPopularity, minRatings: 0}
	content := &fakeEngine{name: AlgorithmContentBased, minRatings: 1}
	collaborative := &fakeEngine{name: AlgorithmCollaborative, minRatings: 3}
	knn := &fakeEngine{name: AlgorithmKNN, minRatings: 3}
	svc.Register(popularity)
	svc.Register(content)
	svc.Register(collaborative)
	svc.Register(knn)

	if err := svc.Precompute(context.Background(), "u1"); err != nil {
		t.Fatalf("Precompute: %v", err)
	}

	if popularity.callCount() != 1 {
		t.Errorf("popularity ran %d times, want 1", popularity.callCount())
	}
	if content.callCount() != 1 {
		t.Errorf("content ran %d times, want 1", content.callCount())
	}
	if collaborative.callCount() != 0 {
		t.Errorf("collaborative ran %d times, want 0 with 1 rating", collaborative.callCount())
	}
	if knn.callCount() != 0 {
		t.Errorf("knn ran %d times, want 0 with 1 rating", knn.callCount())
	}
}

func TestServicePrecomputeIsolatesFailures(t *testing.T) {
	ratings := &fakeRatingSource{ratings: map[string][]UserRating{
		"u1": {{GameID: "g1", Rating: 8}},
	}}
	cache := newFakeCacheStore()
	svc := newTestService(ServiceConfig{}, ratings, cache, nil)

	svc.Register(&fakeEngine{name: AlgorithmPopularity, err: errors.New("broken")})
	content := &fakeEngine{name: AlgorithmContentBased, minRatings: 1, results: []ScoredGame{{GameID: "x", Score: 0.5}}}
	svc.Register(content)

	if err := svc.Precompute(context.Background(), "u1"); err != nil {
		t.Fatalf("Precompute should isolate engine failures: %v", err)
	}
	if content.callCount() != 1 {
		t.Errorf("healthy engine should still run, ran %d times", content.callCount())
	}
	if cache.entries[cacheKey{"u1", AlgorithmContentBased}] == nil {
		t.Error("healthy engine's result should be cached")
	}
}

func TestServiceRecommendationsWithDetails(t *testing.T) {
	catalog := &fakeGameCatalog{infos: map[string]GameInfo{
		"a": {GameID: "a", Name: "Alpha Colony"},
		// "b" vanished from the catalog
		"c": {GameID: "c", Name: "Cave Crawlers"},
	}}
	svc := newTestService(ServiceConfig{}, nil, nil, catalog)
	svc.Register(&fakeEngine{name: AlgorithmPopularity, results: []ScoredGame{
		{GameID: "a", Score: 0.9},
		{GameID: "b", Score: 0.7},
		{GameID: "c", Score: 0.5},
	}})

	result, err := svc.RecommendationsWithDetails(context.Background(), "u1", AlgorithmPopularity, 10)
	if err != nil {
		t.Fatalf("RecommendationsWithDetails: %v", err)
	}

	if len(result.Games) != 2 {
		t.Fatalf("vanished game should be dropped, got %d games", len(result.Games))
	}
	if result.Games[0].Name != "Alpha Colony" || result.Games[0].Rank != 1 {
		t.Errorf("first detail wrong: %+v", result.Games[0])
	}
	if result.Games[1].GameID != "c" || result.Games[1].Rank != 3 {
		t.Errorf("dropped game should leave a rank gap: %+v", result.Games[1])
	}
}

func TestServiceAvailableAlgorithms(t *testing.T) {
	svc := newTestService(ServiceConfig{}, nil, nil, nil)
	svc.Register(&fakeEngine{name: AlgorithmKNN, minRatings: 3})
	svc.Register(&fakeEngine{name: AlgorithmPopularity, minRatings: 0})

	infos := svc.AvailableAlgorithms()
	if len(infos) != 2 {
		t.Fatalf("expected 2 algorithms, got %d", len(infos))
	}
	// Stable order follows Algorithms(), not registration order.
	if infos[0].ID != AlgorithmPopularity || infos[1].ID != AlgorithmKNN {
		t.Errorf("unexpected order: %v, %v", infos[0].ID, infos[1].ID)
	}
	if infos[1].MinRatings != 3 {
		t.Errorf("knn MinRatings = %d, want 3", infos[1].MinRatings)
	}
	if infos[0].Name == "" || infos[0].Description == "" {
		t.Error("algorithm info should carry a name and description")
	}
}
