// MeepleMind - Board Game Catalog and Recommendation Service
// Copyright 2026 MeepleMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meeplemind/recommender

package recommend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/meeplemind/recommender/internal/metrics"
)

// Service orchestrates the recommendation engines. It selects an engine,
// serves live cache entries, computes and persists fresh results, and
// invalidates per-user cache state when ratings change.
//
// The engine registry is built explicitly at process start and injected
// here; there is no package-level registration.
type Service struct {
	cfg     ServiceConfig
	logger  zerolog.Logger
	engines map[Algorithm]Engine

	ratings RatingSource
	cache   CacheStore
	catalog GameCatalog
}

// NewService creates a recommendation service without any engines
// registered.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewService(cfg ServiceConfig, logger zerolog.Logger, ratings RatingSource, cache CacheStore, catalog GameCatalog) *Service {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	if cfg.ComputeLimit <= 0 {
		cfg.ComputeLimit = 100
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 50
	}
	if cfg.MaxLimit < cfg.DefaultLimit {
		cfg.MaxLimit = cfg.DefaultLimit
	}
	if cfg.PrecomputeLimit <= 0 {
		cfg.PrecomputeLimit = 50
	}
	if cfg.PrecomputeTimeout <= 0 {
		cfg.PrecomputeTimeout = 2 * time.Minute
	}

	return &Service{
		cfg:     cfg,
		logger:  logger.With().Str("component", "recommend").Logger(),
		engines: make(map[Algorithm]Engine),
		ratings: ratings,
		cache:   cache,
		catalog: catalog,
	}
}

// Register adds an engine to the registry. Registering the same algorithm
// twice replaces the previous engine.
func (s *Service) Register(engine Engine) {
	s.engines[engine.Name()] = engine
	s.logger.Info().
		Str("algorithm", engine.Name().String()).
		Int("min_ratings", engine.MinRatings()).
		Msg("registered engine")
}

// Recommendations returns the ranked recommendation list for the user.
//
// A live (non-expired) cache entry is served unless forceRefresh is set.
// Otherwise the user's current ratings are loaded, the engine computes at
// an internal limit of at least ComputeLimit so the cached entry serves
// later calls with different limits, the result is persisted wholesale
// under (user, algorithm), and the requested slice is returned. A cache
// write failure is logged but does not fail the request.
func (s *Service) Recommendations(ctx context.Context, userID string, algorithm Algorithm, limit int, forceRefresh bool) (*Result, error) {
	start := time.Now()

	if userID == "" {
		return nil, ErrInvalidUserID
	}
	engine, ok := s.engines[algorithm]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}
	limit = s.clampLimit(limit)

	logger := s.logger.With().
		Str("user_id", userID).
		Str("algorithm", algorithm.String()).
		Logger()

	if !forceRefresh {
		cached, err := s.cache.FindLive(ctx, userID, algorithm)
		if err != nil {
			return nil, fmt.Errorf("read recommendation cache: %w", err)
		}
		if cached != nil {
			logger.Debug().Msg("cache hit")
			metrics.RecordRecommendation(algorithm.String(), true, 0)
			return resultFromCache(cached, limit), nil
		}
	}

	ratings, err := s.ratings.FindRatingsByUser(ctx, userID)
	if err != nil {
		metrics.RecordRecommendationError(algorithm.String())
		return nil, fmt.Errorf("load user ratings: %w", err)
	}

	computeLimit := limit
	if computeLimit < s.cfg.ComputeLimit {
		computeLimit = s.cfg.ComputeLimit
	}

	scored, err := engine.Recommend(ctx, userID, ratings, excludeSetFromRatings(ratings), computeLimit)
	if err != nil {
		metrics.RecordRecommendationError(algorithm.String())
		return nil, fmt.Errorf("%s recommendation: %w", algorithm, err)
	}

	now := time.Now().UTC()
	entry := &CachedRecommendation{
		UserID:           userID,
		Algorithm:        algorithm,
		Games:            rankGames(scored),
		GeneratedAt:      now,
		ExpiresAt:        now.Add(s.cfg.CacheTTL),
		InputRatingCount: len(ratings),
	}

	// Best effort: a failed cache write must not withhold freshly
	// computed recommendations from the caller.
	if err := s.cache.Save(ctx, entry); err != nil {
		logger.Warn().Err(err).Msg("failed to cache recommendations")
	}

	metrics.RecordRecommendation(algorithm.String(), false, time.Since(start))
	logger.Debug().
		Int("computed", len(scored)).
		Int("input_ratings", len(ratings)).
		Dur("elapsed", time.Since(start)).
		Msg("recommendations computed")

	return &Result{
		Algorithm:        algorithm,
		Games:            truncateScoredGames(scored, limit),
		GeneratedAt:      now,
		InputRatingCount: len(ratings),
	}, nil
}

// RecommendationsWithDetails joins the recommendation list with full
// catalog records for presentation. Games that have vanished from the
// catalog are silently dropped.
func (s *Service) RecommendationsWithDetails(ctx context.Context, userID string, algorithm Algorithm, limit int) (*DetailedResult, error) {
	result, err := s.Recommendations(ctx, userID, algorithm, limit, false)
	if err != nil {
		return nil, err
	}

	detailed := &DetailedResult{
		Algorithm:        result.Algorithm,
		Games:            []DetailedGame{},
		GeneratedAt:      result.GeneratedAt,
		InputRatingCount: result.InputRatingCount,
	}
	if len(result.Games) == 0 {
		return detailed, nil
	}

	ids := make([]string, len(result.Games))
	for i, g := range result.Games {
		ids[i] = g.GameID
	}

	infos, err := s.catalog.GameInfoByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load game details: %w", err)
	}

	infoByID := make(map[string]GameInfo, len(infos))
	for _, info := range infos {
		infoByID[info.GameID] = info
	}

	for i, g := range result.Games {
		info, ok := infoByID[g.GameID]
		if !ok {
			continue
		}
		detailed.Games = append(detailed.Games, DetailedGame{
			GameInfo: info,
			Score:    g.Score,
			Rank:     i + 1,
		})
	}

	return detailed, nil
}

// InvalidateCache deletes all cached recommendations for the user. Call
// it whenever one of the user's ratings is added, updated or deleted.
func (s *Service) InvalidateCache(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrInvalidUserID
	}
	if err := s.cache.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("invalidate recommendation cache: %w", err)
	}
	metrics.CacheInvalidations.Inc()
	return nil
}

// Precompute force-recomputes recommendations for every algorithm the
// user's rating count qualifies for. Engines run concurrently; individual
// failures are logged and isolated so one algorithm cannot block the
// others.
func (s *Service) Precompute(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrInvalidUserID
	}

	count, err := s.ratings.CountRatingsByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("count user ratings: %w", err)
	}

	eligible := s.eligibleAlgorithms(count)

	var wg sync.WaitGroup
	for _, algorithm := range eligible {
		wg.Add(1)
		go func(algorithm Algorithm) {
			defer wg.Done()

			_, err := s.Recommendations(ctx, userID, algorithm, s.cfg.PrecomputeLimit, true)
			metrics.RecordPrecompute(algorithm.String(), err)
			if err != nil {
				s.logger.Error().
					Err(err).
					Str("user_id", userID).
					Str("algorithm", algorithm.String()).
					Msg("precompute failed")
			}
		}(algorithm)
	}
	wg.Wait()

	return nil
}

// PrecomputeAsync runs Precompute on a detached goroutine with a bounded
// background context, so a rating write never waits on recomputation.
// The read path stays eventually consistent: a racing read may serve a
// stale entry until invalidation and recompute complete.
func (s *Service) PrecomputeAsync(userID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.PrecomputeTimeout)
		defer cancel()

		if err := s.Precompute(ctx, userID); err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("background precompute failed")
		}
	}()
}

// AvailableAlgorithms describes the registered algorithms for discovery
// endpoints, in stable order.
func (s *Service) AvailableAlgorithms() []AlgorithmInfo {
	descriptions := map[Algorithm]AlgorithmInfo{
		AlgorithmPopularity: {
			Name:        "Popular Games",
			Description: "Top-rated games by the community. Great for new users.",
		},
		AlgorithmContentBased: {
			Name:        "Content Match",
			Description: "Games similar to ones you rated highly (categories, mechanics).",
		},
		AlgorithmCollaborative: {
			Name:        "Similar Users",
			Description: "Games liked by users with similar taste.",
		},
		AlgorithmKNN: {
			Name:        "Item Similarity",
			Description: "Predictions based on similar games you've rated.",
		},
	}

	infos := make([]AlgorithmInfo, 0, len(s.engines))
	for _, algorithm := range Algorithms() {
		engine, ok := s.engines[algorithm]
		if !ok {
			continue
		}
		info := descriptions[algorithm]
		info.ID = algorithm
		info.MinRatings = engine.MinRatings()
		infos = append(infos, info)
	}
	return infos
}

// eligibleAlgorithms selects the registered algorithms whose rating
// minimum the user meets.
func (s *Service) eligibleAlgorithms(ratingCount int) []Algorithm {
	eligible := make([]Algorithm, 0, len(s.engines))
	for _, algorithm := range Algorithms() {
		engine, ok := s.engines[algorithm]
		if !ok {
			continue
		}
		if ratingCount >= engine.MinRatings() {
			eligible = append(eligible, algorithm)
		}
	}
	return eligible
}

// clampLimit applies the default and maximum result limits.
func (s *Service) clampLimit(limit int) int {
	if limit <= 0 {
		return s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		return s.cfg.MaxLimit
	}
	return limit
}

// rankGames assigns 1-based ranks following the sort order.
func rankGames(scored []ScoredGame) []RankedGame {
	ranked := make([]RankedGame, len(scored))
	for i, g := range scored {
		ranked[i] = RankedGame{GameID: g.GameID, Score: g.Score, Rank: i + 1}
	}
	return ranked
}

// resultFromCache converts a cache entry into a request-sized result.
func resultFromCache(entry *CachedRecommendation, limit int) *Result {
	games := make([]ScoredGame, 0, limit)
	for _, g := range entry.Games {
		if len(games) == limit {
			break
		}
		games = append(games, ScoredGame{GameID: g.GameID, Score: g.Score})
	}

	return &Result{
		Algorithm:        entry.Algorithm,
		Games:            games,
		GeneratedAt:      entry.GeneratedAt,
		InputRatingCount: entry.InputRatingCount,
		CacheHit:         true,
	}
}
