// MeepleMind - Board Game Catalog and Recommendation Service
// Copyright 2026 MeepleMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meeplemind/recommender

package recommend

import (
	"fmt"
	"time"
)

// Config contains all configuration for the recommendation core.
type Config struct {
	// Popularity contains parameters for the popularity engine.
	Popularity PopularityConfig `json:"popularity" koanf:"popularity"`

	// Content contains parameters for the content-based engine.
	Content ContentConfig `json:"content" koanf:"content"`

	// Collaborative contains parameters for user-based collaborative filtering.
	Collaborative CollaborativeConfig `json:"collaborative" koanf:"collaborative"`

	// KNN contains parameters for item-based KNN prediction.
	KNN KNNConfig `json:"knn" koanf:"knn"`

	// Service contains orchestration and caching parameters.
	Service ServiceConfig `json:"service" koanf:"service"`
}

// PopularityConfig contains parameters for the popularity engine.
type PopularityConfig struct {
	// MinRatingCount is the minimum external rating count a game needs to
	// be considered. Default: 100.
	MinRatingCount int `json:"min_rating_count" koanf:"min_rating_count"`

	// AverageWeight is the blend weight of the normalized rating average.
	// Default: 0.7.
	AverageWeight float64 `json:"average_weight" koanf:"average_weight"`

	// CountWeight is the blend weight of the normalized rating count.
	// Default: 0.3.
	CountWeight float64 `json:"count_weight" koanf:"count_weight"`
}

// ContentConfig contains parameters for the content-based engine.
type ContentConfig struct {
	// HighRatingThreshold is the minimum rating for a game to contribute
	// to the taste profile. If no rating qualifies, all ratings are used.
	// Default: 7.
	HighRatingThreshold int `json:"high_rating_threshold" koanf:"high_rating_threshold"`

	// CandidateLimit caps the candidate pool queried per computation.
	// Default: 1000.
	CandidateLimit int `json:"candidate_limit" koanf:"candidate_limit"`

	// CategoryWeight is the importance of matching categories.
	// Default: 0.5.
	CategoryWeight float64 `json:"category_weight" koanf:"category_weight"`

	// MechanicWeight is the importance of matching mechanics.
	// Default: 0.3.
	MechanicWeight float64 `json:"mechanic_weight" koanf:"mechanic_weight"`

	// PlayersWeight is the importance of player count proximity.
	// Default: 0.07.
	PlayersWeight float64 `json:"players_weight" koanf:"players_weight"`

	// PlaytimeWeight is the importance of playtime proximity.
	// Default: 0.07.
	PlaytimeWeight float64 `json:"playtime_weight" koanf:"playtime_weight"`

	// ComplexityWeight is the importance of complexity proximity.
	// Default: 0.06.
	ComplexityWeight float64 `json:"complexity_weight" koanf:"complexity_weight"`
}

// CollaborativeConfig contains parameters for user-based collaborative
// filtering. The fraction and group size were fixed constants in earlier
// revisions; they are exposed here as tunables with the same defaults.
type CollaborativeConfig struct {
	// MinRatingsPerGame restricts the utility matrix to games with at
	// least this many ratings. Default: 50.
	MinRatingsPerGame int `json:"min_ratings_per_game" koanf:"min_ratings_per_game"`

	// MinOverlap is the minimum number of commonly rated games required
	// to compare two users. Default: 2.
	MinOverlap int `json:"min_overlap" koanf:"min_overlap"`

	// NeighborFraction is the fraction of similar users kept, sorted by
	// similarity descending (minimum 1 user). Default: 0.2.
	NeighborFraction float64 `json:"neighbor_fraction" koanf:"neighbor_fraction"`

	// MinGroupSize is the minimum number of neighbor ratings a game needs
	// to produce a prediction. Default: 5.
	MinGroupSize int `json:"min_group_size" koanf:"min_group_size"`
}

// KNNConfig contains parameters for item-based KNN prediction.
type KNNConfig struct {
	// K is the maximum number of neighbors per prediction. Default: 40.
	K int `json:"k" koanf:"k"`

	// MinK is the minimum number of neighbors needed for a valid
	// prediction; candidates below it are skipped. Default: 5.
	MinK int `json:"min_k" koanf:"min_k"`

	// FallbackBaseline is the baseline mean rating assumed for games
	// without an external aggregate rating. The value is inherited from
	// earlier revisions and kept for compatibility. Default: 6.5.
	FallbackBaseline float64 `json:"fallback_baseline" koanf:"fallback_baseline"`
}

// ServiceConfig contains orchestration and caching parameters.
type ServiceConfig struct {
	// CacheTTL is how long a cached recommendation stays live.
	// Default: 24h.
	CacheTTL time.Duration `json:"cache_ttl" koanf:"cache_ttl"`

	// ComputeLimit is the minimum internal limit used when computing, so
	// one cache entry serves later calls with different limits.
	// Default: 100.
	ComputeLimit int `json:"compute_limit" koanf:"compute_limit"`

	// DefaultLimit is used when a request does not specify a limit.
	// Default: 50.
	DefaultLimit int `json:"default_limit" koanf:"default_limit"`

	// MaxLimit caps the number of recommendations returned per request.
	// Default: 100.
	MaxLimit int `json:"max_limit" koanf:"max_limit"`

	// PrecomputeLimit is the limit used for background precomputation.
	// Default: 50.
	PrecomputeLimit int `json:"precompute_limit" koanf:"precompute_limit"`

	// PrecomputeTimeout bounds a background precompute run. Default: 2m.
	PrecomputeTimeout time.Duration `json:"precompute_timeout" koanf:"precompute_timeout"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		Popularity: PopularityConfig{
			MinRatingCount: 100,
			AverageWeight:  0.7,
			CountWeight:    0.3,
		},
		Content: ContentConfig{
			HighRatingThreshold: 7,
			CandidateLimit:      1000,
			CategoryWeight:      0.5,
			MechanicWeight:      0.3,
			PlayersWeight:       0.07,
			PlaytimeWeight:      0.07,
			ComplexityWeight:    0.06,
		},
		Collaborative: CollaborativeConfig{
			MinRatingsPerGame: 50,
			MinOverlap:        2,
			NeighborFraction:  0.2,
			MinGroupSize:      5,
		},
		KNN: KNNConfig{
			K:                40,
			MinK:             5,
			FallbackBaseline: 6.5,
		},
		Service: ServiceConfig{
			CacheTTL:          24 * time.Hour,
			ComputeLimit:      100,
			DefaultLimit:      50,
			MaxLimit:          100,
			PrecomputeLimit:   50,
			PrecomputeTimeout: 2 * time.Minute,
		},
	}
}

// Validate checks the configuration for errors.
//
//nolint:gocyclo // validation needs to check many fields
func (c *Config) Validate() error {
	if c.Popularity.MinRatingCount < 0 {
		return fmt.Errorf("popularity.min_rating_count must be non-negative, got %d", c.Popularity.MinRatingCount)
	}
	if c.Popularity.AverageWeight < 0 || c.Popularity.CountWeight < 0 {
		return fmt.Errorf("popularity weights must be non-negative, got %f/%f", c.Popularity.AverageWeight, c.Popularity.CountWeight)
	}
	if c.Popularity.AverageWeight+c.Popularity.CountWeight == 0 {
		return fmt.Errorf("popularity weights must not both be zero")
	}

	if c.Content.HighRatingThreshold < 1 || c.Content.HighRatingThreshold > 10 {
		return fmt.Errorf("content.high_rating_threshold must be in [1, 10], got %d", c.Content.HighRatingThreshold)
	}
	if c.Content.CandidateLimit < 1 {
		return fmt.Errorf("content.candidate_limit must be positive, got %d", c.Content.CandidateLimit)
	}

	if c.Collaborative.MinRatingsPerGame < 1 {
		return fmt.Errorf("collaborative.min_ratings_per_game must be positive, got %d", c.Collaborative.MinRatingsPerGame)
	}
	if c.Collaborative.MinOverlap < 1 {
		return fmt.Errorf("collaborative.min_overlap must be positive, got %d", c.Collaborative.MinOverlap)
	}
	if c.Collaborative.NeighborFraction <= 0 || c.Collaborative.NeighborFraction > 1 {
		return fmt.Errorf("collaborative.neighbor_fraction must be in (0, 1], got %f", c.Collaborative.NeighborFraction)
	}
	if c.Collaborative.MinGroupSize < 1 {
		return fmt.Errorf("collaborative.min_group_size must be positive, got %d", c.Collaborative.MinGroupSize)
	}

	if c.KNN.K < 1 {
		return fmt.Errorf("knn.k must be positive, got %d", c.KNN.K)
	}
	if c.KNN.MinK < 1 || c.KNN.MinK > c.KNN.K {
		return fmt.Errorf("knn.min_k must be in [1, k], got %d", c.KNN.MinK)
	}
	if c.KNN.FallbackBaseline < 1 || c.KNN.FallbackBaseline > 10 {
		return fmt.Errorf("knn.fallback_baseline must be in [1, 10], got %f", c.KNN.FallbackBaseline)
	}

	if c.Service.CacheTTL <= 0 {
		return fmt.Errorf("service.cache_ttl must be positive, got %v", c.Service.CacheTTL)
	}
	if c.Service.ComputeLimit < 1 {
		return fmt.Errorf("service.compute_limit must be positive, got %d", c.Service.ComputeLimit)
	}
	if c.Service.DefaultLimit < 1 {
		return fmt.Errorf("service.default_limit must be positive, got %d", c.Service.DefaultLimit)
	}
	if c.Service.MaxLimit < c.Service.DefaultLimit {
		return fmt.Errorf("service.max_limit must be >= service.default_limit, got %d < %d", c.Service.MaxLimit, c.Service.DefaultLimit)
	}
	if c.Service.PrecomputeLimit < 1 {
		return fmt.Errorf("service.precompute_limit must be positive, got %d", c.Service.PrecomputeLimit)
	}
	if c.Service.PrecomputeTimeout <= 0 {
		return fmt.Errorf("service.precompute_timeout must be positive, got %v", c.Service.PrecomputeTimeout)
	}

	return nil
}
