// MeepleMind - Board Game Catalog and Recommendation Service
// Copyright 2026 MeepleMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meeplemind/recommender

// Package recommend implements the board game recommendation core.
//
// # Architecture
//
// Four interchangeable engines convert a user's game ratings into a ranked
// list of suggested games:
//
//   - Popularity: normalized blend of community rating average and count
//   - Content-Based: weighted taste profile over categories, mechanics and
//     numeric features of highly-rated games
//   - Collaborative: user-based filtering with centered cosine similarity
//   - KNN: item-based prediction from a precomputed similarity table
//
// The Service orchestrates engine selection, caches ranked results per
// (user, algorithm) with a TTL, invalidates on rating changes, and joins
// cached results back to catalog records for presentation.
//
// # Design Principles
//
//   - Deterministic: identical rating and catalog snapshots produce
//     identical ordered output (ties broken by game ID)
//   - Pure engines: all I/O happens at the data-loading boundary through
//     narrow provider interfaces; scoring itself is synchronous and pure
//   - Cold start is not an error: engines below their rating minimum
//     return an empty list
//
// # Usage
//
//	cfg := recommend.DefaultConfig()
//	svc := recommend.NewService(cfg.Service, logger, ratings, cache, catalog)
//	svc.Register(recommend.NewPopularityEngine(cfg.Popularity, stats))
//	svc.Register(recommend.NewContentEngine(cfg.Content, games))
//
//	result, err := svc.Recommendations(ctx, userID, recommend.AlgorithmPopularity, 20, false)
//
// # Thread Safety
//
// Engines and the Service are safe for concurrent use. Each recommendation
// computation is an independent, stateless unit of work; cache writes are
// full-document replacements under the (user, algorithm) key, so concurrent
// writers are last-writer-wins rather than a correctness hazard.
//
// Note: this package has no dependencies on other internal packages except
// metrics. The provider interfaces allow integration with the database
// package without creating circular imports.
package recommend
