// MeepleMind - Board Game Catalog and Recommendation Service
// Copyright 2026 MeepleMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meeplemind/recommender

// Package metrics provides Prometheus instrumentation for the service.
//
// Collectors are registered with the default registry via promauto and
// exposed on the /metrics endpoint by the API router. Recording helpers
// keep label cardinality fixed: algorithms, collections and route
// patterns, never raw user input.
package metrics
