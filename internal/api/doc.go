// MeepleMind - Board Game Catalog and Recommendation Service
// Copyright 2026 MeepleMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meeplemind/recommender

// Package api provides the HTTP surface of the service, built on the
// Chi router.
//
// Routes are versioned under /api/v1 and return a uniform JSON envelope
// (models.APIResponse). The package owns routing, middleware, request
// parsing, and response encoding; all domain logic lives in the
// recommend service and the database stores.
package api
