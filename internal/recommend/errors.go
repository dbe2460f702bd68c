// MeepleMind - Board Game Catalog and Recommendation Service
// Copyright 2026 MeepleMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meeplemind/recommender

package recommend

import "errors"

// Validation errors, rejected before any engine is invoked. They are
// distinct from storage failures so callers can map them to client errors.
var (
	// ErrUnknownAlgorithm indicates the requested algorithm is not known
	// or not registered with the service.
	ErrUnknownAlgorithm = errors.New("unknown recommendation algorithm")

	// ErrInvalidUserID indicates an empty or malformed user identifier.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrInvalidRating indicates a rating outside the 1-10 range.
	ErrInvalidRating = errors.New("rating must be between 1 and 10")
)
