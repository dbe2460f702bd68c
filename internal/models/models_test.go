// MeepleMind - Board Game Catalog and Recommendation Service
// Copyright 2026 MeepleMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meeplemind/recommender

package models

import "testing"

func TestValidateRating(t *testing.T) {
	tests := []struct {
		score   int
		wantErr bool
	}{
		{1, false},
		{5, false},
		{10, false},
		{0, true},
		{11, true},
		{-3, true},
	}

	for _, tt := range tests {
		err := ValidateRating(tt.score)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateRating(%d) error = %v, wantErr %v", tt.score, err, tt.wantErr)
		}
	}
}
