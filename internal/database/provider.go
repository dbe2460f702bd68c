// MeepleMind - Board Game Catalog and Recommendation Service
// Copyright 2026 MeepleMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meeplemind/recommender

package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/meeplemind/recommender/internal/models"
	"github.com/meeplemind/recommender/internal/recommend"
)

// Provider adapts the Mongo stores to the data interfaces of the
// recommendation engines. Game IDs cross the boundary as hex strings;
// the conversion to ObjectID happens here so the engines never see
// driver types.
type Provider struct {
	games        *GameStore
	ratings      *RatingStore
	similarities *SimilarityStore
	cache        *RecommendationStore
}

// NewProvider wires the stores into a single engine-facing provider.
func NewProvider(games *GameStore, ratings *RatingStore, similarities *SimilarityStore, cache *RecommendationStore) *Provider {
	return &Provider{
		games:        games,
		ratings:      ratings,
		similarities: similarities,
		cache:        cache,
	}
}

var (
	_ recommend.PopularityData    = (*Provider)(nil)
	_ recommend.ContentData       = (*Provider)(nil)
	_ recommend.CollaborativeData = (*Provider)(nil)
	_ recommend.KNNData           = (*Provider)(nil)
	_ recommend.RatingSource      = (*Provider)(nil)
	_ recommend.CacheStore        = (*Provider)(nil)
	_ recommend.GameCatalog       = (*Provider)(nil)
)

// parseIDs converts hex strings to ObjectIDs, dropping malformed ones.
// IDs come from our own stored documents, so malformed values indicate
// stale data rather than caller error.
func parseIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		out = append(out, oid)
	}
	return out
}

// GameStats implements recommend.PopularityData.
func (p *Provider) GameStats(ctx context.Context, minRatingCount int) ([]recommend.GameStats, error) {
	stats, err := p.games.GameStats(ctx, minRatingCount)
	if err != nil {
		return nil, err
	}
	out := make([]recommend.GameStats, 0, len(stats))
	for _, s := range stats {
		out = append(out, recommend.GameStats{
			GameID:  s.GameID.Hex(),
			Average: s.Average,
			Count:   s.Count,
		})
	}
	return out, nil
}

// GameFeaturesByID implements recommend.ContentData.
func (p *Provider) GameFeaturesByID(ctx context.Context, gameIDs []string) ([]recommend.GameFeatures, error) {
	games, err := p.games.FindGamesByIDs(ctx, parseIDs(gameIDs))
	if err != nil {
		return nil, err
	}
	out := make([]recommend.GameFeatures, 0, len(games))
	for i := range games {
		out = append(out, featuresFromGame(&games[i]))
	}
	return out, nil
}

// CandidatesByFeatures implements recommend.ContentData.
func (p *Provider) CandidatesByFeatures(ctx context.Context, categories, mechanics []string, limit int) ([]recommend.GameFeatures, error) {
	games, err := p.games.CandidatesByFeatures(ctx, categories, mechanics, int64(limit))
	if err != nil {
		return nil, err
	}
	out := make([]recommend.GameFeatures, 0, len(games))
	for i := range games {
		out = append(out, featuresFromGame(&games[i]))
	}
	return out, nil
}

// RatingTriples implements recommend.CollaborativeData.
func (p *Provider) RatingTriples(ctx context.Context, minRatingsPerGame int) ([]recommend.RatingTriple, error) {
	docs, err := p.ratings.RatingTriples(ctx, minRatingsPerGame)
	if err != nil {
		return nil, err
	}
	out := make([]recommend.RatingTriple, 0, len(docs))
	for _, d := range docs {
		out = append(out, recommend.RatingTriple{
			UserID: d.UserID,
			GameID: d.GameID.Hex(),
			Rating: d.Rating,
		})
	}
	return out, nil
}

// SimilarGames implements recommend.KNNData.
func (p *Provider) SimilarGames(ctx context.Context, gameIDs []string) (map[string][]recommend.SimilarGame, error) {
	docs, err := p.similarities.FindSimilarGames(ctx, parseIDs(gameIDs))
	if err != nil {
		return nil, err
	}
	out := make(map[string][]recommend.SimilarGame, len(docs))
	for _, doc := range docs {
		similar := make([]recommend.SimilarGame, 0, len(doc.SimilarGames))
		for _, ref := range doc.SimilarGames {
			similar = append(similar, recommend.SimilarGame{
				GameID:     ref.GameID.Hex(),
				Similarity: ref.Similarity,
			})
		}
		out[doc.GameID.Hex()] = similar
	}
	return out, nil
}

// GameBaselines implements recommend.KNNData.
func (p *Provider) GameBaselines(ctx context.Context, gameIDs []string) (map[string]float64, error) {
	baselines, err := p.games.GameBaselines(ctx, parseIDs(gameIDs))
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(baselines))
	for id, avg := range baselines {
		out[id.Hex()] = avg
	}
	return out, nil
}

// FindRatingsByUser implements recommend.RatingSource.
func (p *Provider) FindRatingsByUser(ctx context.Context, userID string) ([]recommend.UserRating, error) {
	ratings, err := p.ratings.FindRatingsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]recommend.UserRating, 0, len(ratings))
	for _, r := range ratings {
		out = append(out, recommend.UserRating{
			GameID: r.GameID.Hex(),
			Rating: r.Rating,
		})
	}
	return out, nil
}

// CountRatingsByUser implements recommend.RatingSource.
func (p *Provider) CountRatingsByUser(ctx context.Context, userID string) (int, error) {
	count, err := p.ratings.CountRatingsByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// FindLive implements recommend.CacheStore.
func (p *Provider) FindLive(ctx context.Context, userID string, algorithm recommend.Algorithm) (*recommend.CachedRecommendation, error) {
	rec, err := p.cache.FindLive(ctx, userID, algorithm.String())
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}

	games := make([]recommend.RankedGame, 0, len(rec.Games))
	for _, g := range rec.Games {
		games = append(games, recommend.RankedGame{
			GameID: g.GameID.Hex(),
			Score:  g.Score,
			Rank:   g.Rank,
		})
	}
	return &recommend.CachedRecommendation{
		UserID:           rec.UserID,
		Algorithm:        recommend.Algorithm(rec.Algorithm),
		Games:            games,
		GeneratedAt:      rec.GeneratedAt,
		ExpiresAt:        rec.ExpiresAt,
		InputRatingCount: rec.InputRatingCount,
	}, nil
}

// Save implements recommend.CacheStore.
func (p *Provider) Save(ctx context.Context, entry *recommend.CachedRecommendation) error {
	games := make([]models.RecommendedGame, 0, len(entry.Games))
	for _, g := range entry.Games {
		oid, err := primitive.ObjectIDFromHex(g.GameID)
		if err != nil {
			return fmt.Errorf("invalid game id %q in recommendation: %w", g.GameID, err)
		}
		games = append(games, models.RecommendedGame{
			GameID: oid,
			Score:  g.Score,
			Rank:   g.Rank,
		})
	}
	return p.cache.Save(ctx, &models.Recommendation{
		UserID:           entry.UserID,
		Algorithm:        entry.Algorithm.String(),
		Games:            games,
		GeneratedAt:      entry.GeneratedAt,
		ExpiresAt:        entry.ExpiresAt,
		InputRatingCount: entry.InputRatingCount,
	})
}

// DeleteByUser implements recommend.CacheStore.
func (p *Provider) DeleteByUser(ctx context.Context, userID string) error {
	_, err := p.cache.DeleteByUser(ctx, userID)
	return err
}

// GameInfoByID implements recommend.GameCatalog.
func (p *Provider) GameInfoByID(ctx context.Context, gameIDs []string) ([]recommend.GameInfo, error) {
	games, err := p.games.FindGamesByIDs(ctx, parseIDs(gameIDs))
	if err != nil {
		return nil, err
	}
	out := make([]recommend.GameInfo, 0, len(games))
	for i := range games {
		out = append(out, infoFromGame(&games[i]))
	}
	return out, nil
}

// featuresFromGame projects a catalog record onto the content scoring
// inputs.
func featuresFromGame(g *models.Game) recommend.GameFeatures {
	return recommend.GameFeatures{
		GameID:      g.ID.Hex(),
		Categories:  g.Categories,
		Mechanics:   g.Mechanics,
		MinPlayers:  g.MinPlayers,
		MaxPlayers:  g.MaxPlayers,
		MinPlaytime: g.MinPlaytime,
		MaxPlaytime: g.MaxPlaytime,
		Complexity:  g.Complexity,
	}
}

// infoFromGame projects a catalog record onto the presentation join.
func infoFromGame(g *models.Game) recommend.GameInfo {
	info := recommend.GameInfo{
		GameID:        g.ID.Hex(),
		Name:          g.Name,
		YearPublished: g.YearPublished,
		Categories:    g.Categories,
		Mechanics:     g.Mechanics,
		MinPlayers:    g.MinPlayers,
		MaxPlayers:    g.MaxPlayers,
		MinPlaytime:   g.MinPlaytime,
		MaxPlaytime:   g.MaxPlaytime,
		Complexity:    g.Complexity,
	}
	if g.ImageURL != nil {
		info.ImageURL = *g.ImageURL
	}
	if g.ThumbnailURL != nil {
		info.ThumbnailURL = *g.ThumbnailURL
	}
	if g.BggRating != nil {
		avg := g.BggRating.Average
		count := g.BggRating.Count
		info.RatingAverage = &avg
		info.RatingCount = &count
	}
	return info
}
