// MeepleMind - Board Game Catalog and Recommendation Service
// Copyright 2026 MeepleMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meeplemind/recommender

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/meeplemind/recommender/internal/database"
	"github.com/meeplemind/recommender/internal/logging"
	"github.com/meeplemind/recommender/internal/models"
	"github.com/meeplemind/recommender/internal/recommend"
)

// RecommendationService is the slice of the recommend service the
// handlers consume.
type RecommendationService interface {
	Recommendations(ctx context.Context, userID string, algorithm recommend.Algorithm, limit int, forceRefresh bool) (*recommend.Result, error)
	RecommendationsWithDetails(ctx context.Context, userID string, algorithm recommend.Algorithm, limit int) (*recommend.DetailedResult, error)
	InvalidateCache(ctx context.Context, userID string) error
	PrecomputeAsync(userID string)
	AvailableAlgorithms() []recommend.AlgorithmInfo
}

// GameReader is the catalog access the handlers consume.
type GameReader interface {
	FindGameByID(ctx context.Context, id primitive.ObjectID) (*models.Game, error)
	FindGames(ctx context.Context, opts database.ListOptions) ([]models.Game, error)
	SearchGames(ctx context.Context, query string, limit int64) ([]models.Game, error)
}

// RatingAccess is the rating store access the handlers consume.
type RatingAccess interface {
	FindRatingsByUser(ctx context.Context, userID string) ([]models.Rating, error)
	UpsertRating(ctx context.Context, userID string, gameID primitive.ObjectID, score int, origin models.RatingOrigin) (*models.Rating, error)
	DeleteRating(ctx context.Context, userID string, gameID primitive.ObjectID) (bool, error)
}

// Pinger checks backing store connectivity for readiness probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains dependencies for the API handlers.
type Handler struct {
	recommender RecommendationService
	games       GameReader
	ratings     RatingAccess
	db          Pinger
}

// NewHandler creates an API handler with explicit dependencies.
func NewHandler(recommender RecommendationService, games GameReader, ratings RatingAccess, db Pinger) *Handler {
	return &Handler{
		recommender: recommender,
		games:       games,
		ratings:     ratings,
		db:          db,
	}
}

// Health reports service and database health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	status := "healthy"
	dbStatus := "up"
	code := http.StatusOK
	if err := h.db.Ping(r.Context()); err != nil {
		status = "degraded"
		dbStatus = "down"
		code = http.StatusServiceUnavailable
	}

	respondData(w, code, map[string]string{
		"status":   status,
		"database": dbStatus,
	}, start)
}

// GetGame returns one catalog record by ID.
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid game ID", err)
		return
	}

	game, err := h.games.FindGameByID(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Game not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load game", err)
		return
	}

	respondData(w, http.StatusOK, game, start)
}

// ListGames returns a page of the catalog, optionally filtered by
// category or mechanic.
func (h *Handler) ListGames(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	opts := database.ListOptions{
		Skip:  parseInt64Param(r, "skip", 0),
		Limit: parseInt64Param(r, "limit", 50),
	}
	if opts.Limit < 1 || opts.Limit > 100 {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be 1-100", nil)
		return
	}
	if category := r.URL.Query().Get("category"); category != "" {
		opts.Filter = bson.M{"categories": category}
	}
	if mechanic := r.URL.Query().Get("mechanic"); mechanic != "" {
		if opts.Filter == nil {
			opts.Filter = bson.M{}
		}
		opts.Filter["mechanics"] = mechanic
	}

	games, err := h.games.FindGames(r.Context(), opts)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list games", err)
		return
	}

	respondData(w, http.StatusOK, games, start)
}

// SearchGames performs a text search over the catalog.
func (h *Handler) SearchGames(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "q parameter is required", nil)
		return
	}

	games, err := h.games.SearchGames(r.Context(), query, parseInt64Param(r, "limit", 20))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Search failed", err)
		return
	}

	respondData(w, http.StatusOK, games, start)
}

// ListRatings returns a user's ratings.
func (h *Handler) ListRatings(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	userID := chi.URLParam(r, "userID")
	ratings, err := h.ratings.FindRatingsByUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load ratings", err)
		return
	}

	respondData(w, http.StatusOK, ratings, start)
}

// putRatingRequest is the PUT rating body.
type putRatingRequest struct {
	Rating int `json:"rating"`
}

// PutRating creates or updates a rating, invalidates the user's cached
// recommendations, and kicks off a background recompute.
func (h *Handler) PutRating(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	userID := chi.URLParam(r, "userID")
	gameID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "gameID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid game ID", err)
		return
	}

	var req putRatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", err)
		return
	}
	if err := models.ValidateRating(req.Rating); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	rating, err := h.ratings.UpsertRating(r.Context(), userID, gameID, req.Rating, models.OriginApp)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to save rating", err)
		return
	}

	h.afterRatingChange(r.Context(), userID)
	respondData(w, http.StatusOK, rating, start)
}

// DeleteRating removes a rating and invalidates the user's cached
// recommendations.
func (h *Handler) DeleteRating(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	userID := chi.URLParam(r, "userID")
	gameID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "gameID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid game ID", err)
		return
	}

	deleted, err := h.ratings.DeleteRating(r.Context(), userID, gameID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete rating", err)
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Rating not found", nil)
		return
	}

	h.afterRatingChange(r.Context(), userID)
	respondData(w, http.StatusOK, map[string]bool{"deleted": true}, start)
}

// afterRatingChange keeps cached recommendations consistent with the
// user's ratings. Invalidation is synchronous so a follow-up read never
// sees recommendations derived from the old rating set; recomputation is
// asynchronous so the write path stays fast.
func (h *Handler) afterRatingChange(ctx context.Context, userID string) {
	if err := h.recommender.InvalidateCache(ctx, userID); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("user_id", userID).Msg("cache invalidation failed")
		return
	}
	h.recommender.PrecomputeAsync(userID)
}

// GetRecommendations returns the ranked list for a user and algorithm.
// Query parameters: algorithm (default popularity), limit, refresh,
// details (join full game records).
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	userID := chi.URLParam(r, "userID")
	algorithm := recommend.Algorithm(r.URL.Query().Get("algorithm"))
	if algorithm == "" {
		algorithm = recommend.AlgorithmPopularity
	}
	if !algorithm.Valid() {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown algorithm", nil)
		return
	}
	limit := int(parseInt64Param(r, "limit", 0))

	if r.URL.Query().Get("details") == "true" {
		result, err := h.recommender.RecommendationsWithDetails(r.Context(), userID, algorithm, limit)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "RECOMMENDATION_ERROR", "Failed to compute recommendations", err)
			return
		}
		respondData(w, http.StatusOK, result, start)
		return
	}

	forceRefresh := r.URL.Query().Get("refresh") == "true"
	result, err := h.recommender.Recommendations(r.Context(), userID, algorithm, limit, forceRefresh)
	if err != nil {
		if errors.Is(err, recommend.ErrUnknownAlgorithm) {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown algorithm", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "RECOMMENDATION_ERROR", "Failed to compute recommendations", err)
		return
	}

	respondCached(w, http.StatusOK, result, start, result.CacheHit)
}

// ListAlgorithms describes the available recommendation algorithms.
func (h *Handler) ListAlgorithms(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	respondData(w, http.StatusOK, h.recommender.AvailableAlgorithms(), start)
}

// parseInt64Param reads an integer query parameter with a fallback.
func parseInt64Param(r *http.Request, name string, fallback int64) int64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return v
}
