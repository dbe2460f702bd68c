// MeepleMind - Board Game Catalog and Recommendation Service
// Copyright 2026 MeepleMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meeplemind/recommender

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/meeplemind/recommender/internal/database"
	"github.com/meeplemind/recommender/internal/models"
	"github.com/meeplemind/recommender/internal/recommend"
)

type fakeRecommender struct {
	mu sync.Mutex

	result      *recommend.Result
	detailed    *recommend.DetailedResult
	err         error
	invalidated []string
	precomputed []string

	gotAlgorithm recommend.Algorithm
	gotLimit     int
	gotRefresh   bool
}

func (f *fakeRecommender) Recommendations(_ context.Context, userID string, algorithm recommend.Algorithm, limit int, forceRefresh bool) (*recommend.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotAlgorithm = algorithm
	f.gotLimit = limit
	f.gotRefresh = forceRefresh
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeRecommender) RecommendationsWithDetails(_ context.Context, userID string, algorithm recommend.Algorithm, limit int) (*recommend.DetailedResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.detailed, nil
}

func (f *fakeRecommender) InvalidateCache(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, userID)
	return nil
}

func (f *fakeRecommender) PrecomputeAsync(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.precomputed = append(f.precomputed, userID)
}

func (f *fakeRecommender) AvailableAlgorithms() []recommend.AlgorithmInfo {
	return []recommend.AlgorithmInfo{
		{ID: recommend.AlgorithmPopularity, Name: "Popular Games", MinRatings: 0},
	}
}

type fakeGames struct {
	games map[string]*models.Game
	err   error
}

func (f *fakeGames) FindGameByID(_ context.Context, id primitive.ObjectID) (*models.Game, error) {
	if f.err != nil {
		return nil, f.err
	}
	if g, ok := f.games[id.Hex()]; ok {
		return g, nil
	}
	return nil, database.ErrNotFound
}

func (f *fakeGames) FindGames(_ context.Context, opts database.ListOptions) ([]models.Game, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Game, 0, len(f.games))
	for _, g := range f.games {
		out = append(out, *g)
	}
	return out, nil
}

func (f *fakeGames) SearchGames(_ context.Context, query string, limit int64) ([]models.Game, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Game
	for _, g := range f.games {
		if strings.Contains(strings.ToLower(g.Name), strings.ToLower(query)) {
			out = append(out, *g)
		}
	}
	return out, nil
}

type fakeRatings struct {
	mu      sync.Mutex
	ratings map[string]map[string]*models.Rating
	err     error
}

func newFakeRatings() *fakeRatings {
	return &fakeRatings{ratings: make(map[string]map[string]*models.Rating)}
}

func (f *fakeRatings) FindRatingsByUser(_ context.Context, userID string) ([]models.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := []models.Rating{}
	for _, r := range f.ratings[userID] {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRatings) UpsertRating(_ context.Context, userID string, gameID primitive.ObjectID, score int, origin models.RatingOrigin) (*models.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.ratings[userID] == nil {
		f.ratings[userID] = make(map[string]*models.Rating)
	}
	rating := &models.Rating{
		UserID: userID,
		GameID: gameID,
		Rating: score,
		Origin: origin,
	}
	f.ratings[userID][gameID.Hex()] = rating
	return rating, nil
}

func (f *fakeRatings) DeleteRating(_ context.Context, userID string, gameID primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if _, ok := f.ratings[userID][gameID.Hex()]; !ok {
		return false, nil
	}
	delete(f.ratings[userID], gameID.Hex())
	return true, nil
}

type fakePinger struct{ err error }

func (f *fakePinger) Ping(_ context.Context) error { return f.err }

func newTestServer(rec *fakeRecommender, games *fakeGames, ratings *fakeRatings, pinger *fakePinger) *httptest.Server {
	if rec == nil {
		rec = &fakeRecommender{}
	}
	if games == nil {
		games = &fakeGames{games: map[string]*models.Game{}}
	}
	if ratings == nil {
		ratings = newFakeRatings()
	}
	if pinger == nil {
		pinger = &fakePinger{}
	}
	handler := NewHandler(rec, games, ratings, pinger)
	return httptest.NewServer(NewRouter(handler, RouterConfig{
		CORSAllowedOrigins: []string{"*"},
		RateLimitReqs:      0, // disabled in tests
		RateLimitWindow:    time.Minute,
	}))
}

func decodeResponse(t *testing.T, resp *http.Response) models.APIResponse {
	t.Helper()
	defer resp.Body.Close()
	var envelope models.APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return envelope
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(nil, nil, nil, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/health")
	if err != nil {
		t.Fatal(err)
	}
	envelope := decodeResponse(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if envelope.Status != "success" {
		t.Errorf("envelope status = %q", envelope.Status)
	}
}

func TestHealthDegraded(t *testing.T) {
	srv := newTestServer(nil, nil, nil, &fakePinger{err: errors.New("no mongo")})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestGetGame(t *testing.T) {
	id := primitive.NewObjectID()
	games := &fakeGames{games: map[string]*models.Game{
		id.Hex(): {ID: id, Name: "Terraforming Mars"},
	}}
	srv := newTestServer(nil, games, nil, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/games/" + id.Hex())
	if err != nil {
		t.Fatal(err)
	}
	envelope := decodeResponse(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if envelope.Status != "success" {
		t.Errorf("envelope status = %q", envelope.Status)
	}
}

func TestGetGameNotFound(t *testing.T) {
	srv := newTestServer(nil, nil, nil, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/games/" + primitive.NewObjectID().Hex())
	if err != nil {
		t.Fatal(err)
	}
	envelope := decodeResponse(t, resp)

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if envelope.Error == nil || envelope.Error.Code != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND error, got %+v", envelope.Error)
	}
}

func TestGetGameInvalidID(t *testing.T) {
	srv := newTestServer(nil, nil, nil, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/games/not-an-objectid")
	if err != nil {
		t.Fatal(err)
	}
	envelope := decodeResponse(t, resp)

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if envelope.Error == nil || envelope.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %+v", envelope.Error)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	srv := newTestServer(nil, nil, nil, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/games/search")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 without q", resp.StatusCode)
	}
}

func TestListGamesLimitValidation(t *testing.T) {
	srv := newTestServer(nil, nil, nil, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/games/?limit=500")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for oversized limit", resp.StatusCode)
	}
}

func TestPutRatingFlow(t *testing.T) {
	rec := &fakeRecommender{}
	ratings := newFakeRatings()
	srv := newTestServer(rec, nil, ratings, nil)
	defer srv.Close()

	gameID := primitive.NewObjectID()
	body := strings.NewReader(`{"rating": 8}`)
	req, err := http.NewRequest(http.MethodPut,
		srv.URL+"/api/v1/users/alice/ratings/"+gameID.Hex(), body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	envelope := decodeResponse(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %+v", resp.StatusCode, envelope.Error)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.invalidated) != 1 || rec.invalidated[0] != "alice" {
		t.Errorf("cache invalidation = %v, want [alice]", rec.invalidated)
	}
	if len(rec.precomputed) != 1 || rec.precomputed[0] != "alice" {
		t.Errorf("precompute = %v, want [alice]", rec.precomputed)
	}
}

func TestPutRatingValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"too low", `{"rating": 0}`},
		{"too high", `{"rating": 11}`},
		{"not json", `rating eight`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &fakeRecommender{}
			srv := newTestServer(rec, nil, nil, nil)
			defer srv.Close()

			req, err := http.NewRequest(http.MethodPut,
				srv.URL+"/api/v1/users/alice/ratings/"+primitive.NewObjectID().Hex(),
				strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()

			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			rec.mu.Lock()
			if len(rec.invalidated) != 0 {
				t.Error("invalid rating must not invalidate the cache")
			}
			rec.mu.Unlock()
		})
	}
}

func TestDeleteRating(t *testing.T) {
	rec := &fakeRecommender{}
	ratings := newFakeRatings()
	gameID := primitive.NewObjectID()
	ratings.ratings["alice"] = map[string]*models.Rating{
		gameID.Hex(): {UserID: "alice", GameID: gameID, Rating: 7},
	}
	srv := newTestServer(rec, nil, ratings, nil)
	defer srv.Close()

	req, err := http.NewRequest(http.MethodDelete,
		srv.URL+"/api/v1/users/alice/ratings/"+gameID.Hex(), nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	// Deleting again: nothing left.
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", resp.StatusCode)
	}
}

func TestGetRecommendations(t *testing.T) {
	rec := &fakeRecommender{result: &recommend.Result{
		Algorithm: recommend.AlgorithmCollaborative,
		Games:     []recommend.ScoredGame{{GameID: "a", Score: 0.9}},
		CacheHit:  true,
	}}
	srv := newTestServer(rec, nil, nil, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/users/alice/recommendations?algorithm=collaborative&limit=5&refresh=true")
	if err != nil {
		t.Fatal(err)
	}
	envelope := decodeResponse(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !envelope.Metadata.Cached {
		t.Error("metadata should flag the cache hit")
	}
	if rec.gotAlgorithm != recommend.AlgorithmCollaborative {
		t.Errorf("algorithm = %v", rec.gotAlgorithm)
	}
	if rec.gotLimit != 5 || !rec.gotRefresh {
		t.Errorf("limit/refresh = %d/%v, want 5/true", rec.gotLimit, rec.gotRefresh)
	}
}

func TestGetRecommendationsDefaultsToPopularity(t *testing.T) {
	rec := &fakeRecommender{result: &recommend.Result{Algorithm: recommend.AlgorithmPopularity, Games: []recommend.ScoredGame{}}}
	srv := newTestServer(rec, nil, nil, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/users/alice/recommendations")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if rec.gotAlgorithm != recommend.AlgorithmPopularity {
		t.Errorf("default algorithm = %v, want popularity", rec.gotAlgorithm)
	}
}

func TestGetRecommendationsUnknownAlgorithm(t *testing.T) {
	srv := newTestServer(nil, nil, nil, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/users/alice/recommendations?algorithm=astrology")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestListAlgorithms(t *testing.T) {
	srv := newTestServer(nil, nil, nil, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/algorithms")
	if err != nil {
		t.Fatal(err)
	}
	envelope := decodeResponse(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if envelope.Status != "success" || envelope.Data == nil {
		t.Errorf("unexpected envelope: %+v", envelope)
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(nil, nil, nil, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing from response")
	}
}
