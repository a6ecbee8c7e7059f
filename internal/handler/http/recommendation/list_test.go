package recommendation

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cinebox-recs/internal/domain/entity"
	"cinebox-recs/internal/handler/http/auth"
	"cinebox-recs/internal/repository"
	"cinebox-recs/internal/usecase/recommend"
)

// stubService implements Service with canned responses.
type stubService struct {
	set        *recommend.RecommendationSet
	setErr     error
	refreshed  *recommend.RecommendationSet
	refreshErr error
	similar    []recommend.SimilarMovie
	similarErr error
	trending   []repository.TrendingMovie
	trendErr   error

	gotUserID  int64
	gotMovieID int64
	gotLimit   int
	gotWindow  time.Duration
}

func (s *stubService) GetRecommendations(_ context.Context, userID int64, limit int) (*recommend.RecommendationSet, error) {
	s.gotUserID = userID
	s.gotLimit = limit
	return s.set, s.setErr
}

func (s *stubService) RefreshForUser(_ context.Context, userID int64) (*recommend.RecommendationSet, error) {
	s.gotUserID = userID
	return s.refreshed, s.refreshErr
}

func (s *stubService) SimilarMovies(_ context.Context, movieID int64, limit int) ([]recommend.SimilarMovie, error) {
	s.gotMovieID = movieID
	s.gotLimit = limit
	return s.similar, s.similarErr
}

func (s *stubService) Trending(_ context.Context, window time.Duration, limit int) ([]repository.TrendingMovie, error) {
	s.gotWindow = window
	s.gotLimit = limit
	return s.trending, s.trendErr
}

func sampleSet(userID int64) *recommend.RecommendationSet {
	generated := time.Date(2026, 3, 1, 4, 0, 0, 0, time.UTC)
	return &recommend.RecommendationSet{
		UserID:      userID,
		Algorithm:   entity.AlgorithmHybrid,
		GeneratedAt: generated,
		Cached:      true,
		Entries: []*entity.RecommendationEntry{
			{UserID: userID, MovieID: 10, Score: 0.9, Rank: 1, Algorithm: entity.AlgorithmHybrid},
			{UserID: userID, MovieID: 20, Score: 0.7, Rank: 2, Algorithm: entity.AlgorithmHybrid},
		},
	}
}

func TestListHandler_OwnList(t *testing.T) {
	svc := &stubService{set: sampleSet(42)}
	handler := ListHandler{Svc: svc, Logger: slog.Default()}

	req := httptest.NewRequest(http.MethodGet, "/users/42/recommendations?limit=10", nil)
	req.SetPathValue("id", "42")
	req = req.WithContext(auth.WithIdentity(req.Context(), 42, "user"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	if svc.gotUserID != 42 || svc.gotLimit != 10 {
		t.Errorf("service called with userID=%d limit=%d, want 42/10", svc.gotUserID, svc.gotLimit)
	}

	var dto ListDTO
	if err := json.NewDecoder(rec.Body).Decode(&dto); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if dto.UserID != 42 || dto.Algorithm != entity.AlgorithmHybrid || !dto.Cached {
		t.Errorf("unexpected list dto: %+v", dto)
	}
	if len(dto.Recommendations) != 2 || dto.Recommendations[0].MovieID != 10 || dto.Recommendations[0].Rank != 1 {
		t.Errorf("unexpected entries: %+v", dto.Recommendations)
	}
}

func TestListHandler_AdminMayReadAnyList(t *testing.T) {
	svc := &stubService{set: sampleSet(42)}
	handler := ListHandler{Svc: svc, Logger: slog.Default()}

	req := httptest.NewRequest(http.MethodGet, "/users/42/recommendations", nil)
	req.SetPathValue("id", "42")
	req = req.WithContext(auth.WithIdentity(req.Context(), 1, auth.RoleAdmin))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestListHandler_OtherUserForbidden(t *testing.T) {
	svc := &stubService{set: sampleSet(42)}
	handler := ListHandler{Svc: svc, Logger: slog.Default()}

	req := httptest.NewRequest(http.MethodGet, "/users/42/recommendations", nil)
	req.SetPathValue("id", "42")
	req = req.WithContext(auth.WithIdentity(req.Context(), 7, "user"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if svc.gotUserID != 0 {
		t.Error("service should not be called for a forbidden request")
	}
}

func TestListHandler_BadInput(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		target string
	}{
		{name: "non-numeric id", id: "abc", target: "/users/abc/recommendations"},
		{name: "zero id", id: "0", target: "/users/0/recommendations"},
		{name: "negative limit", id: "42", target: "/users/42/recommendations?limit=-1"},
		{name: "non-numeric limit", id: "42", target: "/users/42/recommendations?limit=ten"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{set: sampleSet(42)}
			handler := ListHandler{Svc: svc, Logger: slog.Default()}

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			req.SetPathValue("id", tt.id)
			req = req.WithContext(auth.WithIdentity(req.Context(), 42, auth.RoleAdmin))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestListHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "invalid user id", err: recommend.ErrInvalidUserID, wantStatus: http.StatusBadRequest},
		{name: "unavailable", err: recommend.ErrRecommendationsUnavailable, wantStatus: http.StatusServiceUnavailable},
		{name: "unexpected", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{setErr: tt.err}
			handler := ListHandler{Svc: svc, Logger: slog.Default()}

			req := httptest.NewRequest(http.MethodGet, "/users/42/recommendations", nil)
			req.SetPathValue("id", "42")
			req = req.WithContext(auth.WithIdentity(req.Context(), 42, "user"))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRefreshHandler_OwnList(t *testing.T) {
	set := sampleSet(42)
	set.Cached = false
	svc := &stubService{refreshed: set}
	handler := RefreshHandler{Svc: svc, Logger: slog.Default()}

	req := httptest.NewRequest(http.MethodPost, "/users/42/recommendations/refresh", nil)
	req.SetPathValue("id", "42")
	req = req.WithContext(auth.WithIdentity(req.Context(), 42, "user"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var dto ListDTO
	if err := json.NewDecoder(rec.Body).Decode(&dto); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if dto.Cached {
		t.Error("refreshed list should not be marked cached")
	}
}

func TestRefreshHandler_OtherUserForbidden(t *testing.T) {
	svc := &stubService{refreshed: sampleSet(42)}
	handler := RefreshHandler{Svc: svc, Logger: slog.Default()}

	req := httptest.NewRequest(http.MethodPost, "/users/42/recommendations/refresh", nil)
	req.SetPathValue("id", "42")
	req = req.WithContext(auth.WithIdentity(req.Context(), 9, "user"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestRefreshHandler_ScoringFailure(t *testing.T) {
	svc := &stubService{refreshErr: errors.New("scoring broke")}
	handler := RefreshHandler{Svc: svc, Logger: slog.Default()}

	req := httptest.NewRequest(http.MethodPost, "/users/42/recommendations/refresh", nil)
	req.SetPathValue("id", "42")
	req = req.WithContext(auth.WithIdentity(req.Context(), 42, "user"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
