package recommendation

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"cinebox-recs/internal/domain/entity"
	"cinebox-recs/internal/handler/http/auth"
	"cinebox-recs/internal/repository"
	"cinebox-recs/internal/usecase/recommend"
	"cinebox-recs/internal/usecase/similarity"
)

// Service is the slice of the recommendation use cases the public endpoints
// need. The concrete implementation is recommend.Service.
type Service interface {
	GetRecommendations(ctx context.Context, userID int64, limit int) (*recommend.RecommendationSet, error)
	RefreshForUser(ctx context.Context, userID int64) (*recommend.RecommendationSet, error)
	SimilarMovies(ctx context.Context, movieID int64, limit int) ([]recommend.SimilarMovie, error)
	Trending(ctx context.Context, window time.Duration, limit int) ([]repository.TrendingMovie, error)
}

// Retrainer triggers a collaborative model training run.
type Retrainer interface {
	Retrain(ctx context.Context) (*entity.ModelArtifact, error)
}

// GraphRebuilder triggers a content similarity graph rebuild.
type GraphRebuilder interface {
	Rebuild(ctx context.Context) (*similarity.RebuildReport, error)
}

// Recomputer drives the batch cache recompute and exposes model bookkeeping.
type Recomputer interface {
	RecomputeAll(ctx context.Context) (*recommend.RecomputeReport, error)
	ModelInfo() recommend.ModelInfo
}

// Register registers the public recommendation endpoints with the given mux.
// The personalized endpoints require authentication; a caller may only read
// or refresh their own list unless their token carries the admin role.
// Browsing endpoints (similar, trending) are open.
func Register(mux *http.ServeMux, svc Service, logger *slog.Logger) {
	mux.Handle("GET /users/{id}/recommendations", auth.Authn(ListHandler{Svc: svc, Logger: logger}))
	mux.Handle("POST /users/{id}/recommendations/refresh", auth.Authn(RefreshHandler{Svc: svc, Logger: logger}))

	mux.Handle("GET /movies/{id}/similar", SimilarHandler{Svc: svc, Logger: logger})
	mux.Handle("GET /movies/trending", TrendingHandler{Svc: svc, Logger: logger})
}

// RegisterAdmin registers the admin surface. Every route requires a token
// with the admin role.
func RegisterAdmin(mux *http.ServeMux, trainer Retrainer, rebuilder GraphRebuilder, recomputer Recomputer, logger *slog.Logger) {
	admin := func(h http.Handler) http.Handler {
		return auth.Authn(auth.RequireAdmin(h))
	}

	mux.Handle("POST /admin/model/retrain", admin(RetrainHandler{Svc: trainer, Logger: logger}))
	mux.Handle("POST /admin/similarity/rebuild", admin(RebuildHandler{Svc: rebuilder, Logger: logger}))
	mux.Handle("POST /admin/recommendations/recompute", admin(RecomputeHandler{Svc: recomputer, Logger: logger}))
	mux.Handle("GET /admin/model", admin(ModelInfoHandler{Svc: recomputer, Logger: logger}))
}
