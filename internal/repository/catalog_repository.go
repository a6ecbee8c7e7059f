package repository

import (
	"context"
	"time"

	"cinebox-recs/internal/domain/entity"
)

// TrendingMovie pairs a movie with its view count over a recent window.
type TrendingMovie struct {
	Movie       *entity.Movie
	RecentViews int64
}

// CatalogRepository provides read access to the movie catalog. The engine
// never writes catalog rows; the streaming site owns them.
type CatalogRepository interface {
	// List retrieves the full catalog with genres and tags attached.
	List(ctx context.Context) ([]*entity.Movie, error)

	// Get retrieves a single movie by ID.
	// Returns (nil, nil) if the movie is not found.
	Get(ctx context.Context, id int64) (*entity.Movie, error)

	// ListPopular retrieves well-rated movies for the popularity fallback,
	// ordered by average rating desc, then rating count desc, then ID asc.
	// Only movies with avg rating >= minAvgRating and at least minRatingCount
	// ratings qualify.
	ListPopular(ctx context.Context, minAvgRating float64, minRatingCount int, limit int) ([]*entity.Movie, error)

	// ListTrending retrieves movies ranked by view counts since the given
	// time, most viewed first.
	ListTrending(ctx context.Context, since time.Time, limit int) ([]TrendingMovie, error)
}
