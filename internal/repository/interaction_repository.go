package repository

import (
	"context"
	"time"

	"cinebox-recs/internal/domain/entity"
)

// SeedMovie is a title a user has recently rated highly, finished, or
// favorited. Seeds anchor the content-based cold start branch.
type SeedMovie struct {
	MovieID     int64
	LastTouched time.Time
}

// InteractionRepository provides read access to user feedback signals.
// Ratings, views, favorites, watchlist rows, and likes are owned by the
// streaming site; the engine only consumes them.
type InteractionRepository interface {
	// ListSignals retrieves every interaction signal, for training.
	ListSignals(ctx context.Context) ([]*entity.InteractionSignal, error)

	// ListUserSignals retrieves all signals for one user, newest first.
	ListUserSignals(ctx context.Context, userID int64) ([]*entity.InteractionSignal, error)

	// ListUserIDs retrieves the IDs of all users with at least one signal.
	ListUserIDs(ctx context.Context) ([]int64, error)

	// SeedMovies retrieves a user's seed titles, most recent first: movies
	// rated >= the seed rating threshold, views that completed, and
	// favorites.
	SeedMovies(ctx context.Context, userID int64, limit int) ([]SeedMovie, error)

	// ExcludedMovieIDs retrieves the movies a user should never be
	// recommended: everything rated, liked, watchlisted, favorited,
	// completed, or viewed since the given time.
	ExcludedMovieIDs(ctx context.Context, userID int64, viewedSince time.Time) ([]int64, error)

	// CountSignals returns the total number of interaction signals.
	CountSignals(ctx context.Context) (int64, error)
}
