package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cinebox-recs/internal/domain/entity"
	"cinebox-recs/internal/repository"
)

// completedProgress is the view progress at which a view counts as finished.
const completedProgress = 0.7

// InteractionRepo implements the InteractionRepository interface for
// PostgreSQL. The signal tables are owned by the streaming site; this
// adapter only reads them.
type InteractionRepo struct {
	db *sql.DB

	// seedRatingThreshold is the minimum star rating that makes a rated
	// movie a cold start seed.
	seedRatingThreshold float64
}

func NewInteractionRepo(db *sql.DB, seedRatingThreshold float64) repository.InteractionRepository {
	return &InteractionRepo{db: db, seedRatingThreshold: seedRatingThreshold}
}

// signalUnion folds the five signal tables into one shape:
// (user_id, movie_id, kind, value, completed, occurred_at).
const signalUnion = `
SELECT user_id, movie_id, 'rating' AS kind, rating::float8 AS value,
       FALSE AS completed, rated_at AS occurred_at
FROM ratings
UNION ALL
SELECT user_id, movie_id, 'view', COALESCE(progress, 0),
       COALESCE(progress, 0) >= 0.7, viewed_at
FROM view_history
UNION ALL
SELECT user_id, movie_id, 'favorite', 0, FALSE, added_at
FROM favorites
UNION ALL
SELECT user_id, movie_id, 'watchlist', 0, FALSE, added_at
FROM watchlist
UNION ALL
SELECT user_id, movie_id, 'like', 0, FALSE, liked_at
FROM movie_likes`

func (repo *InteractionRepo) ListSignals(ctx context.Context) ([]*entity.InteractionSignal, error) {
	const query = signalUnion
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListSignals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	signals := make([]*entity.InteractionSignal, 0, 1000)
	for rows.Next() {
		var s entity.InteractionSignal
		var kind string
		if err := rows.Scan(&s.UserID, &s.MovieID, &kind, &s.Value,
			&s.Completed, &s.OccurredAt); err != nil {
			return nil, fmt.Errorf("ListSignals: Scan: %w", err)
		}
		s.Kind = entity.SignalKind(kind)
		signals = append(signals, &s)
	}
	return signals, rows.Err()
}

func (repo *InteractionRepo) ListUserSignals(ctx context.Context, userID int64) ([]*entity.InteractionSignal, error) {
	const query = `
SELECT user_id, movie_id, kind, value, completed, occurred_at
FROM (` + signalUnion + `) s
WHERE user_id = $1
ORDER BY occurred_at DESC`
	rows, err := repo.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ListUserSignals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	signals := make([]*entity.InteractionSignal, 0, 100)
	for rows.Next() {
		var s entity.InteractionSignal
		var kind string
		if err := rows.Scan(&s.UserID, &s.MovieID, &kind, &s.Value,
			&s.Completed, &s.OccurredAt); err != nil {
			return nil, fmt.Errorf("ListUserSignals: Scan: %w", err)
		}
		s.Kind = entity.SignalKind(kind)
		signals = append(signals, &s)
	}
	return signals, rows.Err()
}

func (repo *InteractionRepo) ListUserIDs(ctx context.Context) ([]int64, error) {
	const query = `
SELECT user_id FROM ratings
UNION
SELECT user_id FROM view_history
UNION
SELECT user_id FROM favorites
UNION
SELECT user_id FROM watchlist
UNION
SELECT user_id FROM movie_likes
ORDER BY 1`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListUserIDs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ids := make([]int64, 0, 100)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ListUserIDs: Scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SeedMovies returns a user's strong-signal titles: ratings at or above the
// seed threshold, finished views, and favorites, newest first.
func (repo *InteractionRepo) SeedMovies(ctx context.Context, userID int64, limit int) ([]repository.SeedMovie, error) {
	const query = `
SELECT movie_id, MAX(occurred_at) AS last_touched
FROM (
    SELECT movie_id, rated_at AS occurred_at
    FROM ratings
    WHERE user_id = $1 AND rating >= $2
    UNION ALL
    SELECT movie_id, viewed_at
    FROM view_history
    WHERE user_id = $1 AND COALESCE(progress, 0) >= $3
    UNION ALL
    SELECT movie_id, added_at
    FROM favorites
    WHERE user_id = $1
) s
GROUP BY movie_id
ORDER BY last_touched DESC
LIMIT $4`
	rows, err := repo.db.QueryContext(ctx, query, userID, repo.seedRatingThreshold, completedProgress, limit)
	if err != nil {
		return nil, fmt.Errorf("SeedMovies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	seeds := make([]repository.SeedMovie, 0, limit)
	for rows.Next() {
		var seed repository.SeedMovie
		if err := rows.Scan(&seed.MovieID, &seed.LastTouched); err != nil {
			return nil, fmt.Errorf("SeedMovies: Scan: %w", err)
		}
		seeds = append(seeds, seed)
	}
	return seeds, rows.Err()
}

// ExcludedMovieIDs returns every movie a user should not be recommended:
// anything rated, liked, watchlisted, or favorited ever, views that finished,
// and any view since the given time.
func (repo *InteractionRepo) ExcludedMovieIDs(ctx context.Context, userID int64, viewedSince time.Time) ([]int64, error) {
	const query = `
SELECT movie_id FROM ratings WHERE user_id = $1
UNION
SELECT movie_id FROM movie_likes WHERE user_id = $1
UNION
SELECT movie_id FROM watchlist WHERE user_id = $1
UNION
SELECT movie_id FROM favorites WHERE user_id = $1
UNION
SELECT movie_id FROM view_history
WHERE user_id = $1 AND (COALESCE(progress, 0) >= $2 OR viewed_at >= $3)`
	rows, err := repo.db.QueryContext(ctx, query, userID, completedProgress, viewedSince)
	if err != nil {
		return nil, fmt.Errorf("ExcludedMovieIDs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ids := make([]int64, 0, 100)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ExcludedMovieIDs: Scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (repo *InteractionRepo) CountSignals(ctx context.Context) (int64, error) {
	const query = `
SELECT (SELECT COUNT(*) FROM ratings)
     + (SELECT COUNT(*) FROM view_history)
     + (SELECT COUNT(*) FROM favorites)
     + (SELECT COUNT(*) FROM watchlist)
     + (SELECT COUNT(*) FROM movie_likes)`
	var count int64
	if err := repo.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("CountSignals: %w", err)
	}
	return count, nil
}
