package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cinebox-recs/internal/domain/entity"
	"cinebox-recs/internal/repository"
)

// CatalogRepo implements the CatalogRepository interface for PostgreSQL.
// The catalog tables are owned by the streaming site; this adapter only
// reads them.
type CatalogRepo struct {
	db *sql.DB
}

func NewCatalogRepo(db *sql.DB) repository.CatalogRepository {
	return &CatalogRepo{db: db}
}

func (repo *CatalogRepo) List(ctx context.Context) ([]*entity.Movie, error) {
	const query = `
SELECT m.id, m.title, m.release_year, COALESCE(m.country, ''), m.created_at,
       (SELECT COUNT(*) FROM view_history v WHERE v.movie_id = m.id),
       COALESCE((SELECT AVG(r.rating) FROM ratings r WHERE r.movie_id = m.id), 0),
       (SELECT COUNT(*) FROM ratings r WHERE r.movie_id = m.id)
FROM movies m
ORDER BY m.id`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer func() { _ = rows.Close() }()

	movies := make([]*entity.Movie, 0, 100)
	byID := make(map[int64]*entity.Movie, 100)
	for rows.Next() {
		var movie entity.Movie
		if err := rows.Scan(&movie.ID, &movie.Title, &movie.ReleaseYear, &movie.Country,
			&movie.CreatedAt, &movie.ViewCount, &movie.AvgRating, &movie.RatingCount); err != nil {
			return nil, fmt.Errorf("List: Scan: %w", err)
		}
		movies = append(movies, &movie)
		byID[movie.ID] = &movie
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}

	if err := repo.loadGenres(ctx, byID); err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	if err := repo.loadTags(ctx, byID); err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return movies, nil
}

func (repo *CatalogRepo) Get(ctx context.Context, id int64) (*entity.Movie, error) {
	const query = `
SELECT m.id, m.title, m.release_year, COALESCE(m.country, ''), m.created_at,
       (SELECT COUNT(*) FROM view_history v WHERE v.movie_id = m.id),
       COALESCE((SELECT AVG(r.rating) FROM ratings r WHERE r.movie_id = m.id), 0),
       (SELECT COUNT(*) FROM ratings r WHERE r.movie_id = m.id)
FROM movies m
WHERE m.id = $1
LIMIT 1`
	var movie entity.Movie
	err := repo.db.QueryRowContext(ctx, query, id).
		Scan(&movie.ID, &movie.Title, &movie.ReleaseYear, &movie.Country,
			&movie.CreatedAt, &movie.ViewCount, &movie.AvgRating, &movie.RatingCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}

	byID := map[int64]*entity.Movie{movie.ID: &movie}
	if err := repo.loadGenres(ctx, byID); err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	if err := repo.loadTags(ctx, byID); err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &movie, nil
}

// ListPopular returns the well-rated slice of the catalog for the popularity
// fallback. Genres and tags are not loaded; fallback scoring does not need
// them.
func (repo *CatalogRepo) ListPopular(ctx context.Context, minAvgRating float64, minRatingCount int, limit int) ([]*entity.Movie, error) {
	const query = `
SELECT m.id, m.title, m.release_year, COALESCE(m.country, ''), m.created_at,
       (SELECT COUNT(*) FROM view_history v WHERE v.movie_id = m.id),
       AVG(r.rating), COUNT(r.user_id)
FROM movies m
INNER JOIN ratings r ON r.movie_id = m.id
GROUP BY m.id
HAVING AVG(r.rating) >= $1 AND COUNT(r.user_id) >= $2
ORDER BY AVG(r.rating) DESC, COUNT(r.user_id) DESC, m.id ASC
LIMIT $3`
	rows, err := repo.db.QueryContext(ctx, query, minAvgRating, minRatingCount, limit)
	if err != nil {
		return nil, fmt.Errorf("ListPopular: %w", err)
	}
	defer func() { _ = rows.Close() }()

	movies := make([]*entity.Movie, 0, limit)
	for rows.Next() {
		var movie entity.Movie
		if err := rows.Scan(&movie.ID, &movie.Title, &movie.ReleaseYear, &movie.Country,
			&movie.CreatedAt, &movie.ViewCount, &movie.AvgRating, &movie.RatingCount); err != nil {
			return nil, fmt.Errorf("ListPopular: Scan: %w", err)
		}
		movies = append(movies, &movie)
	}
	return movies, rows.Err()
}

func (repo *CatalogRepo) ListTrending(ctx context.Context, since time.Time, limit int) ([]repository.TrendingMovie, error) {
	const query = `
SELECT m.id, m.title, m.release_year, COALESCE(m.country, ''), m.created_at,
       (SELECT COUNT(*) FROM view_history va WHERE va.movie_id = m.id),
       COALESCE((SELECT AVG(r.rating) FROM ratings r WHERE r.movie_id = m.id), 0),
       (SELECT COUNT(*) FROM ratings r WHERE r.movie_id = m.id),
       COUNT(v.user_id) AS recent_views
FROM movies m
INNER JOIN view_history v ON v.movie_id = m.id AND v.viewed_at >= $1
GROUP BY m.id
ORDER BY recent_views DESC, m.id ASC
LIMIT $2`
	rows, err := repo.db.QueryContext(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("ListTrending: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]repository.TrendingMovie, 0, limit)
	for rows.Next() {
		var movie entity.Movie
		var recentViews int64
		if err := rows.Scan(&movie.ID, &movie.Title, &movie.ReleaseYear, &movie.Country,
			&movie.CreatedAt, &movie.ViewCount, &movie.AvgRating, &movie.RatingCount,
			&recentViews); err != nil {
			return nil, fmt.Errorf("ListTrending: Scan: %w", err)
		}
		result = append(result, repository.TrendingMovie{Movie: &movie, RecentViews: recentViews})
	}
	return result, rows.Err()
}

// loadGenres fills the Genres slice of every movie in the map. A second pass
// query avoids array scanning in the main catalog query.
func (repo *CatalogRepo) loadGenres(ctx context.Context, byID map[int64]*entity.Movie) error {
	const query = `
SELECT mg.movie_id, g.name
FROM movie_genres mg
INNER JOIN genres g ON g.id = mg.genre_id
ORDER BY mg.movie_id, g.name`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("loadGenres: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var movieID int64
		var name string
		if err := rows.Scan(&movieID, &name); err != nil {
			return fmt.Errorf("loadGenres: Scan: %w", err)
		}
		if movie, ok := byID[movieID]; ok {
			movie.Genres = append(movie.Genres, name)
		}
	}
	return rows.Err()
}

func (repo *CatalogRepo) loadTags(ctx context.Context, byID map[int64]*entity.Movie) error {
	const query = `
SELECT movie_id, tag
FROM movie_tags
ORDER BY movie_id, tag`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("loadTags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var movieID int64
		var tag string
		if err := rows.Scan(&movieID, &tag); err != nil {
			return fmt.Errorf("loadTags: Scan: %w", err)
		}
		if movie, ok := byID[movieID]; ok {
			movie.Tags = append(movie.Tags, tag)
		}
	}
	return rows.Err()
}
