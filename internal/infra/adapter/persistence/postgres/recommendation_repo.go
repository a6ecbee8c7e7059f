package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cinebox-recs/internal/domain/entity"
	"cinebox-recs/internal/observability/metrics"
	"cinebox-recs/internal/repository"
)

// RecommendationRepo implements the RecommendationRepository interface for
// PostgreSQL.
type RecommendationRepo struct {
	db *sql.DB
}

func NewRecommendationRepo(db *sql.DB) repository.RecommendationRepository {
	return &RecommendationRepo{db: db}
}

func (repo *RecommendationRepo) ListForUser(ctx context.Context, userID int64) ([]*entity.RecommendationEntry, error) {
	const query = `
SELECT user_id, movie_id, score, rank, algorithm, generated_at, expires_at
FROM personal_recommendations
WHERE user_id = $1
ORDER BY rank ASC`
	defer func(start time.Time) {
		metrics.RecordDBQuery("list_recommendations", time.Since(start))
	}(time.Now())

	rows, err := repo.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ListForUser: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]*entity.RecommendationEntry, 0, 50)
	for rows.Next() {
		var entry entity.RecommendationEntry
		if err := rows.Scan(&entry.UserID, &entry.MovieID, &entry.Score, &entry.Rank,
			&entry.Algorithm, &entry.GeneratedAt, &entry.ExpiresAt); err != nil {
			return nil, fmt.Errorf("ListForUser: Scan: %w", err)
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// ReplaceForUser swaps one user's cached rows in a single transaction. On
// failure the previous rows stay in place.
func (repo *RecommendationRepo) ReplaceForUser(ctx context.Context, userID int64, entries []*entity.RecommendationEntry) error {
	defer func(start time.Time) {
		metrics.RecordDBQuery("replace_recommendations", time.Since(start))
	}(time.Now())

	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ReplaceForUser: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const deleteQuery = `DELETE FROM personal_recommendations WHERE user_id = $1`
	if _, err := tx.ExecContext(ctx, deleteQuery, userID); err != nil {
		return fmt.Errorf("ReplaceForUser: delete: %w", err)
	}

	const insertQuery = `
INSERT INTO personal_recommendations (user_id, movie_id, score, rank, algorithm, generated_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	stmt, err := tx.PrepareContext(ctx, insertQuery)
	if err != nil {
		return fmt.Errorf("ReplaceForUser: prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, entry := range entries {
		if err := entry.Validate(); err != nil {
			return fmt.Errorf("ReplaceForUser: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			entry.UserID, entry.MovieID, entry.Score, entry.Rank,
			entry.Algorithm, entry.GeneratedAt, entry.ExpiresAt); err != nil {
			return fmt.Errorf("ReplaceForUser: insert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ReplaceForUser: commit: %w", err)
	}
	return nil
}

func (repo *RecommendationRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	const query = `DELETE FROM personal_recommendations WHERE expires_at <= $1`
	result, err := repo.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("DeleteExpired: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteExpired: RowsAffected: %w", err)
	}
	return count, nil
}
