package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"cinebox-recs/internal/domain/entity"
	"cinebox-recs/internal/repository"
)

// SimilarityRepo implements the SimilarityRepository interface for
// PostgreSQL.
type SimilarityRepo struct {
	db *sql.DB
}

func NewSimilarityRepo(db *sql.DB) repository.SimilarityRepository {
	return &SimilarityRepo{db: db}
}

// ReplaceAll swaps the whole edge table inside one transaction so readers
// never observe a half-built graph.
func (repo *SimilarityRepo) ReplaceAll(ctx context.Context, edges []*entity.SimilarityEdge) error {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ReplaceAll: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const deleteQuery = `DELETE FROM movie_similarities`
	if _, err := tx.ExecContext(ctx, deleteQuery); err != nil {
		return fmt.Errorf("ReplaceAll: delete: %w", err)
	}

	const insertQuery = `
INSERT INTO movie_similarities (movie_id, neighbor_id, similarity, rank, computed_at)
VALUES ($1, $2, $3, $4, $5)`
	stmt, err := tx.PrepareContext(ctx, insertQuery)
	if err != nil {
		return fmt.Errorf("ReplaceAll: prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, edge := range edges {
		if err := edge.Validate(); err != nil {
			return fmt.Errorf("ReplaceAll: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			edge.MovieID, edge.NeighborID, edge.Similarity, edge.Rank, edge.ComputedAt); err != nil {
			return fmt.Errorf("ReplaceAll: insert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ReplaceAll: commit: %w", err)
	}
	return nil
}

func (repo *SimilarityRepo) Neighbors(ctx context.Context, movieID int64, limit int) ([]*entity.SimilarityEdge, error) {
	const query = `
SELECT movie_id, neighbor_id, similarity, rank, computed_at
FROM movie_similarities
WHERE movie_id = $1
ORDER BY rank ASC
LIMIT $2`
	rows, err := repo.db.QueryContext(ctx, query, movieID, limit)
	if err != nil {
		return nil, fmt.Errorf("Neighbors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	edges := make([]*entity.SimilarityEdge, 0, limit)
	for rows.Next() {
		var edge entity.SimilarityEdge
		if err := rows.Scan(&edge.MovieID, &edge.NeighborID, &edge.Similarity,
			&edge.Rank, &edge.ComputedAt); err != nil {
			return nil, fmt.Errorf("Neighbors: Scan: %w", err)
		}
		edges = append(edges, &edge)
	}
	return edges, rows.Err()
}

func (repo *SimilarityRepo) CountEdges(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM movie_similarities`
	var count int64
	if err := repo.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("CountEdges: %w", err)
	}
	return count, nil
}
