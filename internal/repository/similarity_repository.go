package repository

import (
	"context"

	"cinebox-recs/internal/domain/entity"
)

// SimilarityRepository manages the content similarity edge table.
type SimilarityRepository interface {
	// ReplaceAll swaps the whole edge table for the given set inside one
	// transaction. Readers never observe a partially rebuilt graph.
	ReplaceAll(ctx context.Context, edges []*entity.SimilarityEdge) error

	// Neighbors retrieves the top neighbors of a movie ordered by rank.
	// Returns an empty slice (not nil) when the movie has no edges.
	Neighbors(ctx context.Context, movieID int64, limit int) ([]*entity.SimilarityEdge, error)

	// CountEdges returns the total number of stored edges.
	CountEdges(ctx context.Context) (int64, error)
}
