package repository

import (
	"context"

	"cinebox-recs/internal/domain/entity"
)

// ModelRepository persists trained collaborative filtering artifacts.
// Factor vectors are stored as pgvector columns keyed by model version, so a
// save never mutates the rows of an older version.
type ModelRepository interface {
	// Save stores the artifact and marks its version active, all in one
	// transaction. Older versions stay on disk until pruned.
	Save(ctx context.Context, artifact *entity.ModelArtifact) error

	// LoadActive retrieves the currently active artifact with all factor
	// vectors. Returns (nil, nil) when no model has been trained yet.
	LoadActive(ctx context.Context) (*entity.ModelArtifact, error)
}
