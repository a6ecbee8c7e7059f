package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"cinebox-recs/internal/domain/entity"
	"cinebox-recs/internal/repository"

	"github.com/pgvector/pgvector-go"
)

// ModelRepo implements the ModelRepository interface for PostgreSQL.
// Factor vectors are stored as pgvector columns keyed by model version.
type ModelRepo struct {
	db *sql.DB
}

func NewModelRepo(db *sql.DB) repository.ModelRepository {
	return &ModelRepo{db: db}
}

// Save stores the artifact and marks its version active, all in one
// transaction. Rows of older versions are never touched.
func (repo *ModelRepo) Save(ctx context.Context, artifact *entity.ModelArtifact) error {
	if artifact == nil {
		return fmt.Errorf("Save: artifact is nil")
	}
	if err := artifact.Validate(); err != nil {
		return fmt.Errorf("Save: %w", err)
	}

	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Save: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const deactivateQuery = `UPDATE cf_models SET active = FALSE WHERE active`
	if _, err := tx.ExecContext(ctx, deactivateQuery); err != nil {
		return fmt.Errorf("Save: deactivate: %w", err)
	}

	const insertModelQuery = `
INSERT INTO cf_models (version, factors, trained_at, user_count, item_count, active)
VALUES ($1, $2, $3, $4, $5, TRUE)`
	if _, err := tx.ExecContext(ctx, insertModelQuery,
		artifact.Version, artifact.Factors, artifact.TrainedAt,
		artifact.UserCount(), artifact.ItemCount()); err != nil {
		return fmt.Errorf("Save: insert model: %w", err)
	}

	const insertUserQuery = `
INSERT INTO cf_user_factors (version, user_id, factors)
VALUES ($1, $2, $3)`
	userStmt, err := tx.PrepareContext(ctx, insertUserQuery)
	if err != nil {
		return fmt.Errorf("Save: prepare user factors: %w", err)
	}
	defer func() { _ = userStmt.Close() }()

	for userID, factors := range artifact.UserFactors {
		if _, err := userStmt.ExecContext(ctx,
			artifact.Version, userID, pgvector.NewVector(factors)); err != nil {
			return fmt.Errorf("Save: insert user factors: %w", err)
		}
	}

	const insertItemQuery = `
INSERT INTO cf_item_factors (version, movie_id, factors)
VALUES ($1, $2, $3)`
	itemStmt, err := tx.PrepareContext(ctx, insertItemQuery)
	if err != nil {
		return fmt.Errorf("Save: prepare item factors: %w", err)
	}
	defer func() { _ = itemStmt.Close() }()

	for movieID, factors := range artifact.ItemFactors {
		if _, err := itemStmt.ExecContext(ctx,
			artifact.Version, movieID, pgvector.NewVector(factors)); err != nil {
			return fmt.Errorf("Save: insert item factors: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Save: commit: %w", err)
	}
	return nil
}

// LoadActive retrieves the active artifact with all factor vectors.
// Returns (nil, nil) when no model has been trained yet.
func (repo *ModelRepo) LoadActive(ctx context.Context) (*entity.ModelArtifact, error) {
	const modelQuery = `
SELECT version, factors, trained_at
FROM cf_models
WHERE active
LIMIT 1`
	artifact := &entity.ModelArtifact{
		UserFactors: make(map[int64][]float32),
		ItemFactors: make(map[int64][]float32),
	}
	err := repo.db.QueryRowContext(ctx, modelQuery).
		Scan(&artifact.Version, &artifact.Factors, &artifact.TrainedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("LoadActive: %w", err)
	}

	const userQuery = `
SELECT user_id, factors
FROM cf_user_factors
WHERE version = $1`
	if err := repo.loadFactors(ctx, userQuery, artifact.Version, artifact.UserFactors); err != nil {
		return nil, fmt.Errorf("LoadActive: user factors: %w", err)
	}

	const itemQuery = `
SELECT movie_id, factors
FROM cf_item_factors
WHERE version = $1`
	if err := repo.loadFactors(ctx, itemQuery, artifact.Version, artifact.ItemFactors); err != nil {
		return nil, fmt.Errorf("LoadActive: item factors: %w", err)
	}

	return artifact, nil
}

func (repo *ModelRepo) loadFactors(ctx context.Context, query, version string, dest map[int64][]float32) error {
	rows, err := repo.db.QueryContext(ctx, query, version)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id int64
		var vector pgvector.Vector
		if err := rows.Scan(&id, &vector); err != nil {
			return fmt.Errorf("Scan: %w", err)
		}
		dest[id] = vector.Slice()
	}
	return rows.Err()
}
