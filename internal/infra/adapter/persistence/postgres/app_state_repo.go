package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"cinebox-recs/internal/repository"
)

// AppStateRepo implements the AppStateRepository interface for PostgreSQL.
type AppStateRepo struct {
	db *sql.DB
}

func NewAppStateRepo(db *sql.DB) repository.AppStateRepository {
	return &AppStateRepo{db: db}
}

func (repo *AppStateRepo) Get(ctx context.Context, key string) (string, error) {
	const query = `SELECT value FROM app_state WHERE key = $1 LIMIT 1`
	var value string
	err := repo.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("Get: %w", err)
	}
	return value, nil
}

func (repo *AppStateRepo) Set(ctx context.Context, key, value string) error {
	const query = `
INSERT INTO app_state (key, value, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (key)
DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
	if _, err := repo.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("Set: %w", err)
	}
	return nil
}
