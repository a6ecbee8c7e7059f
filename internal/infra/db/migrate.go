package db

import (
	"database/sql"
	_ "embed"
)

//go:embed seeds/genres.sql
var seedGenresSQL string

func MigrateUp(db *sql.DB) error {
	// Catalog tables. The streaming site owns these rows; the engine only
	// needs the schema present for local and test environments.
	catalogTables := []string{
		`CREATE TABLE IF NOT EXISTS movies (
    id           SERIAL PRIMARY KEY,
    title        TEXT NOT NULL,
    release_year INT NOT NULL,
    country      TEXT,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
		`CREATE TABLE IF NOT EXISTS genres (
    id   SERIAL PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
)`,
		`CREATE TABLE IF NOT EXISTS movie_genres (
    movie_id INTEGER NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
    genre_id INTEGER NOT NULL REFERENCES genres(id) ON DELETE CASCADE,
    PRIMARY KEY (movie_id, genre_id)
)`,
		`CREATE TABLE IF NOT EXISTS movie_tags (
    movie_id INTEGER NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
    tag      TEXT NOT NULL,
    PRIMARY KEY (movie_id, tag)
)`,
	}
	for _, stmt := range catalogTables {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	// Interaction signal tables.
	signalTables := []string{
		`CREATE TABLE IF NOT EXISTS ratings (
    user_id  BIGINT NOT NULL,
    movie_id INTEGER NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
    rating   REAL NOT NULL,
    rated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (user_id, movie_id)
)`,
		`CREATE TABLE IF NOT EXISTS view_history (
    id        SERIAL PRIMARY KEY,
    user_id   BIGINT NOT NULL,
    movie_id  INTEGER NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
    progress  REAL,
    viewed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
		`CREATE TABLE IF NOT EXISTS favorites (
    user_id  BIGINT NOT NULL,
    movie_id INTEGER NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
    added_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (user_id, movie_id)
)`,
		`CREATE TABLE IF NOT EXISTS watchlist (
    user_id  BIGINT NOT NULL,
    movie_id INTEGER NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
    added_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (user_id, movie_id)
)`,
		`CREATE TABLE IF NOT EXISTS movie_likes (
    user_id  BIGINT NOT NULL,
    movie_id INTEGER NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
    liked_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (user_id, movie_id)
)`,
	}
	for _, stmt := range signalTables {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	// Engine-owned tables: similarity graph, per-user cache, model storage
	// and the shared key/value state row.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS movie_similarities (
    movie_id    INTEGER NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
    neighbor_id INTEGER NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
    similarity  DOUBLE PRECISION NOT NULL,
    rank        INT NOT NULL,
    computed_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (movie_id, neighbor_id)
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS personal_recommendations (
    user_id      BIGINT NOT NULL,
    movie_id     INTEGER NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
    score        DOUBLE PRECISION NOT NULL,
    rank         INT NOT NULL,
    algorithm    VARCHAR(20) NOT NULL,
    generated_at TIMESTAMPTZ NOT NULL,
    expires_at   TIMESTAMPTZ NOT NULL,
    UNIQUE (user_id, movie_id)
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS cf_models (
    version    VARCHAR(40) PRIMARY KEY,
    factors    INT NOT NULL,
    trained_at TIMESTAMPTZ NOT NULL,
    user_count INT NOT NULL,
    item_count INT NOT NULL,
    active     BOOLEAN NOT NULL DEFAULT FALSE
)`); err != nil {
		return err
	}

	// pgvector extension for factor storage. Ignore the error when the
	// role cannot create extensions; a DBA may have installed it already.
	_, _ = db.Exec(`CREATE EXTENSION IF NOT EXISTS vector`)

	factorTables := []string{
		`CREATE TABLE IF NOT EXISTS cf_user_factors (
    version VARCHAR(40) NOT NULL REFERENCES cf_models(version) ON DELETE CASCADE,
    user_id BIGINT NOT NULL,
    factors vector NOT NULL,
    PRIMARY KEY (version, user_id)
)`,
		`CREATE TABLE IF NOT EXISTS cf_item_factors (
    version  VARCHAR(40) NOT NULL REFERENCES cf_models(version) ON DELETE CASCADE,
    movie_id INTEGER NOT NULL,
    factors  vector NOT NULL,
    PRIMARY KEY (version, movie_id)
)`,
	}
	for _, stmt := range factorTables {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS app_state (
    key        VARCHAR(64) PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`); err != nil {
		return err
	}

	indexes := []string{
		// signal lookups are always per user
		`CREATE INDEX IF NOT EXISTS idx_ratings_user_id ON ratings(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_view_history_user_id ON view_history(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_view_history_movie_id ON view_history(movie_id)`,
		`CREATE INDEX IF NOT EXISTS idx_view_history_viewed_at ON view_history(viewed_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_favorites_user_id ON favorites(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_watchlist_user_id ON watchlist(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_movie_likes_user_id ON movie_likes(user_id)`,
		// neighbor queries read by movie, ranked
		`CREATE INDEX IF NOT EXISTS idx_movie_similarities_movie_rank ON movie_similarities(movie_id, rank)`,
		// cache reads are per user, expiry sweeps by timestamp
		`CREATE INDEX IF NOT EXISTS idx_personal_recommendations_user_rank ON personal_recommendations(user_id, rank)`,
		`CREATE INDEX IF NOT EXISTS idx_personal_recommendations_expires_at ON personal_recommendations(expires_at)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	if _, err := db.Exec(seedGenresSQL); err != nil {
		return err
	}

	return nil
}

// MigrateDown removes only the engine-owned tables. Catalog and signal
// tables belong to the streaming site and are never dropped here.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP TABLE IF EXISTS cf_user_factors CASCADE`,
		`DROP TABLE IF EXISTS cf_item_factors CASCADE`,
		`DROP TABLE IF EXISTS cf_models CASCADE`,
		`DROP TABLE IF EXISTS personal_recommendations CASCADE`,
		`DROP TABLE IF EXISTS movie_similarities CASCADE`,
		`DROP TABLE IF EXISTS app_state CASCADE`,
	}

	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
