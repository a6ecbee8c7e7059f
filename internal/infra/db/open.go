// Package db opens the PostgreSQL pool both binaries share.
package db

import (
	"database/sql"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// ConnectionConfig sets the pool limits for the shared *sql.DB.
type ConnectionConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConnectionConfig sizes the pool for one API or worker
// instance against a small PostgreSQL.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

// Open builds the pool from DATABASE_URL with limits taken from the
// DB_* environment. A missing DSN is a deployment error and exits. The
// pool is returned unverified; callers ping with their own retry policy
// since the database may still be starting.
func Open() *sql.DB {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	pool, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatal(err)
	}

	cfg := getConnectionConfigFromEnv()
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	pool.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	slog.Info("database connection pool configured",
		slog.Int("max_open_conns", cfg.MaxOpenConns),
		slog.Int("max_idle_conns", cfg.MaxIdleConns),
		slog.Duration("conn_max_lifetime", cfg.ConnMaxLifetime),
		slog.Duration("conn_max_idle_time", cfg.ConnMaxIdleTime))

	return pool
}

// getConnectionConfigFromEnv overlays DB_* overrides onto the defaults.
// Values that do not parse, or are not positive, keep the default.
func getConnectionConfigFromEnv() ConnectionConfig {
	cfg := DefaultConnectionConfig()
	overrideInt(&cfg.MaxOpenConns, "DB_MAX_OPEN_CONNS")
	overrideInt(&cfg.MaxIdleConns, "DB_MAX_IDLE_CONNS")
	overrideDuration(&cfg.ConnMaxLifetime, "DB_CONN_MAX_LIFETIME")
	overrideDuration(&cfg.ConnMaxIdleTime, "DB_CONN_MAX_IDLE_TIME")
	return cfg
}

func overrideInt(dest *int, key string) {
	raw := os.Getenv(key)
	if raw == "" {
		return
	}
	if v, err := strconv.Atoi(raw); err == nil && v > 0 {
		*dest = v
	}
}

func overrideDuration(dest *time.Duration, key string) {
	raw := os.Getenv(key)
	if raw == "" {
		return
	}
	if v, err := time.ParseDuration(raw); err == nil && v > 0 {
		*dest = v
	}
}
