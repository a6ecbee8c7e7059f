package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearPoolEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME", "DB_CONN_MAX_IDLE_TIME"} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
}

func TestDefaultConnectionConfig(t *testing.T) {
	cfg := DefaultConnectionConfig()

	assert.Equal(t, 25, cfg.MaxOpenConns)
	assert.Equal(t, 10, cfg.MaxIdleConns)
	assert.Equal(t, time.Hour, cfg.ConnMaxLifetime)
	assert.Equal(t, 30*time.Minute, cfg.ConnMaxIdleTime)
}

func TestGetConnectionConfigFromEnv(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want ConnectionConfig
	}{
		{
			name: "no overrides keeps defaults",
			env:  nil,
			want: DefaultConnectionConfig(),
		},
		{
			name: "all pool knobs overridden",
			env: map[string]string{
				"DB_MAX_OPEN_CONNS":     "100",
				"DB_MAX_IDLE_CONNS":     "40",
				"DB_CONN_MAX_LIFETIME":  "2h",
				"DB_CONN_MAX_IDLE_TIME": "45m",
			},
			want: ConnectionConfig{
				MaxOpenConns:    100,
				MaxIdleConns:    40,
				ConnMaxLifetime: 2 * time.Hour,
				ConnMaxIdleTime: 45 * time.Minute,
			},
		},
		{
			name: "partial override leaves the rest at defaults",
			env: map[string]string{
				"DB_MAX_OPEN_CONNS":    "75",
				"DB_CONN_MAX_LIFETIME": "90m",
			},
			want: ConnectionConfig{
				MaxOpenConns:    75,
				MaxIdleConns:    10,
				ConnMaxLifetime: 90 * time.Minute,
				ConnMaxIdleTime: 30 * time.Minute,
			},
		},
		{
			name: "garbage and non-positive values fall back",
			env: map[string]string{
				"DB_MAX_OPEN_CONNS":     "not-a-number",
				"DB_MAX_IDLE_CONNS":     "-5",
				"DB_CONN_MAX_LIFETIME":  "0s",
				"DB_CONN_MAX_IDLE_TIME": "soon",
			},
			want: DefaultConnectionConfig(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearPoolEnv(t)
			for key, val := range tt.env {
				t.Setenv(key, val)
			}

			assert.Equal(t, tt.want, getConnectionConfigFromEnv())
		})
	}
}

// Open exits the process when DATABASE_URL is missing, so the happy
// path only runs against a reachable database.
func TestOpen_AgainstRealDatabase(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set")
	}
	clearPoolEnv(t)

	pool := Open()
	defer func() { _ = pool.Close() }()

	// The pool comes back unverified; the caller owns the first ping.
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, pool.PingContext(ctx))
}
