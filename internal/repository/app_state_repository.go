package repository

import "context"

// Keys persisted in app_state so process state can be re-seeded on restart.
const (
	StateKeyModelDirty    = "cf_dirty"
	StateKeyLastRetrain   = "cf_last_retrain"
	StateKeyLastRecompute = "cf_last_recompute"
)

// AppStateRepository is a small key-value store for engine bookkeeping.
type AppStateRepository interface {
	// Get retrieves the value for a key. Returns ("", nil) when absent.
	Get(ctx context.Context, key string) (string, error)

	// Set upserts the value for a key.
	Set(ctx context.Context, key, value string) error
}
