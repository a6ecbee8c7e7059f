package repository

import (
	"context"
	"time"

	"cinebox-recs/internal/domain/entity"
)

// RecommendationRepository manages the per-user recommendation cache.
type RecommendationRepository interface {
	// ListForUser retrieves a user's cached entries ordered by rank.
	// Returns an empty slice (not nil) when the user has no cached rows.
	ListForUser(ctx context.Context, userID int64) ([]*entity.RecommendationEntry, error)

	// ReplaceForUser deletes the user's old entries and inserts the new set
	// in a single transaction. A failure leaves the previous entries intact.
	ReplaceForUser(ctx context.Context, userID int64, entries []*entity.RecommendationEntry) error

	// DeleteExpired removes entries whose TTL lapsed before the given time
	// and returns the number of deleted rows.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
