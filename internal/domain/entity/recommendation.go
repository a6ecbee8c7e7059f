package entity

import "time"

// Algorithm labels record which scoring branch produced a cached row.
const (
	AlgorithmHybrid      = "hybrid"
	AlgorithmContentSeed = "content_seed"
	AlgorithmPopularity  = "popularity"
)

// RecommendationEntry is one cached, ranked recommendation for a user.
// A user's entries are always written together in a single transaction, so
// all rows of a user share GeneratedAt and ExpiresAt.
type RecommendationEntry struct {
	UserID      int64
	MovieID     int64
	Score       float64
	Rank        int
	Algorithm   string
	GeneratedAt time.Time
	ExpiresAt   time.Time
}

// FreshAt reports whether the entry is still within its TTL at the given time.
func (e *RecommendationEntry) FreshAt(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// Validate checks entry invariants before persistence.
func (e *RecommendationEntry) Validate() error {
	if e.UserID <= 0 {
		return &ValidationError{Field: "user_id", Message: "user ID must be positive"}
	}
	if e.MovieID <= 0 {
		return &ValidationError{Field: "movie_id", Message: "movie ID must be positive"}
	}
	if e.Rank <= 0 {
		return &ValidationError{Field: "rank", Message: "rank must be positive"}
	}
	switch e.Algorithm {
	case AlgorithmHybrid, AlgorithmContentSeed, AlgorithmPopularity:
	default:
		return &ValidationError{Field: "algorithm", Message: "unknown algorithm label"}
	}
	if !e.ExpiresAt.After(e.GeneratedAt) {
		return &ValidationError{Field: "expires_at", Message: "expires_at must be after generated_at"}
	}
	return nil
}
