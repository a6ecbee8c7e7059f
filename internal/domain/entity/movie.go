// Package entity defines the core domain entities and validation logic for the
// recommendation engine. It contains the fundamental business objects such as
// Movie and InteractionSignal, along with their validation rules and
// domain-specific errors.
package entity

import "time"

// Movie represents a catalog title together with the metadata consumed by the
// content feature builder and the popularity prior.
type Movie struct {
	ID          int64
	Title       string
	ReleaseYear int
	Country     string
	Genres      []string
	Tags        []string
	ViewCount   int64
	AvgRating   float64
	RatingCount int64
	CreatedAt   time.Time
}

// HasContentFeatures reports whether the movie carries enough metadata to be
// vectorized. Titles alone qualify; a movie with no genres, tags, or title
// text is skipped by the feature builder.
func (m *Movie) HasContentFeatures() bool {
	return len(m.Genres) > 0 || len(m.Tags) > 0 || m.Title != ""
}
