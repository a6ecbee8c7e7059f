package recommend

import "errors"

// Domain errors for recommendation use cases.
// These errors can be checked using errors.Is for specific error handling.
var (
	// ErrInvalidUserID is returned when the user ID is not positive.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrInvalidMovieID is returned when the movie ID is not positive.
	ErrInvalidMovieID = errors.New("invalid movie id")

	// ErrMovieNotFound is returned when the movie does not exist.
	ErrMovieNotFound = errors.New("movie not found")

	// ErrRecommendationsUnavailable is returned when scoring failed and
	// neither a stale cache entry nor the popularity fallback could serve.
	ErrRecommendationsUnavailable = errors.New("recommendations unavailable")
)
