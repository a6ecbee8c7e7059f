package entity

import "time"

// SignalKind identifies the type of a user interaction signal.
type SignalKind string

// Signal kinds fed into the collaborative filter and the seed selector.
const (
	SignalRating    SignalKind = "rating"
	SignalView      SignalKind = "view"
	SignalFavorite  SignalKind = "favorite"
	SignalWatchlist SignalKind = "watchlist"
	SignalLike      SignalKind = "like"
)

// InteractionSignal is one unit of explicit or implicit feedback.
//
// Value carries the star rating (0-5) for SignalRating and the watch progress
// (0-1) for SignalView. It is zero for the boolean kinds. Completed is set for
// views that finished or crossed the completion threshold.
type InteractionSignal struct {
	UserID     int64
	MovieID    int64
	Kind       SignalKind
	Value      float64
	Completed  bool
	OccurredAt time.Time
}

// Validate checks that the signal references valid entities and that Value is
// within the range its kind allows.
func (s *InteractionSignal) Validate() error {
	if s.UserID <= 0 {
		return &ValidationError{Field: "user_id", Message: "user ID must be positive"}
	}
	if s.MovieID <= 0 {
		return &ValidationError{Field: "movie_id", Message: "movie ID must be positive"}
	}
	switch s.Kind {
	case SignalRating:
		if s.Value < 0 || s.Value > 5 {
			return &ValidationError{Field: "value", Message: "rating must be between 0 and 5"}
		}
	case SignalView:
		if s.Value < 0 || s.Value > 1 {
			return &ValidationError{Field: "value", Message: "view progress must be between 0 and 1"}
		}
	case SignalFavorite, SignalWatchlist, SignalLike:
		// boolean kinds carry no value
	default:
		return &ValidationError{Field: "kind", Message: "unknown signal kind"}
	}
	return nil
}
