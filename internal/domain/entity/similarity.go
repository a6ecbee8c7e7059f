package entity

import "time"

// SimilarityEdge is one directed neighbor edge in the content similarity
// graph: "viewers of MovieID may also like NeighborID". Edges are produced in
// bulk by the similarity builder and replaced wholesale on every rebuild.
type SimilarityEdge struct {
	MovieID    int64
	NeighborID int64
	Similarity float64
	Rank       int
	ComputedAt time.Time
}

// Validate checks edge invariants before persistence.
func (e *SimilarityEdge) Validate() error {
	if e.MovieID <= 0 {
		return &ValidationError{Field: "movie_id", Message: "movie ID must be positive"}
	}
	if e.NeighborID <= 0 {
		return &ValidationError{Field: "neighbor_id", Message: "neighbor ID must be positive"}
	}
	if e.MovieID == e.NeighborID {
		return &ValidationError{Field: "neighbor_id", Message: "edge cannot be a self-loop"}
	}
	if e.Similarity < 0 || e.Similarity > 1 {
		return &ValidationError{Field: "similarity", Message: "similarity must be between 0 and 1"}
	}
	if e.Rank <= 0 {
		return &ValidationError{Field: "rank", Message: "rank must be positive"}
	}
	return nil
}
