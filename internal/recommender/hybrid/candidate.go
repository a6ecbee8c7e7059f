// Package hybrid blends collaborative filtering predictions with content
// similarity into one ranked candidate list per user, falling back through
// the cold start ladder when either source is unavailable.
package hybrid

import (
	"sort"

	"cinebox-recs/internal/domain/entity"
)

// Candidate is one scored movie before recency boosting and truncation.
type Candidate struct {
	MovieID int64
	Score   float64

	// Popularity carries the movie's lifetime view count for tie-breaking.
	Popularity float64
}

// Branch identifies which rung of the cold start ladder produced a result.
type Branch int

const (
	// BranchCF means the user had latent factors and got the full blend.
	BranchCF Branch = iota

	// BranchSeeded means the user lacked factors but had seed titles, so
	// scores are content similarity only.
	BranchSeeded

	// BranchPopularity means the user had neither factors nor usable seeds
	// and received the site-wide popularity list.
	BranchPopularity
)

// Algorithm maps the branch to the algorithm label persisted with cached
// recommendation rows.
func (b Branch) Algorithm() string {
	switch b {
	case BranchCF:
		return entity.AlgorithmHybrid
	case BranchSeeded:
		return entity.AlgorithmContentSeed
	default:
		return entity.AlgorithmPopularity
	}
}

func (b Branch) String() string {
	switch b {
	case BranchCF:
		return "cf"
	case BranchSeeded:
		return "content_seed"
	default:
		return "popularity"
	}
}

// Sort orders candidates by score descending, breaking ties by popularity
// descending and then movie ID ascending so equal input always yields the
// same list.
func Sort(cands []Candidate) {
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		if cands[i].Popularity != cands[j].Popularity {
			return cands[i].Popularity > cands[j].Popularity
		}
		return cands[i].MovieID < cands[j].MovieID
	})
}
