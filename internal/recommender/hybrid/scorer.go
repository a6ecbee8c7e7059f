package hybrid

import (
	"context"
	"fmt"
	"math"
	"time"

	"cinebox-recs/internal/config"
	"cinebox-recs/internal/domain/entity"
	"cinebox-recs/internal/repository"
)

// NeighborSource yields the precomputed content similarity neighbors of a
// movie. In production this is the similarity repository.
type NeighborSource interface {
	Neighbors(ctx context.Context, movieID int64, limit int) ([]*entity.SimilarityEdge, error)
}

// Scorer produces the raw ranked candidate list for one user.
type Scorer struct {
	cfg           config.ScoringConfig
	neighbors     NeighborSource
	neighborLimit int
}

// NewScorer wires a scorer. neighborLimit caps how many neighbors are pulled
// per seed movie and normally matches the similarity graph's edge cap.
func NewScorer(cfg config.ScoringConfig, neighbors NeighborSource, neighborLimit int) *Scorer {
	if neighborLimit <= 0 {
		neighborLimit = 20
	}
	return &Scorer{cfg: cfg, neighbors: neighbors, neighborLimit: neighborLimit}
}

// Input carries everything a scoring pass needs, preloaded by the caller so
// the scorer itself stays free of storage concerns.
type Input struct {
	UserID int64

	// Model may be nil when no collaborative model has been trained yet.
	Model *entity.ModelArtifact

	// Catalog is the full movie list, used for metadata, tie-break
	// popularity, and the popularity fallback pool.
	Catalog []*entity.Movie

	// Seeds are the user's recent strong-signal titles, newest first.
	Seeds []repository.SeedMovie

	// Exclude lists movies the user already interacted with.
	Exclude map[int64]struct{}

	Now time.Time
}

// Result is a scored candidate list plus the branch that produced it.
type Result struct {
	Candidates []Candidate
	Branch     Branch

	// RecencyByMovie maps each candidate reached through a seed to the
	// timestamp of its most recently touched seed. The recency booster
	// consumes it downstream.
	RecencyByMovie map[int64]time.Time
}

// Score walks the cold start ladder for one user.
//
// Users covered by the model get the full blend of normalized CF and content
// scores. Users without factors but with seed titles get content similarity
// only. Everyone else, and any branch that comes up empty, gets the
// popularity list.
func (s *Scorer) Score(ctx context.Context, in Input) (*Result, error) {
	byID := make(map[int64]*entity.Movie, len(in.Catalog))
	for _, m := range in.Catalog {
		byID[m.ID] = m
	}

	if in.Model.HasUser(in.UserID) {
		res, err := s.scoreCF(ctx, in, byID)
		if err != nil {
			return nil, err
		}
		if len(res.Candidates) > 0 {
			return res, nil
		}
	} else if len(in.Seeds) > 0 {
		res, err := s.scoreSeeded(ctx, in, byID)
		if err != nil {
			return nil, err
		}
		if len(res.Candidates) > 0 {
			return res, nil
		}
	}

	return s.scorePopularity(in), nil
}

// scoreCF blends min-max normalized CF predictions with seed-anchored content
// similarity over every movie the model covers.
func (s *Scorer) scoreCF(ctx context.Context, in Input, byID map[int64]*entity.Movie) (*Result, error) {
	cfRaw := make(map[int64]float64)
	for movieID := range in.Model.ItemFactors {
		if _, skip := in.Exclude[movieID]; skip {
			continue
		}
		if _, known := byID[movieID]; !known {
			continue
		}
		score, ok := in.Model.Score(in.UserID, movieID)
		if !ok {
			continue
		}
		cfRaw[movieID] = score
	}
	if len(cfRaw) == 0 {
		return &Result{Branch: BranchCF}, nil
	}

	cbRaw, recency, err := s.contentScores(ctx, in)
	if err != nil {
		return nil, err
	}

	cfNorm := minMaxNormalize(cfRaw)
	cbNorm := minMaxNormalize(cbRaw)

	total := s.cfg.CFWeight + s.cfg.CBWeight
	wCF := s.cfg.CFWeight / total
	wCB := s.cfg.CBWeight / total

	cands := make([]Candidate, 0, len(cfRaw))
	for movieID := range cfRaw {
		cands = append(cands, Candidate{
			MovieID:    movieID,
			Score:      wCF*cfNorm[movieID] + wCB*cbNorm[movieID],
			Popularity: float64(byID[movieID].ViewCount),
		})
	}
	Sort(cands)
	return &Result{Candidates: cands, Branch: BranchCF, RecencyByMovie: recency}, nil
}

// scoreSeeded ranks by content similarity alone, anchored on the user's seed
// titles.
func (s *Scorer) scoreSeeded(ctx context.Context, in Input, byID map[int64]*entity.Movie) (*Result, error) {
	cbRaw, recency, err := s.contentScores(ctx, in)
	if err != nil {
		return nil, err
	}

	pool := make(map[int64]float64, len(cbRaw))
	for movieID, score := range cbRaw {
		if _, skip := in.Exclude[movieID]; skip {
			continue
		}
		if _, known := byID[movieID]; !known {
			continue
		}
		pool[movieID] = score
	}
	if len(pool) == 0 {
		return &Result{Branch: BranchSeeded}, nil
	}

	norm := minMaxNormalize(pool)
	cands := make([]Candidate, 0, len(pool))
	for movieID := range pool {
		cands = append(cands, Candidate{
			MovieID:    movieID,
			Score:      norm[movieID],
			Popularity: float64(byID[movieID].ViewCount),
		})
	}
	Sort(cands)
	return &Result{Candidates: cands, Branch: BranchSeeded, RecencyByMovie: recency}, nil
}

// scorePopularity ranks the well-rated slice of the catalog by a mix of view
// volume and average rating. It never fails: an empty catalog just yields an
// empty list.
func (s *Scorer) scorePopularity(in Input) *Result {
	views := make(map[int64]float64)
	var pool []*entity.Movie
	for _, m := range in.Catalog {
		if _, skip := in.Exclude[m.ID]; skip {
			continue
		}
		if m.AvgRating < s.cfg.PopularityMinAvgRating || m.RatingCount < int64(s.cfg.PopularityMinRatingCount) {
			continue
		}
		pool = append(pool, m)
		views[m.ID] = math.Log1p(float64(m.ViewCount))
	}

	viewNorm := minMaxNormalize(views)
	cands := make([]Candidate, 0, len(pool))
	for _, m := range pool {
		cands = append(cands, Candidate{
			MovieID:    m.ID,
			Score:      0.5*viewNorm[m.ID] + 0.5*(m.AvgRating/5),
			Popularity: float64(m.ViewCount),
		})
	}
	Sort(cands)
	return &Result{Candidates: cands, Branch: BranchPopularity}
}

// contentScores computes, for every movie reachable from the user's seeds,
// the recency-weighted average similarity to those seeds. Recent seeds pull
// harder than old ones via the same half-life curve the booster uses.
func (s *Scorer) contentScores(ctx context.Context, in Input) (map[int64]float64, map[int64]time.Time, error) {
	seeds := in.Seeds
	if len(seeds) > s.cfg.MaxSeeds {
		seeds = seeds[:s.cfg.MaxSeeds]
	}

	scores := make(map[int64]float64)
	recency := make(map[int64]time.Time)
	var totalWeight float64

	for _, seed := range seeds {
		daysAgo := in.Now.Sub(seed.LastTouched).Hours() / 24
		if daysAgo < 0 {
			daysAgo = 0
		}
		weight := math.Exp2(-daysAgo / s.cfg.HalfLifeDays)
		totalWeight += weight

		edges, err := s.neighbors.Neighbors(ctx, seed.MovieID, s.neighborLimit)
		if err != nil {
			return nil, nil, fmt.Errorf("neighbors of seed %d: %w", seed.MovieID, err)
		}
		for _, e := range edges {
			scores[e.NeighborID] += weight * e.Similarity
			if prev, ok := recency[e.NeighborID]; !ok || seed.LastTouched.After(prev) {
				recency[e.NeighborID] = seed.LastTouched
			}
		}
	}

	if totalWeight > 0 {
		for id := range scores {
			scores[id] /= totalWeight
		}
	}
	return scores, recency, nil
}

// minMaxNormalize rescales values into [0, 1]. A degenerate range maps every
// key to 0.5 so the blend still differentiates via the other component.
func minMaxNormalize(values map[int64]float64) map[int64]float64 {
	out := make(map[int64]float64, len(values))
	if len(values) == 0 {
		return out
	}
	lo := math.Inf(1)
	hi := math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	for id, v := range values {
		if span == 0 {
			out[id] = 0.5
		} else {
			out[id] = (v - lo) / span
		}
	}
	return out
}
