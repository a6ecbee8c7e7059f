// Package decay applies the exponential recency boost to a scored candidate
// list. Candidates tied to a recently touched seed are lifted; ones with no
// recent anchor keep their base score.
package decay

import (
	"math"
	"time"

	"cinebox-recs/internal/recommender/hybrid"
)

// Weight returns the recency weight for an interaction daysAgo days in the
// past: 1.0 at zero days, halving every halfLifeDays. Future timestamps clamp
// to full weight.
func Weight(daysAgo, halfLifeDays float64) float64 {
	if daysAgo < 0 {
		daysAgo = 0
	}
	return math.Exp2(-daysAgo / halfLifeDays)
}

// Reweight lifts each candidate's score by boost scaled with the recency
// weight of its anchoring seed, then re-sorts. Candidates absent from the
// recency map are left at their base score. The input slice is not modified.
func Reweight(cands []hybrid.Candidate, recency map[int64]time.Time, now time.Time, halfLifeDays, boost float64) []hybrid.Candidate {
	out := make([]hybrid.Candidate, len(cands))
	copy(out, cands)

	for i := range out {
		touched, ok := recency[out[i].MovieID]
		if !ok {
			continue
		}
		daysAgo := now.Sub(touched).Hours() / 24
		out[i].Score *= 1 + boost*Weight(daysAgo, halfLifeDays)
	}

	hybrid.Sort(out)
	return out
}
