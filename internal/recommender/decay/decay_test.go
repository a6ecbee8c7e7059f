package decay_test

import (
	"math"
	"testing"
	"time"

	"cinebox-recs/internal/recommender/decay"
	"cinebox-recs/internal/recommender/hybrid"
)

func TestWeight_Checkpoints(t *testing.T) {
	tests := []struct {
		name    string
		daysAgo float64
		want    float64
	}{
		{"today", 0, 1.0},
		{"one half life", 30, 0.5},
		{"two half lives", 60, 0.25},
		{"half of half life", 15, math.Exp2(-0.5)},
		{"future clamps to full weight", -5, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decay.Weight(tt.daysAgo, 30)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("Weight(%v)=%v, want %v", tt.daysAgo, got, tt.want)
			}
		})
	}
}

func TestReweight_LiftsRecentAnchors(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	cands := []hybrid.Candidate{
		{MovieID: 1, Score: 0.80},
		{MovieID: 2, Score: 0.78},
		{MovieID: 3, Score: 0.50},
	}
	// Movie 2 was anchored by a seed touched today; movie 1 has no anchor.
	recency := map[int64]time.Time{
		2: now,
		3: now.AddDate(0, 0, -60),
	}

	out := decay.Reweight(cands, recency, now, 30, 0.3)

	if out[0].MovieID != 2 {
		t.Fatalf("freshly anchored movie should rank first, got %d", out[0].MovieID)
	}
	if math.Abs(out[0].Score-0.78*1.3) > 1e-9 {
		t.Fatalf("full boost score=%v, want %v", out[0].Score, 0.78*1.3)
	}

	var unboosted, aged hybrid.Candidate
	for _, c := range out {
		switch c.MovieID {
		case 1:
			unboosted = c
		case 3:
			aged = c
		}
	}
	if unboosted.Score != 0.80 {
		t.Fatalf("unanchored score changed: %v", unboosted.Score)
	}
	if want := 0.50 * (1 + 0.3*0.25); math.Abs(aged.Score-want) > 1e-9 {
		t.Fatalf("two half-life boost score=%v, want %v", aged.Score, want)
	}
}

func TestReweight_DoesNotMutateInput(t *testing.T) {
	now := time.Now()
	cands := []hybrid.Candidate{{MovieID: 7, Score: 0.4}}
	decay.Reweight(cands, map[int64]time.Time{7: now}, now, 30, 0.3)
	if cands[0].Score != 0.4 {
		t.Fatalf("input mutated: %v", cands[0].Score)
	}
}
