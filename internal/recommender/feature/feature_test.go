package feature_test

import (
	"testing"
	"time"

	"cinebox-recs/internal/config"
	"cinebox-recs/internal/domain/entity"
	"cinebox-recs/internal/recommender/feature"
)

func testCatalog() []*entity.Movie {
	return []*entity.Movie{
		{ID: 1, Title: "Galactic Dawn", ReleaseYear: 2019, Genres: []string{"Sci-Fi", "Action"}, Tags: []string{"space", "war"}, ViewCount: 5000, AvgRating: 4.2, RatingCount: 120},
		{ID: 2, Title: "Galactic Dusk", ReleaseYear: 2021, Genres: []string{"Sci-Fi", "Action"}, Tags: []string{"space", "empire"}, ViewCount: 3000, AvgRating: 4.0, RatingCount: 80},
		{ID: 3, Title: "Quiet Harvest", ReleaseYear: 1998, Genres: []string{"Drama"}, Tags: []string{"family", "farm"}, ViewCount: 400, AvgRating: 3.6, RatingCount: 30},
		{ID: 4, Title: "Harvest Moon", ReleaseYear: 2001, Genres: []string{"Drama", "Romance"}, Tags: []string{"family"}, ViewCount: 900, AvgRating: 3.9, RatingCount: 45},
		{ID: 5, Title: "", ReleaseYear: 0}, // no metadata at all
	}
}

func buildVectors(t *testing.T) map[int64]feature.Vector {
	t.Helper()
	cfg := config.DefaultRecommendConfig().Feature
	return feature.NewVectorizer(cfg).Vectors(testCatalog())
}

func TestVectorizer_SkipsFeaturelessMovies(t *testing.T) {
	vectors := buildVectors(t)
	if _, ok := vectors[5]; ok {
		t.Fatal("movie without metadata must be excluded")
	}
	if len(vectors) != 4 {
		t.Fatalf("want 4 vectors, got %d", len(vectors))
	}
}

func TestCosine_RangeAndSelf(t *testing.T) {
	vectors := buildVectors(t)
	for a, va := range vectors {
		if got := feature.Cosine(va, va); got < 0.999 || got > 1.0 {
			t.Fatalf("self-similarity of %d = %v, want 1", a, got)
		}
		for _, vb := range vectors {
			sim := feature.Cosine(va, vb)
			if sim < 0 || sim > 1 {
				t.Fatalf("similarity out of range: %v", sim)
			}
		}
	}
}

func TestCosine_GroupsRelatedMovies(t *testing.T) {
	vectors := buildVectors(t)
	sciFi := feature.Cosine(vectors[1], vectors[2])
	cross := feature.Cosine(vectors[1], vectors[3])
	if sciFi <= cross {
		t.Fatalf("sci-fi pair (%v) must outrank cross-genre pair (%v)", sciFi, cross)
	}
}

func TestBuildEdges_Invariants(t *testing.T) {
	vectors := buildVectors(t)
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	const topK = 2
	edges := feature.BuildEdges(vectors, topK, 0.01, now)

	perSource := make(map[int64][]*entity.SimilarityEdge)
	for _, e := range edges {
		if err := e.Validate(); err != nil {
			t.Fatalf("invalid edge %+v: %v", e, err)
		}
		if !e.ComputedAt.Equal(now) {
			t.Fatalf("computed_at=%v, want %v", e.ComputedAt, now)
		}
		perSource[e.MovieID] = append(perSource[e.MovieID], e)
	}

	for src, list := range perSource {
		if len(list) > topK {
			t.Fatalf("source %d has %d edges, cap is %d", src, len(list), topK)
		}
		for i, e := range list {
			if e.Rank != i+1 {
				t.Fatalf("source %d rank sequence broken at %d", src, i)
			}
			if i > 0 && list[i-1].Similarity < e.Similarity {
				t.Fatalf("source %d similarity not non-increasing", src)
			}
		}
	}
}

func TestBuildEdges_Deterministic(t *testing.T) {
	vectors := buildVectors(t)
	now := time.Now()
	a := feature.BuildEdges(vectors, 3, 0.01, now)
	b := feature.BuildEdges(vectors, 3, 0.01, now)
	if len(a) != len(b) {
		t.Fatalf("edge counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if *a[i] != *b[i] {
			t.Fatalf("edge %d differs between runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestBuildEdges_EmptyCatalog(t *testing.T) {
	cfg := config.DefaultRecommendConfig().Feature
	vectors := feature.NewVectorizer(cfg).Vectors(nil)
	edges := feature.BuildEdges(vectors, 20, 0.05, time.Now())
	if len(edges) != 0 {
		t.Fatalf("empty catalog must yield no edges, got %d", len(edges))
	}
}
