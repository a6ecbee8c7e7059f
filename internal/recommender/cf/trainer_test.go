package cf_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"cinebox-recs/internal/config"
	"cinebox-recs/internal/domain/entity"
	"cinebox-recs/internal/recommender/cf"
)

func trainingConfig() config.TrainingConfig {
	cfg := config.DefaultRecommendConfig().Training
	cfg.Factors = 8
	cfg.Iterations = 40
	cfg.MinInteractions = 4
	return cfg
}

// denseSignals rates every (user, movie) pair so the matrix is fully
// observed and reconstruction is checkable.
func denseSignals(t *testing.T) ([]*entity.InteractionSignal, map[[2]int64]float64) {
	t.Helper()
	users := []int64{10, 11, 12, 13}
	movies := []int64{100, 101, 102, 103}
	ratings := [][]float64{
		{5, 4, 1, 1},
		{4, 5, 1, 2},
		{1, 1, 5, 4},
		{2, 1, 4, 5},
	}
	var signals []*entity.InteractionSignal
	want := make(map[[2]int64]float64)
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for ui, u := range users {
		for mi, m := range movies {
			signals = append(signals, &entity.InteractionSignal{
				UserID: u, MovieID: m, Kind: entity.SignalRating,
				Value: ratings[ui][mi], OccurredAt: at,
			})
			want[[2]int64{u, m}] = ratings[ui][mi]
		}
	}
	return signals, want
}

func TestTrainer_InsufficientSignals(t *testing.T) {
	cfg := trainingConfig()
	cfg.MinInteractions = 100
	signals, _ := denseSignals(t)

	_, err := cf.NewTrainer(cfg).Train(signals, time.Now())
	if !errors.Is(err, cf.ErrInsufficientSignals) {
		t.Fatalf("want ErrInsufficientSignals, got %v", err)
	}
}

func TestTrainer_CoversAllObservedUsersAndItems(t *testing.T) {
	signals, _ := denseSignals(t)
	model, err := cf.NewTrainer(trainingConfig()).Train(signals, time.Now())
	if err != nil {
		t.Fatalf("Train err=%v", err)
	}
	if got := model.UserCount(); got != 4 {
		t.Fatalf("user count=%d, want 4", got)
	}
	if got := model.ItemCount(); got != 4 {
		t.Fatalf("item count=%d, want 4", got)
	}
	for id, f := range model.UserFactors {
		if len(f) != model.Factors {
			t.Fatalf("user %d factor dim=%d, want %d", id, len(f), model.Factors)
		}
	}
	if model.HasUser(999) {
		t.Fatal("unobserved user must be absent")
	}
}

func TestTrainer_ReconstructsObservedWeights(t *testing.T) {
	signals, want := denseSignals(t)
	model, err := cf.NewTrainer(trainingConfig()).Train(signals, time.Now())
	if err != nil {
		t.Fatalf("Train err=%v", err)
	}

	// With factor dimensionality >= matrix rank the fit should be tight.
	for pair, rating := range want {
		got, ok := model.Score(pair[0], pair[1])
		if !ok {
			t.Fatalf("no score for pair %v", pair)
		}
		if math.Abs(got-rating) > 0.5 {
			t.Fatalf("score(%d,%d)=%v, want ~%v", pair[0], pair[1], got, rating)
		}
	}
}

func TestTrainer_Deterministic(t *testing.T) {
	signals, _ := denseSignals(t)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	a, err := cf.NewTrainer(trainingConfig()).Train(signals, at)
	if err != nil {
		t.Fatal(err)
	}
	b, err := cf.NewTrainer(trainingConfig()).Train(signals, at)
	if err != nil {
		t.Fatal(err)
	}

	if a.Version != b.Version {
		t.Fatalf("versions differ: %s vs %s", a.Version, b.Version)
	}
	for id, fa := range a.UserFactors {
		fb := b.UserFactors[id]
		for i := range fa {
			if fa[i] != fb[i] {
				t.Fatalf("user %d factor %d differs between runs", id, i)
			}
		}
	}
}

func TestTrainer_ImplicitWeightsSum(t *testing.T) {
	cfg := trainingConfig()
	cfg.MinInteractions = 1
	cfg.Factors = 2
	at := time.Now()

	// One user, one movie, several implicit signals: the pair weight is
	// their sum, and the single-cell matrix is fit almost exactly.
	signals := []*entity.InteractionSignal{
		{UserID: 1, MovieID: 7, Kind: entity.SignalView, OccurredAt: at},
		{UserID: 1, MovieID: 7, Kind: entity.SignalFavorite, OccurredAt: at},
		{UserID: 1, MovieID: 7, Kind: entity.SignalLike, OccurredAt: at},
	}
	model, err := cf.NewTrainer(cfg).Train(signals, at)
	if err != nil {
		t.Fatalf("Train err=%v", err)
	}

	want := cfg.ViewWeight + cfg.FavoriteWeight + cfg.LikeWeight
	got, ok := model.Score(1, 7)
	if !ok {
		t.Fatal("missing score")
	}
	if math.Abs(got-want) > 0.1 {
		t.Fatalf("score=%v, want ~%v", got, want)
	}
}
