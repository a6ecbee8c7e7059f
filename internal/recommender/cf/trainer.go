// Package cf trains the collaborative filtering model: an alternating least
// squares factorization of the implicit user×item feedback matrix into
// latent user and item vectors.
package cf

import (
	"errors"
	"math/rand"
	"time"

	"cinebox-recs/internal/config"
	"cinebox-recs/internal/domain/entity"
)

// ErrInsufficientSignals is returned when the signal volume is below the
// configured minimum. The previous model artifact must be kept in that case.
var ErrInsufficientSignals = errors.New("insufficient interaction signals for training")

// factorSeed fixes the item factor initialization so training is
// reproducible for identical input.
const factorSeed = 421

// Trainer factorizes interaction signals into a ModelArtifact.
type Trainer struct {
	cfg config.TrainingConfig
}

// NewTrainer creates a trainer with the given hyperparameters.
func NewTrainer(cfg config.TrainingConfig) *Trainer {
	return &Trainer{cfg: cfg}
}

// Train builds the implicit feedback matrix and runs ALS over it.
//
// Every user and item observed in the signal set receives a factor vector;
// unobserved ones are absent from the artifact and handled as cold start by
// the scorer. Training never mutates a previous artifact.
func (t *Trainer) Train(signals []*entity.InteractionSignal, trainedAt time.Time) (*entity.ModelArtifact, error) {
	m := buildMatrix(signals, t.cfg)
	if m.pairs < t.cfg.MinInteractions {
		return nil, ErrInsufficientSignals
	}

	f := t.cfg.Factors
	users := make([][]float64, len(m.userIDs))
	items := make([][]float64, len(m.itemIDs))
	for i := range users {
		users[i] = make([]float64, f)
	}

	rng := rand.New(rand.NewSource(factorSeed))
	for i := range items {
		items[i] = make([]float64, f)
		for k := range items[i] {
			items[i][k] = rng.Float64() * 0.1
		}
	}

	for iter := 0; iter < t.cfg.Iterations; iter++ {
		solveSide(users, items, m.byUser, f, t.cfg.Regularization)
		solveSide(items, users, m.byItem, f, t.cfg.Regularization)
	}

	artifact := &entity.ModelArtifact{
		Version:     trainedAt.UTC().Format("20060102T150405Z"),
		Factors:     f,
		TrainedAt:   trainedAt.UTC(),
		UserFactors: make(map[int64][]float32, len(m.userIDs)),
		ItemFactors: make(map[int64][]float32, len(m.itemIDs)),
	}
	for i, id := range m.userIDs {
		artifact.UserFactors[id] = toFloat32(users[i])
	}
	for i, id := range m.itemIDs {
		artifact.ItemFactors[id] = toFloat32(items[i])
	}
	return artifact, nil
}

// solveSide recomputes one side of the factorization, holding the other
// fixed. For each row it solves the regularized normal equations
// (Yᵀ Y + λI) x = Yᵀ r over the observed cells only.
func solveSide(target, fixed [][]float64, adjacency [][]cell, f int, reg float64) {
	for row, cells := range adjacency {
		if len(cells) == 0 {
			continue
		}
		a := make([][]float64, f)
		for i := range a {
			a[i] = make([]float64, f)
			a[i][i] = reg
		}
		b := make([]float64, f)

		for _, c := range cells {
			y := fixed[c.idx]
			for i := 0; i < f; i++ {
				yi := y[i]
				b[i] += yi * c.weight
				for j := i; j < f; j++ {
					a[i][j] += yi * y[j]
				}
			}
		}
		// mirror the upper triangle
		for i := 0; i < f; i++ {
			for j := i + 1; j < f; j++ {
				a[j][i] = a[i][j]
			}
		}
		target[row] = solveLinear(a, b)
	}
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
