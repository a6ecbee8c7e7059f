package entity

import "time"

// ModelArtifact is an immutable snapshot of a trained collaborative filtering
// model. Factor slices are never mutated after training; retraining produces a
// fresh artifact that replaces the whole snapshot atomically.
type ModelArtifact struct {
	Version     string
	Factors     int
	TrainedAt   time.Time
	UserFactors map[int64][]float32
	ItemFactors map[int64][]float32
}

// HasUser reports whether the model holds latent factors for the user.
func (m *ModelArtifact) HasUser(userID int64) bool {
	if m == nil {
		return false
	}
	_, ok := m.UserFactors[userID]
	return ok
}

// Score returns the predicted affinity of a user for a movie as the dot
// product of their latent factor vectors. The second return value is false
// when either side is missing from the model.
func (m *ModelArtifact) Score(userID, movieID int64) (float64, bool) {
	if m == nil {
		return 0, false
	}
	uf, ok := m.UserFactors[userID]
	if !ok {
		return 0, false
	}
	mf, ok := m.ItemFactors[movieID]
	if !ok {
		return 0, false
	}
	var sum float64
	for i := range uf {
		sum += float64(uf[i]) * float64(mf[i])
	}
	return sum, true
}

// UserCount returns the number of users covered by the model.
func (m *ModelArtifact) UserCount() int {
	if m == nil {
		return 0
	}
	return len(m.UserFactors)
}

// ItemCount returns the number of movies covered by the model.
func (m *ModelArtifact) ItemCount() int {
	if m == nil {
		return 0
	}
	return len(m.ItemFactors)
}

// Validate checks artifact invariants before persistence.
func (m *ModelArtifact) Validate() error {
	if m.Version == "" {
		return &ValidationError{Field: "version", Message: "version is required"}
	}
	if m.Factors <= 0 {
		return &ValidationError{Field: "factors", Message: "factor count must be positive"}
	}
	for userID, f := range m.UserFactors {
		if len(f) != m.Factors {
			return &ValidationError{Field: "user_factors", Message: "factor vector dimension mismatch"}
		}
		if userID <= 0 {
			return &ValidationError{Field: "user_factors", Message: "user ID must be positive"}
		}
	}
	for movieID, f := range m.ItemFactors {
		if len(f) != m.Factors {
			return &ValidationError{Field: "item_factors", Message: "factor vector dimension mismatch"}
		}
		if movieID <= 0 {
			return &ValidationError{Field: "item_factors", Message: "movie ID must be positive"}
		}
	}
	return nil
}
