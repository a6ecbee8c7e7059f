// Package config holds tunable parameters for the recommendation engine.
// Values come from defaults, an optional YAML file, then environment
// variables, in that order of precedence (env wins).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// RecommendConfig holds every tunable knob of the scoring pipeline. The
// documented values are defaults, not semantic requirements; operators tune
// them per deployment.
type RecommendConfig struct {
	// Feature configures the content feature builder.
	Feature FeatureConfig `yaml:"feature"`

	// Training configures the collaborative filter trainer.
	Training TrainingConfig `yaml:"training"`

	// Scoring configures the hybrid scorer and time decay.
	Scoring ScoringConfig `yaml:"scoring"`

	// Cache configures the recommendation cache manager.
	Cache CacheConfig `yaml:"cache"`
}

// FeatureConfig controls feature extraction and the similarity graph.
type FeatureConfig struct {
	// Sub-vector weights. They should sum to 1; Validate enforces a small
	// tolerance.
	GenreWeight      float64 `yaml:"genre_weight"`      // default 0.50
	TagWeight        float64 `yaml:"tag_weight"`        // default 0.25
	TitleWeight      float64 `yaml:"title_weight"`      // default 0.15
	YearWeight       float64 `yaml:"year_weight"`       // default 0.05
	PopularityWeight float64 `yaml:"popularity_weight"` // default 0.05, split between view count and rating

	// TopK is the number of neighbor edges kept per source movie.
	TopK int `yaml:"top_k"` // default 20

	// MinSimilarity is the quality floor below which edges are discarded.
	MinSimilarity float64 `yaml:"min_similarity"` // default 0.05
}

// TrainingConfig controls ALS factorization.
type TrainingConfig struct {
	Factors         int     `yaml:"factors"`          // latent dimensionality, default 50
	Iterations      int     `yaml:"iterations"`       // ALS sweeps, default 10
	Regularization  float64 `yaml:"regularization"`   // L2 term, default 0.01
	MinInteractions int     `yaml:"min_interactions"` // abort threshold, default 50

	// Implicit signal weights summed per user-movie pair. Ratings
	// contribute their star value directly.
	ViewWeight      float64 `yaml:"view_weight"`      // default 1.0
	FavoriteWeight  float64 `yaml:"favorite_weight"`  // default 0.8
	WatchlistWeight float64 `yaml:"watchlist_weight"` // default 0.5
	LikeWeight      float64 `yaml:"like_weight"`      // default 0.3
}

// ScoringConfig controls blending, cold start, and recency boosting.
type ScoringConfig struct {
	CFWeight float64 `yaml:"cf_weight"` // default 0.5
	CBWeight float64 `yaml:"cb_weight"` // default 0.5

	// SeedRatingThreshold is the minimum star rating that makes a rated
	// movie a cold-start seed.
	SeedRatingThreshold float64 `yaml:"seed_rating_threshold"` // default 3.5

	// MaxSeeds bounds how many recent seeds anchor the content branch.
	MaxSeeds int `yaml:"max_seeds"` // default 10

	// Popularity fallback gates, mirrored by the catalog query.
	PopularityMinAvgRating   float64 `yaml:"popularity_min_avg_rating"`   // default 4.0
	PopularityMinRatingCount int     `yaml:"popularity_min_rating_count"` // default 5

	// ExclusionViewWindow is how far back plain (uncompleted) views still
	// exclude a movie from a user's candidates.
	ExclusionViewWindow time.Duration `yaml:"exclusion_view_window"` // default 90 days

	HalfLifeDays    float64 `yaml:"half_life_days"`   // decay half life, default 30
	BoostMultiplier float64 `yaml:"boost_multiplier"` // max recency uplift, default 0.3
}

// CacheConfig controls the TTL cache and the batch recompute pass.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"` // default 24h

	// DefaultTopN is the list size served when the caller does not ask for
	// a specific one. Cached lists are always DefaultTopN long.
	DefaultTopN int `yaml:"default_top_n"` // default 50

	// RecomputeConcurrency bounds parallel users in recomputeAll.
	RecomputeConcurrency int `yaml:"recompute_concurrency"` // default 4
}

// DefaultRecommendConfig returns the documented defaults.
func DefaultRecommendConfig() RecommendConfig {
	return RecommendConfig{
		Feature: FeatureConfig{
			GenreWeight:      0.50,
			TagWeight:        0.25,
			TitleWeight:      0.15,
			YearWeight:       0.05,
			PopularityWeight: 0.05,
			TopK:             20,
			MinSimilarity:    0.05,
		},
		Training: TrainingConfig{
			Factors:         50,
			Iterations:      10,
			Regularization:  0.01,
			MinInteractions: 50,
			ViewWeight:      1.0,
			FavoriteWeight:  0.8,
			WatchlistWeight: 0.5,
			LikeWeight:      0.3,
		},
		Scoring: ScoringConfig{
			CFWeight:                 0.5,
			CBWeight:                 0.5,
			SeedRatingThreshold:      3.5,
			MaxSeeds:                 10,
			PopularityMinAvgRating:   4.0,
			PopularityMinRatingCount: 5,
			ExclusionViewWindow:      90 * 24 * time.Hour,
			HalfLifeDays:             30,
			BoostMultiplier:          0.3,
		},
		Cache: CacheConfig{
			TTL:                  24 * time.Hour,
			DefaultTopN:          50,
			RecomputeConcurrency: 4,
		},
	}
}

// LoadRecommendConfig builds the effective configuration: defaults, then the
// YAML file named by RECS_CONFIG_FILE (if set), then environment overrides.
func LoadRecommendConfig() (*RecommendConfig, error) {
	cfg := DefaultRecommendConfig()

	if path := os.Getenv("RECS_CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied path
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recommend configuration: %w", err)
	}
	return &cfg, nil
}

func (c *RecommendConfig) applyEnvOverrides() {
	c.Feature.TopK = getEnvInt("RECS_SIMILARITY_TOP_K", c.Feature.TopK)
	c.Feature.MinSimilarity = getEnvFloat("RECS_SIMILARITY_FLOOR", c.Feature.MinSimilarity)

	c.Training.Factors = getEnvInt("RECS_CF_FACTORS", c.Training.Factors)
	c.Training.Iterations = getEnvInt("RECS_CF_ITERATIONS", c.Training.Iterations)
	c.Training.Regularization = getEnvFloat("RECS_CF_REGULARIZATION", c.Training.Regularization)
	c.Training.MinInteractions = getEnvInt("RECS_CF_MIN_INTERACTIONS", c.Training.MinInteractions)

	c.Scoring.CFWeight = getEnvFloat("RECS_CF_WEIGHT", c.Scoring.CFWeight)
	c.Scoring.CBWeight = getEnvFloat("RECS_CB_WEIGHT", c.Scoring.CBWeight)
	c.Scoring.HalfLifeDays = getEnvFloat("RECS_DECAY_HALF_LIFE_DAYS", c.Scoring.HalfLifeDays)
	c.Scoring.BoostMultiplier = getEnvFloat("RECS_DECAY_BOOST", c.Scoring.BoostMultiplier)

	c.Cache.TTL = getEnvDuration("RECS_CACHE_TTL", c.Cache.TTL)
	c.Cache.DefaultTopN = getEnvInt("RECS_CACHE_TOP_N", c.Cache.DefaultTopN)
	c.Cache.RecomputeConcurrency = getEnvInt("RECS_RECOMPUTE_CONCURRENCY", c.Cache.RecomputeConcurrency)
}

// Validate checks configuration correctness.
func (c *RecommendConfig) Validate() error {
	f := c.Feature
	weightSum := f.GenreWeight + f.TagWeight + f.TitleWeight + f.YearWeight + f.PopularityWeight
	if weightSum < 0.999 || weightSum > 1.001 {
		return fmt.Errorf("feature weights must sum to 1, got %.3f", weightSum)
	}
	if f.TopK <= 0 {
		return fmt.Errorf("RECS_SIMILARITY_TOP_K must be positive")
	}
	if f.MinSimilarity < 0 || f.MinSimilarity >= 1 {
		return fmt.Errorf("RECS_SIMILARITY_FLOOR must be in [0, 1)")
	}

	if c.Training.Factors <= 0 {
		return fmt.Errorf("RECS_CF_FACTORS must be positive")
	}
	if c.Training.Iterations <= 0 {
		return fmt.Errorf("RECS_CF_ITERATIONS must be positive")
	}
	if c.Training.Regularization <= 0 {
		return fmt.Errorf("RECS_CF_REGULARIZATION must be positive")
	}
	if c.Training.MinInteractions <= 0 {
		return fmt.Errorf("RECS_CF_MIN_INTERACTIONS must be positive")
	}

	s := c.Scoring
	if s.CFWeight < 0 || s.CBWeight < 0 {
		return fmt.Errorf("blend weights must be non-negative")
	}
	if s.CFWeight+s.CBWeight <= 0 {
		return fmt.Errorf("blend weights must not both be zero")
	}
	if s.HalfLifeDays <= 0 {
		return fmt.Errorf("RECS_DECAY_HALF_LIFE_DAYS must be positive")
	}
	if s.BoostMultiplier < 0 {
		return fmt.Errorf("RECS_DECAY_BOOST must be non-negative")
	}
	if s.MaxSeeds <= 0 {
		return fmt.Errorf("max_seeds must be positive")
	}
	if s.ExclusionViewWindow <= 0 {
		return fmt.Errorf("exclusion_view_window must be positive")
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("RECS_CACHE_TTL must be positive")
	}
	if c.Cache.DefaultTopN <= 0 {
		return fmt.Errorf("RECS_CACHE_TOP_N must be positive")
	}
	if c.Cache.RecomputeConcurrency <= 0 {
		return fmt.Errorf("RECS_RECOMPUTE_CONCURRENCY must be positive")
	}
	return nil
}

// getEnvInt parses an integer environment variable with default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvFloat parses a float environment variable with default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration parses a duration environment variable with default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}
