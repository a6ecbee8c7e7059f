// Package recommend implements the read side of the engine: serving cached
// recommendation lists, rebuilding them on demand, and the batch recompute
// that follows a model swap.
package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"cinebox-recs/internal/config"
	"cinebox-recs/internal/domain/entity"
	"cinebox-recs/internal/observability/metrics"
	"cinebox-recs/internal/recommender/decay"
	"cinebox-recs/internal/recommender/hybrid"
	"cinebox-recs/internal/repository"
	"cinebox-recs/internal/resilience/circuitbreaker"
)

// Scorer produces the raw ranked candidate list for one user.
type Scorer interface {
	Score(ctx context.Context, in hybrid.Input) (*hybrid.Result, error)
}

// Service provides recommendation serving use cases. Concurrent requests for
// the same user's list are coalesced so a cache miss triggers at most one
// scoring pass.
type Service struct {
	Catalog      repository.CatalogRepository
	Interactions repository.InteractionRepository
	Cache        repository.RecommendationRepository
	Similarities repository.SimilarityRepository
	AppState     repository.AppStateRepository
	State        *ModelState
	Scorer       Scorer

	// Breaker guards the scoring path; when open, lookups skip straight to
	// stale or fallback serving. Nil disables it.
	Breaker *circuitbreaker.CircuitBreaker

	Cfg    config.RecommendConfig
	Logger *slog.Logger

	// Now is injectable for tests; nil means time.Now.
	Now func() time.Time

	group singleflight.Group
}

// RecommendationSet is a served recommendation list with its provenance.
type RecommendationSet struct {
	UserID      int64
	Entries     []*entity.RecommendationEntry
	Algorithm   string
	GeneratedAt time.Time

	// Cached is true when the list came straight from the cache.
	Cached bool

	// Stale is true when a rebuild failed and an expired list was served.
	Stale bool
}

// SimilarMovie is one neighbor of a movie in the content similarity graph.
type SimilarMovie struct {
	Movie      *entity.Movie
	Similarity float64
	Rank       int
}

// ModelInfo describes the loaded collaborative model for the admin surface.
type ModelInfo struct {
	Loaded           bool
	Version          string
	Factors          int
	TrainedAt        time.Time
	Users            int
	Items            int
	Dirty            bool
	LastRecomputedAt time.Time
}

// RecomputeReport summarizes a batch recompute pass.
type RecomputeReport struct {
	Users     int
	Succeeded int
	Failed    int
	Expired   int64
	Duration  time.Duration
}

// GetRecommendations serves a user's list. Fresh cache rows are returned
// directly; otherwise the list is rebuilt, and on rebuild failure the method
// degrades to the stale cached list or, lacking one, the popularity fallback.
// Returns ErrInvalidUserID if the user ID is not positive.
func (s *Service) GetRecommendations(ctx context.Context, userID int64, limit int) (*RecommendationSet, error) {
	if userID <= 0 {
		return nil, ErrInvalidUserID
	}
	limit = s.normalizeLimit(limit)
	now := s.now()

	cached, err := s.Cache.ListForUser(ctx, userID)
	if err != nil {
		s.logger().WarnContext(ctx, "cache lookup failed",
			slog.Int64("user_id", userID), slog.String("error", err.Error()))
		cached = nil
	}

	if len(cached) > 0 && cached[0].FreshAt(now) && !s.State.Dirty() {
		metrics.RecordCacheLookup("hit")
		return s.cachedSet(userID, cached, limit, false), nil
	}
	if len(cached) > 0 {
		metrics.RecordCacheLookup("stale")
	} else {
		metrics.RecordCacheLookup("miss")
	}

	set, err := s.rebuildShared(ctx, userID)
	if err == nil {
		set.Entries = truncateEntries(set.Entries, limit)
		return set, nil
	}

	s.logger().WarnContext(ctx, "rebuild failed",
		slog.Int64("user_id", userID), slog.String("error", err.Error()))

	if len(cached) > 0 {
		metrics.RecordCacheLookup("stale_served")
		return s.cachedSet(userID, cached, limit, true), nil
	}
	return s.fallbackSet(ctx, userID, limit, now, err)
}

// RefreshForUser rebuilds and re-caches a user's list unconditionally.
// Returns ErrInvalidUserID if the user ID is not positive.
func (s *Service) RefreshForUser(ctx context.Context, userID int64) (*RecommendationSet, error) {
	if userID <= 0 {
		return nil, ErrInvalidUserID
	}
	set, err := s.rebuildShared(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("refresh recommendations: %w", err)
	}
	return set, nil
}

// RecomputeAll rebuilds the cached list of every known user, bounded by the
// configured concurrency, then clears the model dirty flag and purges expired
// rows. Individual user failures are counted, not fatal.
func (s *Service) RecomputeAll(ctx context.Context) (*RecomputeReport, error) {
	start := s.now()

	userIDs, err := s.Interactions.ListUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}

	var succeeded, failed int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Cfg.Cache.RecomputeConcurrency)

	results := make(chan bool, len(userIDs))
	for _, userID := range userIDs {
		g.Go(func() error {
			_, rerr := s.rebuildShared(gctx, userID)
			metrics.RecordRecomputeUser(rerr == nil)
			if rerr != nil {
				s.logger().WarnContext(gctx, "recompute failed for user",
					slog.Int64("user_id", userID), slog.String("error", rerr.Error()))
			}
			results <- rerr == nil
			return nil
		})
	}
	_ = g.Wait()
	close(results)
	for ok := range results {
		if ok {
			succeeded++
		} else {
			failed++
		}
	}

	now := s.now()
	expired, err := s.Cache.DeleteExpired(ctx, now)
	if err != nil {
		s.logger().WarnContext(ctx, "expired row purge failed", slog.String("error", err.Error()))
	}

	s.State.ClearDirty(now)
	if err := s.AppState.Set(ctx, repository.StateKeyModelDirty, "false"); err != nil {
		s.logger().WarnContext(ctx, "persist dirty flag failed", slog.String("error", err.Error()))
	}
	if err := s.AppState.Set(ctx, repository.StateKeyLastRecompute, now.UTC().Format(time.RFC3339)); err != nil {
		s.logger().WarnContext(ctx, "persist recompute timestamp failed", slog.String("error", err.Error()))
	}

	return &RecomputeReport{
		Users:     len(userIDs),
		Succeeded: int(succeeded),
		Failed:    int(failed),
		Expired:   expired,
		Duration:  s.now().Sub(start),
	}, nil
}

// SimilarMovies retrieves the content neighbors of a movie with their catalog
// metadata attached.
// Returns ErrInvalidMovieID if the ID is not positive.
// Returns ErrMovieNotFound if the movie does not exist.
func (s *Service) SimilarMovies(ctx context.Context, movieID int64, limit int) ([]SimilarMovie, error) {
	if movieID <= 0 {
		return nil, ErrInvalidMovieID
	}
	if limit <= 0 || limit > s.Cfg.Feature.TopK {
		limit = s.Cfg.Feature.TopK
	}

	movie, err := s.Catalog.Get(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("get movie: %w", err)
	}
	if movie == nil {
		return nil, ErrMovieNotFound
	}

	edges, err := s.Similarities.Neighbors(ctx, movieID, limit)
	if err != nil {
		return nil, fmt.Errorf("neighbors: %w", err)
	}

	out := make([]SimilarMovie, 0, len(edges))
	for _, e := range edges {
		neighbor, err := s.Catalog.Get(ctx, e.NeighborID)
		if err != nil {
			return nil, fmt.Errorf("get neighbor: %w", err)
		}
		if neighbor == nil {
			continue
		}
		out = append(out, SimilarMovie{Movie: neighbor, Similarity: e.Similarity, Rank: e.Rank})
	}
	return out, nil
}

// Trending retrieves the most viewed movies over the given window.
func (s *Service) Trending(ctx context.Context, window time.Duration, limit int) ([]repository.TrendingMovie, error) {
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}
	if limit <= 0 || limit > s.Cfg.Cache.DefaultTopN {
		limit = s.Cfg.Cache.DefaultTopN
	}
	movies, err := s.Catalog.ListTrending(ctx, s.now().Add(-window), limit)
	if err != nil {
		return nil, fmt.Errorf("list trending: %w", err)
	}
	return movies, nil
}

// ModelInfo reports the loaded model and recompute bookkeeping.
func (s *Service) ModelInfo() ModelInfo {
	info := ModelInfo{
		Dirty:            s.State.Dirty(),
		LastRecomputedAt: s.State.LastRecomputedAt(),
	}
	if m := s.State.Snapshot(); m != nil {
		info.Loaded = true
		info.Version = m.Version
		info.Factors = m.Factors
		info.TrainedAt = m.TrainedAt
		info.Users = m.UserCount()
		info.Items = m.ItemCount()
	}
	return info
}

// rebuildShared coalesces concurrent rebuilds of the same user's list onto a
// single scoring pass.
func (s *Service) rebuildShared(ctx context.Context, userID int64) (*RecommendationSet, error) {
	v, err, shared := s.group.Do(strconv.FormatInt(userID, 10), func() (interface{}, error) {
		return s.rebuild(ctx, userID)
	})
	if shared {
		metrics.RecordSingleflightShared()
	}
	if err != nil {
		return nil, err
	}
	return v.(*RecommendationSet), nil
}

// rebuild runs one scoring pass for a user and replaces their cached rows.
func (s *Service) rebuild(ctx context.Context, userID int64) (*RecommendationSet, error) {
	if s.Breaker != nil {
		v, err := s.Breaker.Execute(func() (interface{}, error) {
			return s.score(ctx, userID)
		})
		if err != nil {
			return nil, err
		}
		return v.(*RecommendationSet), nil
	}
	return s.score(ctx, userID)
}

func (s *Service) score(ctx context.Context, userID int64) (*RecommendationSet, error) {
	start := s.now()

	catalog, err := s.Catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	seeds, err := s.Interactions.SeedMovies(ctx, userID, s.Cfg.Scoring.MaxSeeds)
	if err != nil {
		return nil, fmt.Errorf("seed movies: %w", err)
	}
	excludedIDs, err := s.Interactions.ExcludedMovieIDs(ctx, userID, start.Add(-s.Cfg.Scoring.ExclusionViewWindow))
	if err != nil {
		return nil, fmt.Errorf("excluded movies: %w", err)
	}
	exclude := make(map[int64]struct{}, len(excludedIDs))
	for _, id := range excludedIDs {
		exclude[id] = struct{}{}
	}

	res, err := s.Scorer.Score(ctx, hybrid.Input{
		UserID:  userID,
		Model:   s.State.Snapshot(),
		Catalog: catalog,
		Seeds:   seeds,
		Exclude: exclude,
		Now:     start,
	})
	if err != nil {
		return nil, fmt.Errorf("score user %d: %w", userID, err)
	}

	boosted := decay.Reweight(res.Candidates, res.RecencyByMovie, start,
		s.Cfg.Scoring.HalfLifeDays, s.Cfg.Scoring.BoostMultiplier)
	if len(boosted) > s.Cfg.Cache.DefaultTopN {
		boosted = boosted[:s.Cfg.Cache.DefaultTopN]
	}

	entries := make([]*entity.RecommendationEntry, len(boosted))
	for i, c := range boosted {
		entries[i] = &entity.RecommendationEntry{
			UserID:      userID,
			MovieID:     c.MovieID,
			Score:       c.Score,
			Rank:        i + 1,
			Algorithm:   res.Branch.Algorithm(),
			GeneratedAt: start,
			ExpiresAt:   start.Add(s.Cfg.Cache.TTL),
		}
	}

	// An empty result keeps whatever was cached before instead of wiping it.
	if len(entries) > 0 {
		if err := s.Cache.ReplaceForUser(ctx, userID, entries); err != nil {
			s.logger().WarnContext(ctx, "cache replace failed",
				slog.Int64("user_id", userID), slog.String("error", err.Error()))
		}
	}

	metrics.RecordRecommendationBuild(res.Branch.String(), s.now().Sub(start))

	return &RecommendationSet{
		UserID:      userID,
		Entries:     entries,
		Algorithm:   res.Branch.Algorithm(),
		GeneratedAt: start,
	}, nil
}

// fallbackSet serves the unpersonalized popularity list when both the rebuild
// and the stale cache are unavailable. Nothing is persisted.
func (s *Service) fallbackSet(ctx context.Context, userID int64, limit int, now time.Time, cause error) (*RecommendationSet, error) {
	popular, err := s.Catalog.ListPopular(ctx,
		s.Cfg.Scoring.PopularityMinAvgRating, s.Cfg.Scoring.PopularityMinRatingCount, limit)
	if err != nil || len(popular) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrRecommendationsUnavailable, cause)
	}

	metrics.RecordCacheLookup("fallback")
	entries := make([]*entity.RecommendationEntry, len(popular))
	for i, m := range popular {
		entries[i] = &entity.RecommendationEntry{
			UserID:      userID,
			MovieID:     m.ID,
			Score:       m.AvgRating / 5,
			Rank:        i + 1,
			Algorithm:   entity.AlgorithmPopularity,
			GeneratedAt: now,
			// ExpiresAt stays zero: fallback entries never reach the
			// cache, and a zero expiry reads as already stale.
		}
	}
	return &RecommendationSet{
		UserID:      userID,
		Entries:     entries,
		Algorithm:   entity.AlgorithmPopularity,
		GeneratedAt: now,
		Stale:       true,
	}, nil
}

func (s *Service) cachedSet(userID int64, entries []*entity.RecommendationEntry, limit int, stale bool) *RecommendationSet {
	set := &RecommendationSet{
		UserID:    userID,
		Entries:   truncateEntries(entries, limit),
		Algorithm: entries[0].Algorithm,
		Cached:    true,
		Stale:     stale,
	}
	set.GeneratedAt = entries[0].GeneratedAt
	return set
}

func (s *Service) normalizeLimit(limit int) int {
	if limit <= 0 || limit > s.Cfg.Cache.DefaultTopN {
		return s.Cfg.Cache.DefaultTopN
	}
	return limit
}

func truncateEntries(entries []*entity.RecommendationEntry, limit int) []*entity.RecommendationEntry {
	if len(entries) > limit {
		return entries[:limit]
	}
	return entries
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
