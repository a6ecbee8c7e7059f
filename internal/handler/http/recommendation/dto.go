// Package recommendation provides HTTP handlers for the recommendation
// endpoints. It includes handlers for serving a user's personalized list,
// forcing a refresh, browsing similar and trending movies, and the admin
// surface that drives the model lifecycle.
package recommendation

import (
	"time"

	"cinebox-recs/internal/domain/entity"
	"cinebox-recs/internal/repository"
	"cinebox-recs/internal/usecase/recommend"
)

// EntryDTO is one ranked recommendation in a user's list.
type EntryDTO struct {
	MovieID int64   `json:"movie_id" example:"42"`
	Score   float64 `json:"score" example:"0.87"`
	Rank    int     `json:"rank" example:"1"`
}

// ListDTO represents the JSON structure for a served recommendation list.
type ListDTO struct {
	UserID          int64      `json:"user_id" example:"7"`
	Algorithm       string     `json:"algorithm" example:"hybrid"`
	GeneratedAt     time.Time  `json:"generated_at" example:"2026-03-01T04:00:00Z"`
	Cached          bool       `json:"cached"`
	Stale           bool       `json:"stale,omitempty"`
	Recommendations []EntryDTO `json:"recommendations"`
}

// MovieDTO represents the JSON structure for catalog movie data.
type MovieDTO struct {
	ID          int64    `json:"id" example:"42"`
	Title       string   `json:"title" example:"The Long Voyage"`
	ReleaseYear int      `json:"release_year,omitempty" example:"2019"`
	Country     string   `json:"country,omitempty" example:"US"`
	Genres      []string `json:"genres,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	AvgRating   float64  `json:"avg_rating" example:"4.2"`
	RatingCount int64    `json:"rating_count" example:"1532"`
	ViewCount   int64    `json:"view_count" example:"90210"`
}

// SimilarMovieDTO is one neighbor in the content similarity graph.
type SimilarMovieDTO struct {
	Movie      MovieDTO `json:"movie"`
	Similarity float64  `json:"similarity" example:"0.91"`
	Rank       int      `json:"rank" example:"1"`
}

// SimilarListDTO represents the JSON structure for a movie's neighbors.
type SimilarListDTO struct {
	MovieID int64             `json:"movie_id" example:"42"`
	Similar []SimilarMovieDTO `json:"similar"`
}

// TrendingMovieDTO is one movie in the trending list with its view volume
// over the requested window.
type TrendingMovieDTO struct {
	Movie       MovieDTO `json:"movie"`
	RecentViews int64    `json:"recent_views" example:"4821"`
}

// TrendingListDTO represents the JSON structure for the trending endpoint.
type TrendingListDTO struct {
	WindowDays int                `json:"window_days" example:"7"`
	Trending   []TrendingMovieDTO `json:"trending"`
}

// ModelInfoDTO reports the loaded collaborative model for the admin surface.
type ModelInfoDTO struct {
	Loaded           bool       `json:"loaded"`
	Version          string     `json:"version,omitempty" example:"20260301T040000Z"`
	Factors          int        `json:"factors,omitempty" example:"32"`
	TrainedAt        *time.Time `json:"trained_at,omitempty"`
	Users            int        `json:"users,omitempty" example:"1200"`
	Items            int        `json:"items,omitempty" example:"4000"`
	Dirty            bool       `json:"dirty"`
	LastRecomputedAt *time.Time `json:"last_recomputed_at,omitempty"`
}

// RetrainResponseDTO summarizes a completed training run.
type RetrainResponseDTO struct {
	Version   string    `json:"version" example:"20260301T040000Z"`
	Factors   int       `json:"factors" example:"32"`
	TrainedAt time.Time `json:"trained_at"`
	Users     int       `json:"users" example:"1200"`
	Items     int       `json:"items" example:"4000"`
}

// RebuildResponseDTO summarizes a similarity graph rebuild.
type RebuildResponseDTO struct {
	Movies     int   `json:"movies" example:"4000"`
	Vectorized int   `json:"vectorized" example:"3980"`
	Edges      int   `json:"edges" example:"79600"`
	DurationMs int64 `json:"duration_ms" example:"2150"`
}

// RecomputeResponseDTO summarizes a batch cache recompute.
type RecomputeResponseDTO struct {
	Users      int   `json:"users" example:"1200"`
	Succeeded  int   `json:"succeeded" example:"1198"`
	Failed     int   `json:"failed" example:"2"`
	Expired    int64 `json:"expired" example:"340"`
	DurationMs int64 `json:"duration_ms" example:"95000"`
}

func toListDTO(set *recommend.RecommendationSet) ListDTO {
	entries := make([]EntryDTO, 0, len(set.Entries))
	for _, e := range set.Entries {
		entries = append(entries, EntryDTO{
			MovieID: e.MovieID,
			Score:   e.Score,
			Rank:    e.Rank,
		})
	}
	return ListDTO{
		UserID:          set.UserID,
		Algorithm:       set.Algorithm,
		GeneratedAt:     set.GeneratedAt,
		Cached:          set.Cached,
		Stale:           set.Stale,
		Recommendations: entries,
	}
}

func toMovieDTO(m *entity.Movie) MovieDTO {
	return MovieDTO{
		ID:          m.ID,
		Title:       m.Title,
		ReleaseYear: m.ReleaseYear,
		Country:     m.Country,
		Genres:      m.Genres,
		Tags:        m.Tags,
		AvgRating:   m.AvgRating,
		RatingCount: m.RatingCount,
		ViewCount:   m.ViewCount,
	}
}

func toSimilarListDTO(movieID int64, neighbors []recommend.SimilarMovie) SimilarListDTO {
	similar := make([]SimilarMovieDTO, 0, len(neighbors))
	for _, n := range neighbors {
		similar = append(similar, SimilarMovieDTO{
			Movie:      toMovieDTO(n.Movie),
			Similarity: n.Similarity,
			Rank:       n.Rank,
		})
	}
	return SimilarListDTO{MovieID: movieID, Similar: similar}
}

func toTrendingListDTO(windowDays int, movies []repository.TrendingMovie) TrendingListDTO {
	trending := make([]TrendingMovieDTO, 0, len(movies))
	for _, m := range movies {
		trending = append(trending, TrendingMovieDTO{
			Movie:       toMovieDTO(m.Movie),
			RecentViews: m.RecentViews,
		})
	}
	return TrendingListDTO{WindowDays: windowDays, Trending: trending}
}

func toModelInfoDTO(info recommend.ModelInfo) ModelInfoDTO {
	dto := ModelInfoDTO{
		Loaded:  info.Loaded,
		Version: info.Version,
		Factors: info.Factors,
		Users:   info.Users,
		Items:   info.Items,
		Dirty:   info.Dirty,
	}
	if !info.TrainedAt.IsZero() {
		t := info.TrainedAt
		dto.TrainedAt = &t
	}
	if !info.LastRecomputedAt.IsZero() {
		t := info.LastRecomputedAt
		dto.LastRecomputedAt = &t
	}
	return dto
}
