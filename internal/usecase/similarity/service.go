// Package similarity implements the content similarity graph rebuild: the
// whole catalog is vectorized and the top-K neighbor edges replace the stored
// graph in one transaction.
package similarity

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"cinebox-recs/internal/config"
	"cinebox-recs/internal/infra/notifier"
	"cinebox-recs/internal/observability/metrics"
	"cinebox-recs/internal/recommender/feature"
	"cinebox-recs/internal/repository"
)

// Service provides similarity graph rebuild use cases.
type Service struct {
	Catalog repository.CatalogRepository
	Edges   repository.SimilarityRepository

	Cfg      config.FeatureConfig
	Notifier notifier.Notifier
	Logger   *slog.Logger

	// Now is injectable for tests; nil means time.Now.
	Now func() time.Time
}

// RebuildReport summarizes one rebuild pass.
type RebuildReport struct {
	Movies     int
	Vectorized int
	Edges      int
	Duration   time.Duration
}

// Rebuild recomputes the edge set for the whole catalog and replaces the
// stored graph wholesale. Movies without any usable metadata are skipped; an
// all-featureless catalog yields an empty graph and a warning report.
func (s *Service) Rebuild(ctx context.Context) (*RebuildReport, error) {
	start := s.now()

	movies, err := s.Catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}

	vectors := feature.NewVectorizer(s.Cfg).Vectors(movies)
	edges := feature.BuildEdges(vectors, s.Cfg.TopK, s.Cfg.MinSimilarity, start)

	if err := s.Edges.ReplaceAll(ctx, edges); err != nil {
		s.notify(ctx, notifier.Report{
			Title:  "Similarity rebuild",
			Status: notifier.StatusFailure,
			Fields: []notifier.Field{{Name: "error", Value: err.Error()}},
		})
		return nil, fmt.Errorf("replace edges: %w", err)
	}

	duration := s.now().Sub(start)
	metrics.RecordSimilarityBuild(len(edges), duration)

	report := &RebuildReport{
		Movies:     len(movies),
		Vectorized: len(vectors),
		Edges:      len(edges),
		Duration:   duration,
	}

	status := notifier.StatusSuccess
	if len(edges) == 0 {
		status = notifier.StatusWarning
		s.logger().WarnContext(ctx, "similarity rebuild produced no edges",
			slog.Int("movies", len(movies)))
	} else {
		s.logger().InfoContext(ctx, "similarity graph rebuilt",
			slog.Int("movies", len(movies)),
			slog.Int("vectorized", len(vectors)),
			slog.Int("edges", len(edges)),
			slog.Duration("duration", duration))
	}

	s.notify(ctx, notifier.Report{
		Title:  "Similarity rebuild",
		Status: status,
		Fields: []notifier.Field{
			{Name: "movies", Value: strconv.Itoa(len(movies))},
			{Name: "vectorized", Value: strconv.Itoa(len(vectors))},
			{Name: "edges", Value: strconv.Itoa(len(edges))},
			{Name: "duration", Value: duration.Round(time.Millisecond).String()},
		},
	})
	return report, nil
}

func (s *Service) notify(ctx context.Context, report notifier.Report) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.NotifyReport(ctx, report); err != nil {
		s.logger().WarnContext(ctx, "report notification failed", slog.String("error", err.Error()))
	}
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
