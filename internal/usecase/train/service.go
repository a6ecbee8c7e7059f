// Package train implements model lifecycle use cases: retraining the
// collaborative filter, persisting the artifact, and swapping it into the
// serving path.
package train

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"cinebox-recs/internal/domain/entity"
	"cinebox-recs/internal/infra/notifier"
	"cinebox-recs/internal/observability/metrics"
	"cinebox-recs/internal/recommender/cf"
	"cinebox-recs/internal/repository"
	"cinebox-recs/internal/usecase/recommend"
)

// ErrInsufficientSignals is returned when training aborted because the
// signal volume was below the configured minimum. The previously loaded
// model stays in place.
var ErrInsufficientSignals = cf.ErrInsufficientSignals

// Trainer factorizes interaction signals into a model artifact.
type Trainer interface {
	Train(signals []*entity.InteractionSignal, trainedAt time.Time) (*entity.ModelArtifact, error)
}

// Service provides model training use cases. A successful run persists the
// artifact, swaps it atomically into the serving state, and marks every
// cached recommendation dirty.
type Service struct {
	Interactions repository.InteractionRepository
	Models       repository.ModelRepository
	AppState     repository.AppStateRepository
	State        *recommend.ModelState
	Trainer      Trainer
	Notifier     notifier.Notifier
	Logger       *slog.Logger

	// Now is injectable for tests; nil means time.Now.
	Now func() time.Time
}

// Retrain trains a fresh model over all interaction signals.
//
// When signal volume is below the minimum the run aborts with
// ErrInsufficientSignals and the prior model keeps serving. Any other failure
// likewise leaves the loaded model untouched.
func (s *Service) Retrain(ctx context.Context) (*entity.ModelArtifact, error) {
	start := s.now()

	signals, err := s.Interactions.ListSignals(ctx)
	if err != nil {
		metrics.RecordTrainingRun("failure", s.now().Sub(start))
		return nil, fmt.Errorf("list signals: %w", err)
	}

	artifact, err := s.Trainer.Train(signals, start)
	if errors.Is(err, cf.ErrInsufficientSignals) {
		metrics.RecordTrainingRun("insufficient_data", s.now().Sub(start))
		s.logger().WarnContext(ctx, "training skipped, not enough signals",
			slog.Int("signals", len(signals)))
		s.notify(ctx, notifier.Report{
			Title:  "Model training",
			Status: notifier.StatusWarning,
			Fields: []notifier.Field{
				{Name: "outcome", Value: "skipped, insufficient signals"},
				{Name: "signals", Value: strconv.Itoa(len(signals))},
			},
		})
		return nil, err
	}
	if err != nil {
		metrics.RecordTrainingRun("failure", s.now().Sub(start))
		s.notify(ctx, notifier.Report{
			Title:  "Model training",
			Status: notifier.StatusFailure,
			Fields: []notifier.Field{{Name: "error", Value: err.Error()}},
		})
		return nil, fmt.Errorf("train model: %w", err)
	}

	if err := s.Models.Save(ctx, artifact); err != nil {
		metrics.RecordTrainingRun("failure", s.now().Sub(start))
		s.notify(ctx, notifier.Report{
			Title:  "Model training",
			Status: notifier.StatusFailure,
			Fields: []notifier.Field{{Name: "error", Value: err.Error()}},
		})
		return nil, fmt.Errorf("save model: %w", err)
	}

	s.State.Swap(artifact)
	s.State.MarkDirty()
	metrics.UpdateModelCoverage(artifact.UserCount(), artifact.ItemCount())

	if err := s.AppState.Set(ctx, repository.StateKeyModelDirty, "true"); err != nil {
		s.logger().WarnContext(ctx, "persist dirty flag failed", slog.String("error", err.Error()))
	}
	if err := s.AppState.Set(ctx, repository.StateKeyLastRetrain, start.UTC().Format(time.RFC3339)); err != nil {
		s.logger().WarnContext(ctx, "persist retrain timestamp failed", slog.String("error", err.Error()))
	}

	duration := s.now().Sub(start)
	metrics.RecordTrainingRun("success", duration)
	s.logger().InfoContext(ctx, "model trained",
		slog.String("version", artifact.Version),
		slog.Int("users", artifact.UserCount()),
		slog.Int("movies", artifact.ItemCount()),
		slog.Duration("duration", duration))

	s.notify(ctx, notifier.Report{
		Title:  "Model training",
		Status: notifier.StatusSuccess,
		Fields: []notifier.Field{
			{Name: "version", Value: artifact.Version},
			{Name: "users", Value: strconv.Itoa(artifact.UserCount())},
			{Name: "movies", Value: strconv.Itoa(artifact.ItemCount())},
			{Name: "duration", Value: duration.Round(time.Millisecond).String()},
		},
	})
	return artifact, nil
}

// LoadActiveModel loads the persisted active model into the serving state at
// startup. A missing model is not an error: the engine serves cold start
// branches until the first training run.
func (s *Service) LoadActiveModel(ctx context.Context) error {
	artifact, err := s.Models.LoadActive(ctx)
	if err != nil {
		return fmt.Errorf("load active model: %w", err)
	}
	if artifact == nil {
		s.logger().WarnContext(ctx, "no trained model found, serving cold start branches only")
		return nil
	}

	s.State.Swap(artifact)
	metrics.UpdateModelCoverage(artifact.UserCount(), artifact.ItemCount())

	// Re-seed the dirty flag so a crash between retrain and recompute does
	// not serve stale lists as fresh.
	if dirty, err := s.AppState.Get(ctx, repository.StateKeyModelDirty); err == nil && dirty == "true" {
		s.State.MarkDirty()
	}

	s.logger().InfoContext(ctx, "model loaded",
		slog.String("version", artifact.Version),
		slog.Int("users", artifact.UserCount()),
		slog.Int("movies", artifact.ItemCount()))
	return nil
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
