package recommendation

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"cinebox-recs/internal/handler/http/respond"
	"cinebox-recs/internal/observability/logging"
	"cinebox-recs/internal/usecase/train"
)

// RetrainHandler triggers a collaborative model training run.
type RetrainHandler struct {
	Svc    Retrainer
	Logger *slog.Logger
}

// ServeHTTP serves POST /admin/model/retrain.
// Training runs synchronously; a run aborted for insufficient signal volume
// returns 409 and leaves the prior model serving.
func (h RetrainHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()
	logger := logging.WithRequestID(ctx, h.Logger)

	artifact, err := h.Svc.Retrain(ctx)
	if errors.Is(err, train.ErrInsufficientSignals) {
		logger.Warn("retrain skipped", "error", err.Error())
		respond.JSON(w, http.StatusConflict, map[string]string{
			"error": "cannot train: interaction signal volume below minimum",
		})
		return
	}
	if err != nil {
		logger.Error("retrain failed", "error", err.Error())
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	logger.Info("retrain completed",
		"version", artifact.Version,
		"users", artifact.UserCount(),
		"items", artifact.ItemCount(),
		"duration_ms", time.Since(startTime).Milliseconds())

	respond.JSON(w, http.StatusOK, RetrainResponseDTO{
		Version:   artifact.Version,
		Factors:   artifact.Factors,
		TrainedAt: artifact.TrainedAt,
		Users:     artifact.UserCount(),
		Items:     artifact.ItemCount(),
	})
}

// RebuildHandler triggers a content similarity graph rebuild.
type RebuildHandler struct {
	Svc    GraphRebuilder
	Logger *slog.Logger
}

// ServeHTTP serves POST /admin/similarity/rebuild.
func (h RebuildHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.WithRequestID(ctx, h.Logger)

	report, err := h.Svc.Rebuild(ctx)
	if err != nil {
		logger.Error("similarity rebuild failed", "error", err.Error())
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	logger.Info("similarity rebuild completed",
		"movies", report.Movies,
		"edges", report.Edges,
		"duration_ms", report.Duration.Milliseconds())

	respond.JSON(w, http.StatusOK, RebuildResponseDTO{
		Movies:     report.Movies,
		Vectorized: report.Vectorized,
		Edges:      report.Edges,
		DurationMs: report.Duration.Milliseconds(),
	})
}

// RecomputeHandler triggers the batch recompute of every user's cached list.
type RecomputeHandler struct {
	Svc    Recomputer
	Logger *slog.Logger
}

// ServeHTTP serves POST /admin/recommendations/recompute.
// Individual user failures are counted in the report, not surfaced as an
// error; only a failure to enumerate users fails the request.
func (h RecomputeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.WithRequestID(ctx, h.Logger)

	report, err := h.Svc.RecomputeAll(ctx)
	if err != nil {
		logger.Error("recompute failed", "error", err.Error())
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	logger.Info("recompute completed",
		"users", report.Users,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"duration_ms", report.Duration.Milliseconds())

	respond.JSON(w, http.StatusOK, RecomputeResponseDTO{
		Users:      report.Users,
		Succeeded:  report.Succeeded,
		Failed:     report.Failed,
		Expired:    report.Expired,
		DurationMs: report.Duration.Milliseconds(),
	})
}

// ModelInfoHandler reports the loaded collaborative model.
type ModelInfoHandler struct {
	Svc    Recomputer
	Logger *slog.Logger
}

// ServeHTTP serves GET /admin/model.
func (h ModelInfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, toModelInfoDTO(h.Svc.ModelInfo()))
}
