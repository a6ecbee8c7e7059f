package recommendation

import (
	"log/slog"
	"net/http"
	"time"

	"cinebox-recs/internal/handler/http/respond"
	"cinebox-recs/internal/observability/logging"
)

// SimilarHandler serves the content neighbors of a movie.
type SimilarHandler struct {
	Svc    Service
	Logger *slog.Logger
}

// ServeHTTP serves GET /movies/{id}/similar.
// The neighbor list comes from the precomputed similarity graph; an unknown
// movie yields 404 and a movie without edges yields an empty list.
func (h SimilarHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()
	logger := logging.WithRequestID(ctx, h.Logger)

	movieID, err := pathID(r, "id")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	limit, err := queryLimit(r, 0)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	neighbors, err := h.Svc.SimilarMovies(ctx, movieID, limit)
	if err != nil {
		status := statusForError(err)
		logger.Error("failed to list similar movies",
			"error", err.Error(),
			"movie_id", movieID,
			"status", status)
		respond.SafeError(w, status, err)
		return
	}

	logger.Info("similar movies served",
		"movie_id", movieID,
		"count", len(neighbors),
		"duration_ms", time.Since(startTime).Milliseconds())

	respond.JSON(w, http.StatusOK, toSimilarListDTO(movieID, neighbors))
}
