package recommendation

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"cinebox-recs/internal/handler/http/respond"
	"cinebox-recs/internal/observability/logging"
)

// defaultTrendingWindowDays is the view window used when the caller does not
// specify one.
const defaultTrendingWindowDays = 7

// maxTrendingWindowDays bounds the window so a single request cannot scan
// months of view history.
const maxTrendingWindowDays = 90

// TrendingHandler serves the most viewed movies over a recent window.
type TrendingHandler struct {
	Svc    Service
	Logger *slog.Logger
}

// ServeHTTP serves GET /movies/trending.
// The optional days query parameter sets the view window (default 7, max 90)
// and limit caps the list length.
func (h TrendingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()
	logger := logging.WithRequestID(ctx, h.Logger)

	days := defaultTrendingWindowDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxTrendingWindowDays {
			respond.SafeError(w, http.StatusBadRequest, errors.New("invalid days query parameter"))
			return
		}
		days = parsed
	}
	limit, err := queryLimit(r, 0)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	movies, err := h.Svc.Trending(ctx, time.Duration(days)*24*time.Hour, limit)
	if err != nil {
		logger.Error("failed to list trending movies",
			"error", err.Error(),
			"days", days)
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	logger.Info("trending movies served",
		"days", days,
		"count", len(movies),
		"duration_ms", time.Since(startTime).Milliseconds())

	respond.JSON(w, http.StatusOK, toTrendingListDTO(days, movies))
}
