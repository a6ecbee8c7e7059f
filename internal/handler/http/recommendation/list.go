package recommendation

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"cinebox-recs/internal/handler/http/auth"
	"cinebox-recs/internal/handler/http/respond"
	"cinebox-recs/internal/observability/logging"
	"cinebox-recs/internal/usecase/recommend"
)

// ListHandler serves a user's personalized recommendation list.
type ListHandler struct {
	Svc    Service
	Logger *slog.Logger
}

// ServeHTTP serves GET /users/{id}/recommendations.
// Fresh cached lists are returned directly; otherwise the list is rebuilt,
// falling back to a stale list or the popularity prior when scoring fails.
// Callers may only read their own list unless they hold the admin role.
func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()
	logger := logging.WithRequestID(ctx, h.Logger)

	userID, err := pathID(r, "id")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if !callerMayAccess(ctx, userID) {
		respond.SafeError(w, http.StatusForbidden, errors.New("forbidden"))
		return
	}

	limit, err := queryLimit(r, 0)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	set, err := h.Svc.GetRecommendations(ctx, userID, limit)
	if err != nil {
		status := statusForError(err)
		logger.Error("failed to serve recommendations",
			"error", err.Error(),
			"user_id", userID,
			"status", status)
		respond.SafeError(w, status, err)
		return
	}

	logger.Info("recommendations served",
		"user_id", userID,
		"algorithm", set.Algorithm,
		"count", len(set.Entries),
		"cached", set.Cached,
		"stale", set.Stale,
		"duration_ms", time.Since(startTime).Milliseconds())

	respond.JSON(w, http.StatusOK, toListDTO(set))
}

// pathID parses a positive int64 path parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid " + name + " path parameter")
	}
	return id, nil
}

// queryLimit parses the optional limit query parameter. Zero means the
// service default.
func queryLimit(r *http.Request, def int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, errors.New("invalid limit query parameter")
	}
	return limit, nil
}

// callerMayAccess reports whether the authenticated caller may act on the
// given user's list.
func callerMayAccess(ctx context.Context, userID int64) bool {
	if auth.IsAdmin(ctx) {
		return true
	}
	callerID, ok := auth.UserID(ctx)
	return ok && callerID == userID
}

// statusForError maps use case errors onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, recommend.ErrInvalidUserID),
		errors.Is(err, recommend.ErrInvalidMovieID):
		return http.StatusBadRequest
	case errors.Is(err, recommend.ErrMovieNotFound):
		return http.StatusNotFound
	case errors.Is(err, recommend.ErrRecommendationsUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
