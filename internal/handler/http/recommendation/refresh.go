package recommendation

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"cinebox-recs/internal/handler/http/respond"
	"cinebox-recs/internal/observability/logging"
)

// RefreshHandler rebuilds a user's cached list on demand.
type RefreshHandler struct {
	Svc    Service
	Logger *slog.Logger
}

// ServeHTTP serves POST /users/{id}/recommendations/refresh.
// The list is rebuilt unconditionally; unlike GET there is no stale or
// fallback serving, so a scoring failure surfaces as an error.
func (h RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	set, err := h.Svc.RefreshForUser(ctx, userID)
	if err != nil {
		status := statusForError(err)
		logger.Error("failed to refresh recommendations",
			"error", err.Error(),
			"user_id", userID,
			"status", status)
		respond.SafeError(w, status, err)
		return
	}

	logger.Info("recommendations refreshed",
		"user_id", userID,
		"algorithm", set.Algorithm,
		"count", len(set.Entries),
		"duration_ms", time.Since(startTime).Milliseconds())

	respond.JSON(w, http.StatusOK, toListDTO(set))
}
