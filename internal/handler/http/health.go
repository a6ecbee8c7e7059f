// Package http provides the recommendation API's handlers and
// middleware: the recommendation endpoints, health and probe endpoints,
// request metrics, and the middleware chain around them.
package http

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"cinebox-recs/internal/handler/http/respond"
	"cinebox-recs/internal/usecase/recommend"
)

// HealthResponse aggregates the per-component checks.
type HealthResponse struct {
	Status    string                 `json:"status"` // healthy or unhealthy
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version"`
}

// CheckStatus is one component's verdict.
type CheckStatus struct {
	Status  string                 `json:"status"` // healthy, degraded or unhealthy
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ModelStatusProvider reports the state of the loaded collaborative model.
type ModelStatusProvider interface {
	ModelInfo() recommend.ModelInfo
}

// HealthHandler reports database connectivity and the collaborative
// model state. Only a database failure makes the endpoint unhealthy; a
// missing model is degraded because the cold-start ladder keeps serving
// without it.
type HealthHandler struct {
	DB      *sql.DB
	Model   ModelStatusProvider
	Version string
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]CheckStatus{
		"database": h.checkDatabase(ctx),
	}
	if h.Model != nil {
		checks["model"] = h.checkModel()
	}

	status, code := "healthy", http.StatusOK
	for _, check := range checks {
		if check.Status == "unhealthy" {
			status, code = "unhealthy", http.StatusServiceUnavailable
			break
		}
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respond.JSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) CheckStatus {
	if h.DB == nil {
		return CheckStatus{Status: "unhealthy", Message: "not configured"}
	}
	if err := h.DB.PingContext(ctx); err != nil {
		return CheckStatus{Status: "unhealthy", Message: err.Error()}
	}

	stats := h.DB.Stats()
	details := map[string]interface{}{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}

	// MaxOpenConnections of zero means the pool limits never got
	// applied, and the utilization ratio below would divide by zero.
	if stats.MaxOpenConnections == 0 {
		return CheckStatus{
			Status:  "degraded",
			Message: "connection pool max connections not configured",
			Details: details,
		}
	}

	utilization := float64(stats.InUse) / float64(stats.MaxOpenConnections) * 100
	details["utilization_percent"] = utilization
	if utilization >= 80.0 {
		return CheckStatus{
			Status:  "degraded",
			Message: "connection pool utilization above 80%",
			Details: details,
		}
	}

	return CheckStatus{Status: "healthy", Details: details}
}

// checkModel reports the loaded collaborative model and its recompute state.
func (h *HealthHandler) checkModel() CheckStatus {
	info := h.Model.ModelInfo()

	details := map[string]interface{}{
		"loaded": info.Loaded,
		"dirty":  info.Dirty,
	}
	if info.Loaded {
		details["version"] = info.Version
		details["factors"] = info.Factors
		details["users"] = info.Users
		details["items"] = info.Items
		details["trained_at"] = info.TrainedAt.UTC().Format(time.RFC3339)
	}
	if !info.LastRecomputedAt.IsZero() {
		details["last_recomputed_at"] = info.LastRecomputedAt.UTC().Format(time.RFC3339)
	}

	if !info.Loaded {
		return CheckStatus{
			Status:  "degraded",
			Message: "no collaborative model loaded, serving cold-start branches",
			Details: details,
		}
	}
	if info.Dirty {
		return CheckStatus{
			Status:  "degraded",
			Message: "cached recommendations predate the loaded model",
			Details: details,
		}
	}
	return CheckStatus{Status: "healthy", Details: details}
}

// ReadyHandler answers the readiness probe: traffic may arrive once the
// database responds.
type ReadyHandler struct {
	DB *sql.DB
}

func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.DB == nil {
		http.Error(w, "database not configured", http.StatusServiceUnavailable)
		return
	}
	if err := h.DB.PingContext(ctx); err != nil {
		http.Error(w, "database not ready: "+err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeProbe(w, "ready")
}

// LiveHandler answers the liveness probe; responding at all is the check.
type LiveHandler struct{}

func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeProbe(w, "alive")
}

func writeProbe(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		slog.Warn("probe response write failed", slog.String("error", err.Error()))
	}
}
