package http

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinebox-recs/internal/usecase/recommend"
)

func pingableDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func decodeHealthResponse(t *testing.T, rec *httptest.ResponseRecorder) HealthResponse {
	t.Helper()
	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func serveHealth(h *HealthHandler) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	return rec
}

func TestHealthHandler_DatabaseVerdicts(t *testing.T) {
	tests := []struct {
		name     string
		pingErr  error
		wantCode int
		wantTop  string
	}{
		{name: "reachable database", pingErr: nil, wantCode: http.StatusOK, wantTop: "healthy"},
		{name: "ping fails", pingErr: sql.ErrConnDone, wantCode: http.StatusServiceUnavailable, wantTop: "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := pingableDB(t)
			exp := mock.ExpectPing()
			if tt.pingErr != nil {
				exp.WillReturnError(tt.pingErr)
			}

			rec := serveHealth(&HealthHandler{DB: db, Version: "v-test"})
			assert.Equal(t, tt.wantCode, rec.Code)

			resp := decodeHealthResponse(t, rec)
			assert.Equal(t, tt.wantTop, resp.Status)
			assert.Equal(t, "v-test", resp.Version)
			assert.NotEmpty(t, resp.Timestamp)
			assert.Contains(t, resp.Checks, "database")
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestHealthHandler_NilDatabaseIsUnhealthy(t *testing.T) {
	rec := serveHealth(&HealthHandler{Version: "v-test"})

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decodeHealthResponse(t, rec)
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "not configured", resp.Checks["database"].Message)
}

func TestHealthHandler_PoolDetails(t *testing.T) {
	db, mock := pingableDB(t)
	db.SetMaxOpenConns(10)
	mock.ExpectPing()

	rec := serveHealth(&HealthHandler{DB: db, Version: "v-test"})
	require.Equal(t, http.StatusOK, rec.Code)

	check := decodeHealthResponse(t, rec).Checks["database"]
	assert.Equal(t, "healthy", check.Status)
	assert.Equal(t, float64(10), check.Details["max_open_connections"])
	// Nothing is in use under sqlmock, so utilization reads zero.
	assert.Equal(t, float64(0), check.Details["utilization_percent"])
}

func TestHealthHandler_UnlimitedPoolIsDegraded(t *testing.T) {
	db, mock := pingableDB(t)
	db.SetMaxOpenConns(0)
	mock.ExpectPing()

	rec := serveHealth(&HealthHandler{DB: db, Version: "v-test"})

	// Degraded still serves traffic.
	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeHealthResponse(t, rec)
	assert.Equal(t, "healthy", resp.Status)

	check := resp.Checks["database"]
	assert.Equal(t, "degraded", check.Status)
	assert.Equal(t, "connection pool max connections not configured", check.Message)
	_, hasUtilization := check.Details["utilization_percent"]
	assert.False(t, hasUtilization, "utilization is undefined without a pool limit")
}

func TestHealthHandler_NeverCached(t *testing.T) {
	db, mock := pingableDB(t)
	mock.ExpectPing()

	rec := serveHealth(&HealthHandler{DB: db, Version: "v-test"})

	assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

// stubModelStatus satisfies ModelStatusProvider with a fixed report.
type stubModelStatus struct {
	info recommend.ModelInfo
}

func (s stubModelStatus) ModelInfo() recommend.ModelInfo { return s.info }

func TestHealthHandler_ModelStatus(t *testing.T) {
	tests := []struct {
		name        string
		info        recommend.ModelInfo
		wantStatus  string
		wantMessage string
	}{
		{
			name: "loaded and clean",
			info: recommend.ModelInfo{
				Loaded:    true,
				Version:   "20260301T040000Z",
				Factors:   32,
				Users:     120,
				Items:     400,
				TrainedAt: time.Date(2026, 3, 1, 4, 0, 0, 0, time.UTC),
			},
			wantStatus: "healthy",
		},
		{
			name:        "no model loaded",
			info:        recommend.ModelInfo{},
			wantStatus:  "degraded",
			wantMessage: "no collaborative model loaded, serving cold-start branches",
		},
		{
			name: "dirty cache",
			info: recommend.ModelInfo{
				Loaded:  true,
				Version: "20260301T040000Z",
				Dirty:   true,
			},
			wantStatus:  "degraded",
			wantMessage: "cached recommendations predate the loaded model",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := pingableDB(t)
			mock.ExpectPing()

			rec := serveHealth(&HealthHandler{
				DB:      db,
				Model:   stubModelStatus{info: tt.info},
				Version: "v-test",
			})

			// Model degradation never fails the health check.
			assert.Equal(t, http.StatusOK, rec.Code)

			check := decodeHealthResponse(t, rec).Checks["model"]
			assert.Equal(t, tt.wantStatus, check.Status)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, check.Message)
			}
		})
	}
}

func TestReadyHandler(t *testing.T) {
	t.Run("database answers", func(t *testing.T) {
		db, mock := pingableDB(t)
		mock.ExpectPing()

		rec := httptest.NewRecorder()
		(&ReadyHandler{DB: db}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ready", rec.Body.String())
	})

	t.Run("database down", func(t *testing.T) {
		db, mock := pingableDB(t)
		mock.ExpectPing().WillReturnError(sql.ErrConnDone)

		rec := httptest.NewRecorder()
		(&ReadyHandler{DB: db}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("nil database", func(t *testing.T) {
		rec := httptest.NewRecorder()
		(&ReadyHandler{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "database not configured")
	})

	t.Run("slow ping trips the probe deadline", func(t *testing.T) {
		db, mock := pingableDB(t)
		mock.ExpectPing().WillDelayFor(3 * time.Second)

		rec := httptest.NewRecorder()
		(&ReadyHandler{DB: db}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestLiveHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	(&LiveHandler{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alive", rec.Body.String())
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
}
