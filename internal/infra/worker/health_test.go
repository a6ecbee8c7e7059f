package worker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestHealthServer() *HealthServer {
	return NewHealthServer("localhost:0", slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

func decodeHealth(t *testing.T, rec *httptest.ResponseRecorder) healthResponse {
	t.Helper()
	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode health body: %v", err)
	}
	return resp
}

func TestHealthServer_LivenessAlwaysOK(t *testing.T) {
	hs := newTestHealthServer()

	// Liveness does not depend on readiness.
	for _, ready := range []bool{false, true} {
		hs.isReady.Store(ready)

		rec := httptest.NewRecorder()
		hs.handleLiveness(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("ready=%v: status = %d, want 200", ready, rec.Code)
		}
		if resp := decodeHealth(t, rec); resp.Status != "ok" {
			t.Errorf("ready=%v: status field = %q", ready, resp.Status)
		}
	}
}

func TestHealthServer_ReadinessFollowsSetReady(t *testing.T) {
	hs := newTestHealthServer()

	rec := httptest.NewRecorder()
	hs.handleReadiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("before SetReady: status = %d, want 503", rec.Code)
	}
	if resp := decodeHealth(t, rec); resp.Status != "not ready" {
		t.Errorf("before SetReady: status field = %q", resp.Status)
	}

	hs.SetReady(true)
	rec = httptest.NewRecorder()
	hs.handleReadiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("after SetReady: status = %d, want 200", rec.Code)
	}

	// Jobs can flip a worker back to not-ready, e.g. when the model is
	// swapped out during retraining.
	hs.SetReady(false)
	rec = httptest.NewRecorder()
	hs.handleReadiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("after SetReady(false): status = %d, want 503", rec.Code)
	}
}

func TestHealthServer_StartStopsOnContextCancel(t *testing.T) {
	hs := NewHealthServer("localhost:19173", slog.New(slog.NewJSONHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() { result <- hs.Start(ctx) }()

	// Give ListenAndServe a moment to bind before shutting down.
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get("http://localhost:19173/health")
		if err == nil {
			_ = resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("health server never came up: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-result:
		if err != http.ErrServerClosed {
			t.Errorf("Start returned %v, want http.ErrServerClosed", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Start did not return after context cancellation")
	}
}
