package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cinebox-recs/internal/usecase/notify"
)

// channelHealthReply lists the notifier channels with their breaker
// state; healthy is false once any enabled channel's breaker is open.
type channelHealthReply struct {
	Healthy  bool            `json:"healthy"`
	Channels []channelStatus `json:"channels"`
}

type channelStatus struct {
	Name               string     `json:"name"`
	Enabled            bool       `json:"enabled"`
	CircuitBreakerOpen bool       `json:"circuit_breaker_open"`
	DisabledUntil      *time.Time `json:"disabled_until,omitempty"`
}

// startMetricsServer serves /metrics (Prometheus), /health (always
// 200) and /health/channels (notifier breaker state) on METRICS_PORT,
// defaulting to 9090. It returns immediately and shuts the server down
// when ctx ends.
func startMetricsServer(ctx context.Context, logger *slog.Logger, notifyService notify.Service) *http.Server {
	port := metricsPort()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	mux.HandleFunc("/health/channels", channelHealthHandler(notifyService))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("metrics server starting", slog.Int("port", port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", slog.Any("error", err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", slog.Any("error", err))
			return
		}
		logger.Info("metrics server stopped")
	}()

	return server
}

func metricsPort() int {
	raw := os.Getenv("METRICS_PORT")
	if raw == "" {
		return 9090
	}
	port, err := strconv.Atoi(raw)
	if err != nil || port <= 0 || port > 65535 {
		return 9090
	}
	return port
}

func channelHealthHandler(notifyService notify.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if notifyService == nil {
			writeJSON(w, http.StatusServiceUnavailable,
				map[string]string{"error": "notification service not initialized"})
			return
		}

		reply := channelHealthReply{Healthy: true}
		for _, st := range notifyService.GetChannelHealth() {
			reply.Channels = append(reply.Channels, channelStatus{
				Name:               st.Name,
				Enabled:            st.Enabled,
				CircuitBreakerOpen: st.CircuitBreakerOpen,
				DisabledUntil:      st.DisabledUntil,
			})
			if st.Enabled && st.CircuitBreakerOpen {
				reply.Healthy = false
			}
		}

		code := http.StatusOK
		if !reply.Healthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, reply)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
