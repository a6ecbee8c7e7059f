package worker

import (
	"bytes"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"
)

// Shared across all tests in this package. promauto registers metrics
// globally, so creating a second instance would panic with duplicate
// registration.
var globalTestMetrics = NewWorkerMetrics()

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.SimilaritySchedule != "0 3 * * *" {
		t.Errorf("Expected SimilaritySchedule '0 3 * * *', got '%s'", config.SimilaritySchedule)
	}
	if config.RetrainSchedule != "30 3 * * *" {
		t.Errorf("Expected RetrainSchedule '30 3 * * *', got '%s'", config.RetrainSchedule)
	}
	if config.RecomputeSchedule != "0 4 * * *" {
		t.Errorf("Expected RecomputeSchedule '0 4 * * *', got '%s'", config.RecomputeSchedule)
	}
	if config.Timezone != "UTC" {
		t.Errorf("Expected Timezone 'UTC', got '%s'", config.Timezone)
	}
	if config.JobTimeout != 30*time.Minute {
		t.Errorf("Expected JobTimeout 30m, got %v", config.JobTimeout)
	}
	if config.HealthPort != 9091 {
		t.Errorf("Expected HealthPort 9091, got %d", config.HealthPort)
	}
}

func TestWorkerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*WorkerConfig)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(c *WorkerConfig) {},
			wantErr: false,
		},
		{
			name:    "invalid similarity schedule",
			mutate:  func(c *WorkerConfig) { c.SimilaritySchedule = "not a cron" },
			wantErr: true,
		},
		{
			name:    "invalid retrain schedule",
			mutate:  func(c *WorkerConfig) { c.RetrainSchedule = "99 99 * * *" },
			wantErr: true,
		},
		{
			name:    "invalid timezone",
			mutate:  func(c *WorkerConfig) { c.Timezone = "Mars/Olympus" },
			wantErr: true,
		},
		{
			name:    "zero job timeout",
			mutate:  func(c *WorkerConfig) { c.JobTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "privileged health port",
			mutate:  func(c *WorkerConfig) { c.HealthPort = 80 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(&config)
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{
		"SIMILARITY_SCHEDULE", "RETRAIN_SCHEDULE", "RECOMPUTE_SCHEDULE",
		"WORKER_TIMEZONE", "JOB_TIMEOUT", "WORKER_HEALTH_PORT",
	} {
		_ = os.Unsetenv(key)
	}

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	cfg := LoadConfigFromEnv(logger, globalTestMetrics)
	if cfg.SimilaritySchedule != "0 3 * * *" || cfg.HealthPort != 9091 {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadConfigFromEnv_CustomValues(t *testing.T) {
	_ = os.Setenv("SIMILARITY_SCHEDULE", "0 */6 * * *")
	_ = os.Setenv("WORKER_TIMEZONE", "Asia/Tokyo")
	_ = os.Setenv("JOB_TIMEOUT", "45m")
	_ = os.Setenv("WORKER_HEALTH_PORT", "9191")
	defer func() {
		_ = os.Unsetenv("SIMILARITY_SCHEDULE")
		_ = os.Unsetenv("WORKER_TIMEZONE")
		_ = os.Unsetenv("JOB_TIMEOUT")
		_ = os.Unsetenv("WORKER_HEALTH_PORT")
	}()

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	cfg := LoadConfigFromEnv(logger, globalTestMetrics)
	if cfg.SimilaritySchedule != "0 */6 * * *" {
		t.Errorf("SimilaritySchedule = %s", cfg.SimilaritySchedule)
	}
	if cfg.Timezone != "Asia/Tokyo" {
		t.Errorf("Timezone = %s", cfg.Timezone)
	}
	if cfg.JobTimeout != 45*time.Minute {
		t.Errorf("JobTimeout = %v", cfg.JobTimeout)
	}
	if cfg.HealthPort != 9191 {
		t.Errorf("HealthPort = %d", cfg.HealthPort)
	}
}

func TestLoadConfigFromEnv_FallsBackOnInvalidValues(t *testing.T) {
	_ = os.Setenv("RETRAIN_SCHEDULE", "definitely not cron")
	_ = os.Setenv("WORKER_HEALTH_PORT", "99999")
	defer func() {
		_ = os.Unsetenv("RETRAIN_SCHEDULE")
		_ = os.Unsetenv("WORKER_HEALTH_PORT")
	}()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	cfg := LoadConfigFromEnv(logger, globalTestMetrics)

	// fail-open: invalid values revert to defaults with warnings
	if cfg.RetrainSchedule != "30 3 * * *" {
		t.Errorf("RetrainSchedule = %s, want default", cfg.RetrainSchedule)
	}
	if cfg.HealthPort != 9091 {
		t.Errorf("HealthPort = %d, want default", cfg.HealthPort)
	}
	if !strings.Contains(buf.String(), "fallback") {
		t.Error("expected fallback warning in log output")
	}
}
