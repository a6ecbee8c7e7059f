package worker

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
)

// WorkerConfig holds the configuration for the batch worker: the cron
// schedules for the three recurring jobs, the timezone they run in, a
// per-job timeout, and the health check port.
//
// All fields have defaults and validation rules so the worker can start
// safely even with missing or invalid environment configuration.
type WorkerConfig struct {
	// SimilaritySchedule is the cron expression for the content
	// similarity graph rebuild.
	// Default: "0 3 * * *" (every day at 03:00)
	SimilaritySchedule string

	// RetrainSchedule is the cron expression for collaborative
	// filtering model retraining.
	// Default: "30 3 * * *" (every day at 03:30)
	RetrainSchedule string

	// RecomputeSchedule is the cron expression for the full
	// recommendation recompute across all users.
	// Default: "0 4 * * *" (every day at 04:00)
	RecomputeSchedule string

	// Timezone is the IANA timezone name for cron scheduling.
	// Default: "UTC"
	Timezone string

	// JobTimeout is the maximum duration for a single job run. After
	// this timeout the job's context is cancelled.
	// Default: 30 minutes
	JobTimeout time.Duration

	// HealthPort is the port for the health check HTTP server.
	// Range: 1024-65535. Default: 9091
	HealthPort int
}

// Bounds for JobTimeout. A run shorter than a minute cannot finish a
// recompute pass, and anything past four hours overlaps the next night's
// schedule.
const (
	minJobTimeout = 1 * time.Minute
	maxJobTimeout = 4 * time.Hour
)

// DefaultConfig returns a WorkerConfig with production defaults. The
// three jobs are staggered so retraining sees the fresh similarity
// graph and the recompute sees the fresh model.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		SimilaritySchedule: "0 3 * * *",
		RetrainSchedule:    "30 3 * * *",
		RecomputeSchedule:  "0 4 * * *",
		Timezone:           "UTC",
		JobTimeout:         30 * time.Minute,
		HealthPort:         9091,
	}
}

// Validate checks every field and returns all failures together.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := validateSchedule(c.SimilaritySchedule); err != nil {
		errs = append(errs, fmt.Errorf("similarity schedule: %w", err))
	}
	if err := validateSchedule(c.RetrainSchedule); err != nil {
		errs = append(errs, fmt.Errorf("retrain schedule: %w", err))
	}
	if err := validateSchedule(c.RecomputeSchedule); err != nil {
		errs = append(errs, fmt.Errorf("recompute schedule: %w", err))
	}
	if err := validateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if c.JobTimeout < minJobTimeout || c.JobTimeout > maxJobTimeout {
		errs = append(errs, fmt.Errorf("job timeout %v outside [%v, %v]", c.JobTimeout, minJobTimeout, maxJobTimeout))
	}
	if c.HealthPort < 1024 || c.HealthPort > 65535 {
		errs = append(errs, fmt.Errorf("health port %d outside [1024, 65535]", c.HealthPort))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// validateSchedule parses a standard five-field cron expression with the
// same parser the scheduler itself uses.
func validateSchedule(schedule string) error {
	if schedule == "" {
		return fmt.Errorf("cron schedule is empty")
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("parse cron schedule %q: %w", schedule, err)
	}
	return nil
}

func validateTimezone(name string) error {
	if name == "" {
		return fmt.Errorf("timezone is empty")
	}
	if _, err := time.LoadLocation(name); err != nil {
		return fmt.Errorf("unknown timezone %q: %w", name, err)
	}
	return nil
}

// LoadConfigFromEnv loads worker configuration from environment
// variables with a fail-open strategy: each invalid value falls back to
// its default with a warning log and a fallback metric, and the returned
// configuration is always valid.
//
// Environment variables:
//   - SIMILARITY_SCHEDULE: cron expression (default: "0 3 * * *")
//   - RETRAIN_SCHEDULE: cron expression (default: "30 3 * * *")
//   - RECOMPUTE_SCHEDULE: cron expression (default: "0 4 * * *")
//   - WORKER_TIMEZONE: IANA timezone name (default: "UTC")
//   - JOB_TIMEOUT: duration string, e.g. "30m" (default: 30 minutes)
//   - WORKER_HEALTH_PORT: integer 1024-65535 (default: 9091)
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) *WorkerConfig {
	cfg := DefaultConfig()
	fellBack := false

	// override applies one environment variable. apply validates the raw
	// value and stores it into cfg; an error keeps the default instead.
	override := func(envKey, field string, apply func(raw string) error) {
		raw := os.Getenv(envKey)
		if raw == "" {
			return
		}
		if err := apply(raw); err != nil {
			fellBack = true
			metrics.RecordConfigFallback(field)
			logger.Warn("invalid worker configuration, fallback to default",
				slog.String("field", field),
				slog.String("value", raw),
				slog.String("error", err.Error()))
		}
	}

	schedule := func(dest *string) func(string) error {
		return func(raw string) error {
			if err := validateSchedule(raw); err != nil {
				return err
			}
			*dest = raw
			return nil
		}
	}

	override("SIMILARITY_SCHEDULE", "similarity_schedule", schedule(&cfg.SimilaritySchedule))
	override("RETRAIN_SCHEDULE", "retrain_schedule", schedule(&cfg.RetrainSchedule))
	override("RECOMPUTE_SCHEDULE", "recompute_schedule", schedule(&cfg.RecomputeSchedule))

	override("WORKER_TIMEZONE", "timezone", func(raw string) error {
		if err := validateTimezone(raw); err != nil {
			return err
		}
		cfg.Timezone = raw
		return nil
	})

	override("JOB_TIMEOUT", "job_timeout", func(raw string) error {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("parse duration: %w", err)
		}
		if d < minJobTimeout || d > maxJobTimeout {
			return fmt.Errorf("duration %v outside [%v, %v]", d, minJobTimeout, maxJobTimeout)
		}
		cfg.JobTimeout = d
		return nil
	})

	override("WORKER_HEALTH_PORT", "health_port", func(raw string) error {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("parse port: %w", err)
		}
		if port < 1024 || port > 65535 {
			return fmt.Errorf("port %d outside [1024, 65535]", port)
		}
		cfg.HealthPort = port
		return nil
	})

	metrics.SetConfigFallbackActive(fellBack)
	return &cfg
}
