// Command worker runs the recurring batch jobs of the recommendation
// engine: the nightly similarity graph rebuild, model retraining, and the
// full recommendation recompute. Jobs are staggered so each one sees the
// previous one's output.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/robfig/cron/v3"

	"cinebox-recs/internal/config"
	"cinebox-recs/internal/handler/http/respond"
	pgRepo "cinebox-recs/internal/infra/adapter/persistence/postgres"
	"cinebox-recs/internal/infra/db"
	"cinebox-recs/internal/infra/notifier"
	workerPkg "cinebox-recs/internal/infra/worker"
	"cinebox-recs/internal/observability/logging"
	"cinebox-recs/internal/recommender/cf"
	"cinebox-recs/internal/recommender/hybrid"
	"cinebox-recs/internal/resilience/retry"
	"cinebox-recs/internal/usecase/notify"
	"cinebox-recs/internal/usecase/recommend"
	"cinebox-recs/internal/usecase/similarity"
	"cinebox-recs/internal/usecase/train"
)

func main() {
	logger := initLogger()

	recCfg, err := config.LoadRecommendConfig()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	// Context for graceful shutdown of the auxiliary servers.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Worker configuration is fail-open: invalid values fall back to
	// defaults with a warning and a metric.
	workerMetrics := workerPkg.NewWorkerMetrics()
	workerConfig := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	logger.Info("worker configuration loaded",
		slog.String("similarity_schedule", workerConfig.SimilaritySchedule),
		slog.String("retrain_schedule", workerConfig.RetrainSchedule),
		slog.String("recompute_schedule", workerConfig.RecomputeSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Duration("job_timeout", workerConfig.JobTimeout),
		slog.Int("health_port", workerConfig.HealthPort))

	notifyService := setupNotifyService(logger)

	startMetricsServer(ctx, logger, notifyService)

	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	logger.Info("health check server started", slog.String("addr", healthAddr))

	jobs := setupJobs(logger, database, recCfg, notifyService)

	// Load the persisted model so the first recompute after a restart
	// uses collaborative scores instead of cold start branches. A load
	// failure is not fatal: jobs run against cold start branches until
	// the nightly retrain rebuilds the model.
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	if err := jobs.Trainer.LoadActiveModel(startupCtx); err != nil {
		logger.Warn("active model unavailable, jobs start without collaborative scores",
			slog.String("error", respond.SanitizeError(err)))
	}
	cancelStartup()

	startCronWorker(logger, jobs, workerConfig, workerMetrics, healthServer)
}

// batchJobs bundles the services behind the three scheduled jobs.
type batchJobs struct {
	Similarity  *similarity.Service
	Trainer     *train.Service
	Recommender *recommend.Service
}

// initLogger builds the process logger and installs it as the slog default.
func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// initDatabase opens the database connection and waits for migrations to complete.
func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()
	pingWithBackoff(logger, database)
	waitForMigrations(logger, database)
	return database
}

// pingWithBackoff waits for Postgres to accept connections. Connection
// refusals during container startup are retryable; anything else aborts.
func pingWithBackoff(logger *slog.Logger, database *sql.DB) {
	cfg := retry.Config{
		MaxAttempts:    10,
		InitialDelay:   1 * time.Second,
		MaxDelay:       10 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
	if err := retry.WithBackoff(context.Background(), cfg, database.Ping); err != nil {
		logger.Error("database unreachable", slog.Any("error", err))
		os.Exit(1)
	}
}

// waitForMigrations blocks until the API process has applied the schema.
// The worker never migrates on its own to avoid racing the API.
func waitForMigrations(logger *slog.Logger, db *sql.DB) {
	const probe = "SELECT 1 FROM movies LIMIT 1"
	for i := 0; i < 10; i++ {
		if _, err := db.Exec(probe); err == nil {
			return
		}
		logger.Info("waiting for migrations, retrying in 3s", slog.Int("attempt", i+1))
		time.Sleep(3 * time.Second)
	}
	logger.Error("migrations did not complete in time")
	os.Exit(1)
}

// setupNotifyService wires the operator report fan-out from environment
// configuration. With no channels enabled reports are silently dropped.
func setupNotifyService(logger *slog.Logger) notify.Service {
	var channels []notify.Channel

	slackConfig := loadSlackConfig(logger)
	if slackConfig.Enabled {
		channels = append(channels, notify.NewSlackChannel(slackConfig))
		logger.Info("Slack channel initialized", slog.String("status", "enabled"))
	} else {
		logger.Info("Slack channel disabled")
	}

	svc := notify.NewService(channels, 4)
	logger.Info("notification service initialized", slog.Int("channels", len(channels)))
	return svc
}

// loadSlackConfig loads Slack configuration from environment variables.
//
// Environment variables:
//   - SLACK_ENABLED: enables Slack reports (default: false)
//   - SLACK_WEBHOOK_URL: Slack webhook URL (required if enabled)
func loadSlackConfig(logger *slog.Logger) notifier.SlackConfig {
	enabled := os.Getenv("SLACK_ENABLED") == "true"
	webhookURL := os.Getenv("SLACK_WEBHOOK_URL")

	if !enabled {
		return notifier.SlackConfig{Enabled: false}
	}

	if webhookURL == "" {
		logger.Warn("Slack webhook URL is empty, disabling notifications")
		return notifier.SlackConfig{Enabled: false}
	}

	u, err := url.Parse(webhookURL)
	if err != nil {
		logger.Warn("Invalid Slack webhook URL format, disabling notifications", slog.Any("error", err))
		return notifier.SlackConfig{Enabled: false}
	}
	if u.Scheme != "https" {
		logger.Warn("Slack webhook URL must use HTTPS, disabling notifications")
		return notifier.SlackConfig{Enabled: false}
	}
	if u.Host != "hooks.slack.com" {
		logger.Warn("Invalid Slack webhook host, disabling notifications", slog.String("host", u.Host))
		return notifier.SlackConfig{Enabled: false}
	}
	if !strings.HasPrefix(u.Path, "/services/") {
		logger.Warn("Invalid Slack webhook path, disabling notifications", slog.String("path", u.Path))
		return notifier.SlackConfig{Enabled: false}
	}

	return notifier.SlackConfig{
		Enabled:    true,
		WebhookURL: webhookURL,
		Timeout:    30 * time.Second,
	}
}

// setupJobs wires the repositories and services behind the scheduled jobs.
func setupJobs(logger *slog.Logger, database *sql.DB, cfg *config.RecommendConfig, notifyService notify.Service) batchJobs {
	catalogRepo := pgRepo.NewCatalogRepo(database)
	interactionRepo := pgRepo.NewInteractionRepo(database, cfg.Scoring.SeedRatingThreshold)
	similarityRepo := pgRepo.NewSimilarityRepo(database)
	cacheRepo := pgRepo.NewRecommendationRepo(database)
	modelRepo := pgRepo.NewModelRepo(database)
	appStateRepo := pgRepo.NewAppStateRepo(database)

	state := recommend.NewModelState()
	scorer := hybrid.NewScorer(cfg.Scoring, similarityRepo, cfg.Feature.TopK)

	graph := &similarity.Service{
		Catalog:  catalogRepo,
		Edges:    similarityRepo,
		Cfg:      cfg.Feature,
		Notifier: notifyService,
		Logger:   logger,
	}

	trainer := &train.Service{
		Interactions: interactionRepo,
		Models:       modelRepo,
		AppState:     appStateRepo,
		State:        state,
		Trainer:      cf.NewTrainer(cfg.Training),
		Notifier:     notifyService,
		Logger:       logger,
	}

	recommender := &recommend.Service{
		Catalog:      catalogRepo,
		Interactions: interactionRepo,
		Cache:        cacheRepo,
		Similarities: similarityRepo,
		AppState:     appStateRepo,
		State:        state,
		Scorer:       scorer,
		Cfg:          *cfg,
		Logger:       logger,
	}

	return batchJobs{
		Similarity:  graph,
		Trainer:     trainer,
		Recommender: recommender,
	}
}

// startCronWorker schedules the three jobs and blocks forever.
func startCronWorker(logger *slog.Logger, jobs batchJobs, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics, healthServer *workerPkg.HealthServer) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	schedules := []struct {
		name string
		spec string
		run  func()
	}{
		{"similarity_rebuild", cfg.SimilaritySchedule, func() { runSimilarityJob(logger, jobs.Similarity, cfg, metrics) }},
		{"model_retrain", cfg.RetrainSchedule, func() { runRetrainJob(logger, jobs.Trainer, cfg, metrics) }},
		{"recompute_all", cfg.RecomputeSchedule, func() { runRecomputeJob(logger, jobs.Recommender, cfg, metrics) }},
	}
	for _, s := range schedules {
		if _, err := c.AddFunc(s.spec, s.run); err != nil {
			logger.Error("failed to add cron job", slog.String("job", s.name), slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("job scheduled", slog.String("job", s.name), slog.String("schedule", s.spec))
	}
	c.Start()

	healthServer.SetReady(true)
	logger.Info("worker started", slog.String("timezone", cfg.Timezone))
	select {}
}

// runSimilarityJob executes one similarity graph rebuild with timeout and metrics.
func runSimilarityJob(logger *slog.Logger, svc *similarity.Service, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics) {
	const job = "similarity_rebuild"
	startTime := time.Now()
	metrics.RecordJobRun(job, "started")
	logger.Info("similarity rebuild started")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.JobTimeout)
	defer cancel()

	report, err := svc.Rebuild(ctx)
	metrics.RecordJobDuration(job, time.Since(startTime).Seconds())
	if err != nil {
		logger.Error("similarity rebuild failed", slog.String("error", respond.SanitizeError(err)))
		metrics.RecordJobRun(job, "failure")
		return
	}

	metrics.RecordJobRun(job, "success")
	metrics.RecordLastSuccess(job)
	logger.Info("similarity rebuild completed",
		slog.Int("movies", report.Movies),
		slog.Int("vectorized", report.Vectorized),
		slog.Int("edges", report.Edges),
		slog.Duration("duration", report.Duration))
}

// runRetrainJob executes one model training run with timeout and metrics.
// An aborted run for insufficient signal volume counts as skipped, not failed.
func runRetrainJob(logger *slog.Logger, svc *train.Service, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics) {
	const job = "model_retrain"
	startTime := time.Now()
	metrics.RecordJobRun(job, "started")
	logger.Info("model retrain started")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.JobTimeout)
	defer cancel()

	artifact, err := svc.Retrain(ctx)
	metrics.RecordJobDuration(job, time.Since(startTime).Seconds())
	if errors.Is(err, train.ErrInsufficientSignals) {
		logger.Warn("model retrain skipped, keeping prior model", slog.Any("error", err))
		metrics.RecordJobRun(job, "skipped")
		return
	}
	if err != nil {
		logger.Error("model retrain failed", slog.String("error", respond.SanitizeError(err)))
		metrics.RecordJobRun(job, "failure")
		return
	}

	metrics.RecordJobRun(job, "success")
	metrics.RecordLastSuccess(job)
	logger.Info("model retrain completed",
		slog.String("version", artifact.Version),
		slog.Int("users", artifact.UserCount()),
		slog.Int("movies", artifact.ItemCount()),
		slog.Duration("duration", time.Since(startTime)))
}

// runRecomputeJob executes one full recommendation recompute with timeout and metrics.
func runRecomputeJob(logger *slog.Logger, svc *recommend.Service, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics) {
	const job = "recompute_all"
	startTime := time.Now()
	metrics.RecordJobRun(job, "started")
	logger.Info("recommendation recompute started")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.JobTimeout)
	defer cancel()

	report, err := svc.RecomputeAll(ctx)
	metrics.RecordJobDuration(job, time.Since(startTime).Seconds())
	if err != nil {
		logger.Error("recommendation recompute failed", slog.String("error", respond.SanitizeError(err)))
		metrics.RecordJobRun(job, "failure")
		return
	}

	metrics.RecordJobRun(job, "success")
	metrics.RecordLastSuccess(job)
	logger.Info("recommendation recompute completed",
		slog.Int("users", report.Users),
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", report.Failed),
		slog.Int64("expired", report.Expired),
		slog.Duration("duration", report.Duration))
}
