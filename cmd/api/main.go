// Command api serves the recommendation HTTP API: per-user recommendation
// lists, similar-movie lookups, trending titles, and the admin surface for
// model and cache management.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"cinebox-recs/internal/config"
	hhttp "cinebox-recs/internal/handler/http"
	"cinebox-recs/internal/handler/http/recommendation"
	"cinebox-recs/internal/handler/http/requestid"
	"cinebox-recs/internal/handler/http/respond"
	pgRepo "cinebox-recs/internal/infra/adapter/persistence/postgres"
	"cinebox-recs/internal/infra/db"
	"cinebox-recs/internal/infra/notifier"
	"cinebox-recs/internal/observability/logging"
	"cinebox-recs/internal/observability/tracing"
	"cinebox-recs/internal/recommender/cf"
	"cinebox-recs/internal/recommender/hybrid"
	"cinebox-recs/internal/resilience/circuitbreaker"
	"cinebox-recs/internal/resilience/retry"
	"cinebox-recs/internal/usecase/recommend"
	"cinebox-recs/internal/usecase/similarity"
	"cinebox-recs/internal/usecase/train"
)

func main() {
	logger := initLogger()
	validateJWTSecret(logger)

	cfg, err := config.LoadRecommendConfig()
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

	components := setupServices(logger, database, cfg)

	// Load the persisted active model before taking traffic so covered
	// users get collaborative scores from the first request. A load
	// failure disables only the collaborative branch: the server still
	// starts and serves cold start and popularity lists.
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	if err := components.Trainer.LoadActiveModel(startupCtx); err != nil {
		logger.Warn("active model unavailable, serving cold start branches only",
			slog.String("error", respond.SanitizeError(err)))
	}
	cancelStartup()

	handler := setupRoutes(logger, database, components)

	runServer(logger, handler)
}

// serverComponents bundles the wired use case services.
type serverComponents struct {
	Recommender *recommend.Service
	Trainer     *train.Service
	Similarity  *similarity.Service
}

// initLogger builds the process logger and installs it as the slog default.
func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// validateJWTSecret enforces secret strength requirements at startup.
func validateJWTSecret(logger *slog.Logger) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logger.Error("JWT_SECRET must be set")
		os.Exit(1)
	}
	// Minimum 32 characters (256 bits).
	if len(secret) < 32 {
		logger.Error("JWT_SECRET must be at least 32 characters (256 bits)")
		os.Exit(1)
	}
	// Reject common weak values.
	weakSecrets := []string{"secret", "password", "test", "admin", "default"}
	for _, weak := range weakSecrets {
		if secret == weak || secret == weak+"123" {
			logger.Error("JWT_SECRET must not be a common weak value", slog.String("weak_value", weak))
			os.Exit(1)
		}
	}
}

// initDatabase opens the database connection and runs migrations. Postgres
// may still be starting alongside this process, so the initial ping retries
// with backoff before migrating.
func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()

	pingCfg := retry.Config{
		MaxAttempts:    10,
		InitialDelay:   1 * time.Second,
		MaxDelay:       10 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
	if err := retry.WithBackoff(context.Background(), pingCfg, database.Ping); err != nil {
		logger.Error("database unreachable", slog.Any("error", err))
		os.Exit(1)
	}

	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

// getVersion returns the application version from the VERSION environment variable.
func getVersion() string {
	if v := os.Getenv("VERSION"); v != "" {
		return v
	}
	return "dev"
}

// setupServices wires the repositories, scorer, and use case services.
func setupServices(logger *slog.Logger, database *sql.DB, cfg *config.RecommendConfig) serverComponents {
	catalogRepo := pgRepo.NewCatalogRepo(database)
	interactionRepo := pgRepo.NewInteractionRepo(database, cfg.Scoring.SeedRatingThreshold)
	similarityRepo := pgRepo.NewSimilarityRepo(database)
	cacheRepo := pgRepo.NewRecommendationRepo(database)
	modelRepo := pgRepo.NewModelRepo(database)
	appStateRepo := pgRepo.NewAppStateRepo(database)

	state := recommend.NewModelState()
	scorer := hybrid.NewScorer(cfg.Scoring, similarityRepo, cfg.Feature.TopK)

	recommender := &recommend.Service{
		Catalog:      catalogRepo,
		Interactions: interactionRepo,
		Cache:        cacheRepo,
		Similarities: similarityRepo,
		AppState:     appStateRepo,
		State:        state,
		Scorer:       scorer,
		Breaker:      circuitbreaker.New(circuitbreaker.ScoringConfig()),
		Cfg:          *cfg,
		Logger:       logger,
	}

	// Operator reports go through the worker's fan-out; admin-triggered
	// runs in the API process stay silent.
	trainer := &train.Service{
		Interactions: interactionRepo,
		Models:       modelRepo,
		AppState:     appStateRepo,
		State:        state,
		Trainer:      cf.NewTrainer(cfg.Training),
		Notifier:     notifier.NewNoOpNotifier(),
		Logger:       logger,
	}

	graph := &similarity.Service{
		Catalog:  catalogRepo,
		Edges:    similarityRepo,
		Cfg:      cfg.Feature,
		Notifier: notifier.NewNoOpNotifier(),
		Logger:   logger,
	}

	return serverComponents{
		Recommender: recommender,
		Trainer:     trainer,
		Similarity:  graph,
	}
}

// setupRoutes builds the route table and applies the middleware chain.
func setupRoutes(logger *slog.Logger, database *sql.DB, components serverComponents) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /health", &hhttp.HealthHandler{
		DB:      database,
		Model:   components.Recommender,
		Version: getVersion(),
	})
	mux.Handle("GET /ready", &hhttp.ReadyHandler{DB: database})
	mux.Handle("GET /live", &hhttp.LiveHandler{})
	mux.Handle("GET /metrics", hhttp.MetricsHandler())

	recommendation.Register(mux, components.Recommender, logger)
	recommendation.RegisterAdmin(mux, components.Trainer, components.Similarity, components.Recommender, logger)

	return applyMiddleware(mux, logger)
}

// applyMiddleware wraps the handler with the standard middleware chain.
// The chain is applied in reverse so the listed order is the execution order.
func applyMiddleware(handler http.Handler, logger *slog.Logger) http.Handler {
	limiter := newRateLimiter()

	middlewares := []func(http.Handler) http.Handler{
		hhttp.MetricsMiddleware,
		tracing.Middleware,
		hhttp.LimitRequestBody(1 << 20), // 1MB
		hhttp.Logging(logger),
		hhttp.Recover(logger),
		hhttp.Timeout(30 * time.Second),
		limiter.Limit,
		requestid.Middleware,
	}

	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

// newRateLimiter builds the per-IP limiter, with environment overrides for
// load testing and small deployments.
func newRateLimiter() *hhttp.RateLimiter {
	limit := 10.0
	burst := 20
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			burst = parsed
		}
	}
	return hhttp.NewRateLimiter(limit, burst)
}

// runServer starts the HTTP server and blocks until a shutdown signal.
func runServer(logger *slog.Logger, handler http.Handler) {
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := &http.Server{
		Addr:              ":8080",
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return rootCtx },
	}

	go func() {
		logger.Info("server starting", slog.String("addr", server.Addr), slog.String("version", getVersion()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown initiated")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}
