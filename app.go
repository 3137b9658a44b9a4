package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/belonio2793/backlinkoo-automation/internal/api"
	"github.com/belonio2793/backlinkoo-automation/internal/config"
	"github.com/belonio2793/backlinkoo-automation/internal/content"
	"github.com/belonio2793/backlinkoo-automation/internal/database"
	"github.com/belonio2793/backlinkoo-automation/internal/dedup"
	"github.com/belonio2793/backlinkoo-automation/internal/logger"
	"github.com/belonio2793/backlinkoo-automation/internal/metrics"
	"github.com/belonio2793/backlinkoo-automation/internal/orchestrator"
	"github.com/belonio2793/backlinkoo-automation/internal/platform"
	"github.com/belonio2793/backlinkoo-automation/internal/publishers"
	autoredis "github.com/belonio2793/backlinkoo-automation/internal/redis"
	"github.com/belonio2793/backlinkoo-automation/internal/worker"
)

const (
	defaultIdleTimeout = 60 * time.Second
	shutdownTimeout    = 30 * time.Second
	triggerGuardTTL    = 30 * time.Second
)

// application holds the shared dependencies behind every command.
type application struct {
	cfg         *config.Config
	log         logger.Logger
	db          *sqlx.DB
	redisClient *redis.Client

	campaigns     *database.CampaignRepository
	links         *database.LinkRepository
	activity      *database.ActivityRepository
	continuations *database.ContinuationRepository

	registry  *platform.Registry
	telemetry *metrics.Provider
	engine    *orchestrator.Engine
	worker    *worker.ContinuationWorker
	router    *api.Router
}

// buildApplication wires the full dependency graph from configuration.
// Redis is optional: without it the trigger guard and dashboard stats are
// disabled, the ledger constraint still guarantees idempotency.
func buildApplication(configPath string) (*application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	appLog, err := logger.NewLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	appLog.Info("database connection established",
		logger.String("host", cfg.Database.Host),
		logger.String("dbname", cfg.Database.DBName))

	redisClient, err := autoredis.NewClient(cfg.Redis.Addr, cfg.Redis.Password)
	if err != nil {
		appLog.Warn("redis unavailable, trigger guard and stats disabled",
			logger.String("addr", cfg.Redis.Addr),
			logger.Error(err))
		redisClient = nil
	}

	registry := platform.NewDefaultRegistry()
	if len(cfg.Automation.EnabledPlatforms) > 0 {
		registry = registry.WithEnabled(cfg.Automation.EnabledPlatforms)
	}

	var generator content.Generator = content.NewTemplateGenerator()
	if cfg.OpenAI.APIKey != "" {
		generator = content.NewOpenAIGenerator(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.WordCount, appLog)
		appLog.Info("content generation via OpenAI",
			logger.String("model", cfg.OpenAI.Model),
			logger.Int("word_count", cfg.OpenAI.WordCount))
	} else {
		appLog.Info("no OpenAI key configured, using template content")
	}

	campaigns := database.NewCampaignRepository(db)
	links := database.NewLinkRepository(db)
	activity := database.NewActivityRepository(db)
	continuations := database.NewContinuationRepository(db)

	telemetry := metrics.NewProvider()

	enabledIDs := make([]string, 0)
	for _, d := range registry.Enabled() {
		enabledIDs = append(enabledIDs, d.ID)
	}

	engineDeps := orchestrator.Deps{
		Registry:  registry,
		Campaigns: campaigns,
		Links:     links,
		Activity:  activity,
		Queue:     continuations,
		Generator: generator,
		Publisher: publishers.NewSet(registry, cfg.Automation.PublishRatePerMinute, appLog),
		Telemetry: telemetry,
		Delay:     cfg.Automation.ContinuationDelay,
		Logger:    appLog,
	}

	var tracker *metrics.Tracker
	if redisClient != nil {
		engineDeps.Guard = dedup.NewGuard(redisClient, triggerGuardTTL, appLog)
		tracker = metrics.NewTracker(redisClient, enabledIDs, appLog)
		engineDeps.Stats = tracker
	}

	engine := orchestrator.NewEngine(engineDeps)

	contWorker := worker.NewContinuationWorker(continuations, engine, telemetry, worker.Config{
		PollInterval: cfg.Worker.PollInterval,
		BatchSize:    cfg.Worker.BatchSize,
		StepTimeout:  cfg.Automation.PublishTimeout,
	}, appLog)

	routerDeps := api.Deps{
		Campaigns:      campaigns,
		Links:          links,
		Activity:       activity,
		Engine:         engine,
		Queue:          contWorker,
		Registry:       registry,
		RedisClient:    redisClient,
		MetricsHandler: telemetry.Handler(),
		Config:         cfg,
		Logger:         appLog,
	}
	if tracker != nil {
		routerDeps.Stats = tracker
	}

	return &application{
		cfg:           cfg,
		log:           appLog,
		db:            db,
		redisClient:   redisClient,
		campaigns:     campaigns,
		links:         links,
		activity:      activity,
		continuations: continuations,
		registry:      registry,
		telemetry:     telemetry,
		engine:        engine,
		worker:        contWorker,
		router:        api.NewRouter(routerDeps),
	}, nil
}

// StartAPIServer starts the HTTP server and returns a stop function that
// drains in-flight requests.
func (a *application) StartAPIServer() (func(), error) {
	server := &http.Server{
		Addr:         a.cfg.Server.Address,
		Handler:      a.router.SetupRoutes(),
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}

	go func() {
		a.log.Info("API server listening", logger.String("address", a.cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.log.Error("server forced to shutdown", logger.Error(err))
		}
	}, nil
}

// StartWorker starts the continuation worker and returns its stop function.
func (a *application) StartWorker() func() {
	a.worker.Start(context.Background())
	return a.worker.Stop
}

// Close releases the shared connections.
func (a *application) Close() {
	if err := database.Close(a.db); err != nil {
		a.log.Error("failed to close database", logger.Error(err))
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Error("failed to close redis client", logger.Error(err))
		}
	}
	_ = a.log.Sync()
}
