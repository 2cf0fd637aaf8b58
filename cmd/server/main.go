package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/onco-triage-server/internal/api"
	"github.com/onco-triage-server/internal/config"
	"github.com/onco-triage-server/internal/database"
	"github.com/onco-triage-server/internal/domain"
	"github.com/onco-triage-server/internal/feedback"
	"github.com/onco-triage-server/internal/health"
	"github.com/onco-triage-server/internal/intake"
	"github.com/onco-triage-server/internal/logging"
	"github.com/onco-triage-server/internal/middleware"
	"github.com/onco-triage-server/internal/repository"
	"github.com/onco-triage-server/internal/service"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	if err := run(ctx, configManager, logger); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}

func run(ctx context.Context, configManager *config.Manager, logger *logrus.Logger) error {
	cfg := configManager.GetConfig()
	checker := health.NewChecker(logger, cfg.MCP.ServerVersion, 2*time.Second)

	var recorder domain.DispositionRecorder
	var stats api.DispositionStats
	if cfg.Database.Enabled {
		db, err := database.NewConnection(ctx, database.ConfigFromDomain(cfg.Database), logger)
		if err != nil {
			return err
		}
		defer db.Close()

		if cfg.Database.MigrateOnStart {
			if err := migrate(ctx, configManager.GetDatabaseURL(), logger); err != nil {
				return err
			}
		}

		tally := repository.NewDispositionTallyRepository(db.Pool, logger)
		recorder, stats = tally, tally
		checker.RegisterCheck(health.NewDatabaseHealthCheck(db))
	}

	store, err := feedback.Open(cfg.Feedback, configManager.GetDatabaseURL(), logger)
	if err != nil {
		return err
	}
	defer store.Close()
	checker.RegisterCheck(health.NewPingCheck("feedback_store", store.Ping))

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		if limiter, err = middleware.NewRateLimiter(cfg.RateLimit, logger); err != nil {
			return err
		}
	}

	server := api.NewServer(configManager, api.Options{
		Logger:      logger,
		Triage:      service.NewTriageService(logger, nil, recorder),
		Parser:      intake.NewParser(intake.PolicyFromConfig(cfg.Triage)),
		Feedback:    store,
		Stats:       stats,
		Health:      checker,
		RateLimiter: limiter,
	})

	logger.WithFields(logrus.Fields{
		"host":        cfg.Server.Host,
		"port":        cfg.Server.Port,
		"environment": cfg.Environment,
		"database":    cfg.Database.Enabled,
	}).Info("Starting oncology triage server")

	return server.Start(ctx)
}

func migrate(ctx context.Context, databaseURL string, logger *logrus.Logger) error {
	runner, err := database.NewMigrationRunner(databaseURL, logger)
	if err != nil {
		return err
	}
	defer runner.Close()
	return runner.Up(ctx)
}
