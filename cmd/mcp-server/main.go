package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/onco-triage-server/internal/config"
	"github.com/onco-triage-server/internal/feedback"
	"github.com/onco-triage-server/internal/intake"
	"github.com/onco-triage-server/internal/logging"
	"github.com/onco-triage-server/internal/mcp"
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

	// stdout carries the protocol
	logCfg := cfg.Logging
	logCfg.Output = "stderr"
	logger, err := logging.New(logCfg)
	if err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	store, err := feedback.Open(cfg.Feedback, configManager.GetDatabaseURL(), logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open feedback store")
	}

	exportDir := filepath.Join(filepath.Dir(cfg.Feedback.SQLitePath), "exports")
	if err := os.MkdirAll(exportDir, 0755); err != nil {
		logger.WithError(err).Fatal("Failed to create export directory")
	}

	server, err := mcp.NewServer(mcp.Options{
		Info:      mcp.ServerInfo{Name: cfg.MCP.ServerName, Version: cfg.MCP.ServerVersion},
		Triage:    service.NewTriageService(logger, nil, nil),
		Parser:    intake.NewParser(intake.PolicyFromConfig(cfg.Triage)),
		Feedback:  store,
		ExportDir: exportDir,
		Logger:    logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to create MCP server")
	}
	defer server.Close()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down MCP server...")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Error("MCP server failed")
		return
	}

	logger.Info("Triage MCP server stopped")
}
