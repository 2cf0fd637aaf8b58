// Package main provides the lightweight entry point for the triage MCP server.
// This version needs no configuration file and no database server: feedback is
// kept in a local SQLite file.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/onco-triage-server/internal/config"
	"github.com/onco-triage-server/internal/feedback"
	"github.com/onco-triage-server/internal/intake"
	"github.com/onco-triage-server/internal/logging"
	"github.com/onco-triage-server/internal/mcp"
	"github.com/onco-triage-server/internal/service"
)

func main() {
	// Load lightweight configuration
	cfg := config.LoadLiteConfig()

	logger, err := logging.New(cfg.Logging())
	if err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	if err := cfg.EnsureDataDir(); err != nil {
		logger.WithError(err).Fatal("Failed to create data directory")
	}
	logger.WithField("data_dir", cfg.DataDir).Info("Starting triage MCP server (lite)")

	store, err := feedback.NewSQLiteStore(cfg.FeedbackDBPath())
	if err != nil {
		logger.WithError(err).Fatal("Failed to create feedback store")
	}

	server, err := mcp.NewServer(mcp.Options{
		Info:      mcp.ServerInfo{Name: "onco-triage-mcp-server-lite", Version: "v0.1.0"},
		Triage:    service.NewTriageService(logger, nil, nil),
		Parser:    intake.NewParser(intake.PolicyFromConfig(cfg.Triage())),
		Feedback:  store,
		ExportDir: cfg.ExportDir(),
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
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Error("MCP server failed")
		return
	}

	logger.Info("Triage MCP server (lite) stopped")
}
