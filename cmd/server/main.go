// Package main is the entry point for the fxrisk currency exposure service.
// It tracks a trading company's FX exposure book, refreshes market rates,
// applies hedge policy and serves the risk analytics consumed by the
// treasury dashboard.
//
// The application follows clean architecture principles:
// - Domain layer is pure (no infrastructure dependencies)
// - Dependency injection via DI container
// - Repository pattern for data access
// - Service layer for business logic
// - HTTP handlers for API endpoints
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/fxrisk/internal/config"
	"github.com/aristath/fxrisk/internal/di"
	"github.com/aristath/fxrisk/internal/modules/exposures"
	"github.com/aristath/fxrisk/internal/reliability"
	"github.com/aristath/fxrisk/internal/server"
	"github.com/aristath/fxrisk/pkg/logger"
)

func main() {
	// Load configuration first to get log level.
	// Configuration comes from environment variables (.env file) and is
	// overridden later from the settings database (API keys, R2 credentials).
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting fxrisk")

	// Check for a pending restore BEFORE any database connection is opened.
	// Restores are staged through the API and swapped in here, on boot, so a
	// half-written file can never be handed to a live connection.
	restoreSvc := reliability.NewRestoreService(nil, cfg.DataDir, log)
	hasPendingRestore, err := restoreSvc.CheckPendingRestore()
	if err != nil {
		log.Error().Err(err).Msg("Failed to check for pending restore")
	}

	if hasPendingRestore {
		log.Warn().Msg("Pending restore detected, executing staged restore...")
		if err := restoreSvc.ExecuteStagedRestore(); err != nil {
			log.Fatal().Err(err).Msg("Failed to execute staged restore")
		}
		log.Info().Msg("Restore completed successfully, proceeding with normal startup")
	}

	// Wire all dependencies using the DI container: databases first, then
	// repositories, services and scheduled jobs.
	container, jobs, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	// A fresh install gets a demo exposure book so the dashboard has
	// something to show. No-op once real exposures exist.
	if cfg.SeedDemoData {
		if err := exposures.SeedDemoData(container.ExposuresRepo, log); err != nil {
			log.Warn().Err(err).Msg("Failed to seed demo data")
		}
	}

	// Initialize HTTP server; pass the container so handlers share services
	srv := server.New(server.Config{
		Port:      cfg.Port,
		Log:       log,
		Config:    cfg,
		DevMode:   cfg.DevMode,
		Container: container,
	})
	srv.SetJobs(jobs.All()...)

	// Start server in goroutine so background services start concurrently
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Start the live rate stream when configured. Connection failures are
	// retried in the background, the REST client covers the gap.
	if container.RateStream != nil {
		if err := container.RateStream.Start(); err != nil {
			log.Warn().Err(err).Msg("Rate stream connection failed, retrying in background")
		}
	}

	// Start the scheduler and prime the rate cache so the first dashboard
	// load does not wait out the refresh interval.
	container.Scheduler.Start()
	go func() {
		if err := container.Scheduler.RunNow(jobs.RateRefresh); err != nil {
			log.Warn().Err(err).Msg("Initial rate refresh failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Stop the scheduler first so no job runs against closing databases
	container.Scheduler.Stop()

	// The HTTP server gets up to 10 seconds to finish in-flight requests
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
