// Package main is the entry point for the tradebook service.
// The service keeps a per-owner trade journal, derives weighted-average
// positions from it, reports FIFO realized P&L and values holdings against
// broker quotes. An optional remote mirror receives every local write and can
// be reconciled on demand.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/tradebook/internal/config"
	"github.com/aristath/tradebook/internal/di"
	"github.com/aristath/tradebook/internal/server"
	"github.com/aristath/tradebook/pkg/logger"
)

// main orchestrates startup:
// 1. Loads configuration from environment variables (.env supported)
// 2. Initializes logging
// 3. Wires all dependencies via the DI container
// 4. Purges expired quote cache entries
// 5. Starts the HTTP server
// 6. Waits for a shutdown signal and shuts down gracefully
//
// Two databases live in the data directory:
// - tradebook.db: trades, positions, broker profiles, watchlists
// - client_data.db: quote cache
func main() {
	// Load configuration first to get log level
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
		Pretty: cfg.LogPretty,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting tradebook")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Wire all dependencies using DI container
	container, err := di.Wire(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}

	// Both databases must be closed so WAL checkpoints are written
	defer container.Close()

	// Quote cache entries past their expiry are never served; drop them at startup
	if removed, err := container.ClientDataClean.Run(ctx); err != nil {
		log.Warn().Err(err).Msg("Quote cache cleanup failed")
	} else if removed > 0 {
		log.Info().Int64("removed", removed).Msg("Expired quote cache entries removed")
	}

	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Container: container,
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().
		Int("port", cfg.Port).
		Bool("sync_enabled", cfg.Sync.Enabled()).
		Bool("quotes_enabled", container.Quotes != nil).
		Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	cancel()

	// In-flight requests get up to 10 seconds to finish
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
