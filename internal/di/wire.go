// Package di provides dependency injection wiring and initialization.
package di

import (
	"context"
	"fmt"

	"github.com/aristath/tradebook/internal/config"
	"github.com/aristath/tradebook/internal/modules/cloudsync"
	"github.com/rs/zerolog"
)

// Wire initializes all dependencies and returns a fully configured container
// This is the main entry point for dependency injection
// Order of operations:
// 1. Initialize databases
// 2. Build the remote mirror (optional)
// 3. Initialize repositories
// 4. Initialize services
func Wire(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Container, error) {
	// Step 1: Initialize databases
	container, err := InitializeDatabases(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize databases: %w", err)
	}

	// Step 2: Remote mirror
	remote, err := NewRemoteStore(ctx, cfg.Sync, log)
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize remote store: %w", err)
	}
	container.Remote = remote

	var mirror *cloudsync.Mirror
	if remote != nil {
		mirror = cloudsync.NewMirror(remote, cfg.Sync.Timeout, log)
	}

	// Step 3: Initialize repositories
	InitializeRepositories(container, mirror, log)

	// Step 4: Initialize services
	InitializeServices(container, cfg, log)

	log.Info().Msg("Dependency injection wiring completed successfully")

	return container, nil
}
