package di

import (
	"context"
	"fmt"

	"github.com/aristath/tradebook/internal/clients/remote/postgrest"
	"github.com/aristath/tradebook/internal/clients/remote/s3table"
	"github.com/aristath/tradebook/internal/config"
	"github.com/aristath/tradebook/internal/domain"
	"github.com/rs/zerolog"
)

// NewRemoteStore builds the configured remote mirror. Returns nil, nil when
// sync is disabled.
func NewRemoteStore(ctx context.Context, cfg *config.SyncConfig, log zerolog.Logger) (domain.RemoteStore, error) {
	if !cfg.Enabled() {
		log.Info().Msg("Cloud sync disabled (SYNC_BACKEND not set)")
		return nil, nil
	}

	switch cfg.Backend {
	case config.SyncBackendPostgREST:
		log.Info().Str("url", cfg.RemoteURL).Msg("Cloud sync enabled (postgrest)")
		return postgrest.NewClient(cfg.RemoteURL, cfg.RemoteAPIKey, cfg.Timeout, log), nil

	case config.SyncBackendS3:
		store, err := s3table.New(ctx, s3table.Config{
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.S3Prefix,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 remote store: %w", err)
		}
		log.Info().Str("bucket", cfg.S3Bucket).Msg("Cloud sync enabled (s3)")
		return store, nil
	}

	return nil, fmt.Errorf("unknown sync backend %q", cfg.Backend)
}
