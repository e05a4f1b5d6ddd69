package clientdata

import (
	"context"

	"github.com/rs/zerolog"
)

// Cleanup removes expired cache entries. The server runs it at startup.
type Cleanup struct {
	repo *Repository
	log  zerolog.Logger
}

// NewCleanup creates a new client data cleanup.
func NewCleanup(repo *Repository, log zerolog.Logger) *Cleanup {
	return &Cleanup{
		repo: repo,
		log:  log.With().Str("job", "client_data_cleanup").Logger(),
	}
}

// Run deletes expired entries from all tables and returns the total removed
func (c *Cleanup) Run(ctx context.Context) (int64, error) {
	results, err := c.repo.DeleteAllExpired(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("Failed to delete expired client data")
		return 0, err
	}

	var total int64
	for table, count := range results {
		if count > 0 {
			c.log.Info().Str("table", table).Int64("deleted", count).Msg("Cleaned up expired cache entries")
			total += count
		}
	}
	return total, nil
}
