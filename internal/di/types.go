/**
 * Package di provides dependency injection type definitions.
 *
 * This package defines the Container type which holds all application dependencies.
 * The Container is the single source of truth for all service instances and is
 * passed to handlers and CLI commands for access to services.
 */
package di

import (
	"github.com/aristath/tradebook/internal/clientdata"
	"github.com/aristath/tradebook/internal/database"
	"github.com/aristath/tradebook/internal/domain"
	"github.com/aristath/tradebook/internal/modules/cloudsync"
	"github.com/aristath/tradebook/internal/modules/pnl"
	"github.com/aristath/tradebook/internal/modules/portfolio"
	"github.com/aristath/tradebook/internal/modules/profiles"
	"github.com/aristath/tradebook/internal/modules/snapshot"
	"github.com/aristath/tradebook/internal/modules/trading"
	"github.com/aristath/tradebook/internal/utils"
)

// Container holds all application dependencies
type Container struct {
	// Databases
	TradebookDB  *database.DB // trades, positions, broker profiles, watchlist
	ClientDataDB *database.DB // quote cache

	// Remote mirror (nil when sync is disabled)
	Remote domain.RemoteStore

	// Repositories
	TradeRepo      *trading.TradeRepository
	PositionRepo   *portfolio.PositionRepository
	ProfileRepo    *profiles.ProfileRepository
	WatchlistRepo  *profiles.WatchlistRepository
	ClientDataRepo *clientdata.Repository

	// Stores handed to services; mirrored when a remote is configured
	TradeStore    domain.TradeStore
	PositionStore domain.PositionStore
	ProfileStore  domain.ProfileStore

	// Quote source (nil when no quote service is configured)
	Quotes domain.QuoteSource

	// Services
	Locks            *utils.OwnerLocks
	TradingService   *trading.TradingService
	PortfolioService *portfolio.PortfolioService
	PnLService       *pnl.PnLService
	ProfileService   *profiles.ProfileService
	SnapshotStore    *snapshot.Store
	Reconciler       *cloudsync.Reconciler
	ClientDataClean  *clientdata.Cleanup
}

// Close releases both database connections
func (c *Container) Close() error {
	var firstErr error
	for _, db := range []*database.DB{c.TradebookDB, c.ClientDataDB} {
		if db == nil {
			continue
		}
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
