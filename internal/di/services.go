// Package di provides dependency injection for service implementations.
package di

import (
	"time"

	"github.com/aristath/tradebook/internal/clientdata"
	"github.com/aristath/tradebook/internal/clients/quotes"
	"github.com/aristath/tradebook/internal/config"
	"github.com/aristath/tradebook/internal/modules/cloudsync"
	"github.com/aristath/tradebook/internal/modules/pnl"
	"github.com/aristath/tradebook/internal/modules/portfolio"
	"github.com/aristath/tradebook/internal/modules/profiles"
	"github.com/aristath/tradebook/internal/modules/snapshot"
	"github.com/aristath/tradebook/internal/modules/trading"
	"github.com/aristath/tradebook/internal/utils"
	"github.com/rs/zerolog"
)

const quoteRequestTimeout = 10 * time.Second

// InitializeServices creates all services in dependency order
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) {
	container.Locks = utils.NewOwnerLocks()

	if cfg.Quotes != nil && cfg.Quotes.ServiceURL != "" {
		container.Quotes = quotes.NewClient(
			cfg.Quotes.ServiceURL,
			quoteRequestTimeout,
			cfg.Quotes.CacheTTL,
			container.ClientDataRepo,
			log,
		)
		log.Info().Str("url", cfg.Quotes.ServiceURL).Msg("Quote source configured")
	} else {
		log.Info().Msg("No quote service configured, valuations use stored prices")
	}

	container.PortfolioService = portfolio.NewPortfolioService(
		container.TradeStore,
		container.PositionStore,
		container.Quotes,
		container.Locks,
		log,
	)

	// Every trade mutation recomputes the owner's positions
	container.TradingService = trading.NewTradingService(
		container.TradeStore,
		container.PortfolioService,
		container.Locks,
		log,
	)

	container.PnLService = pnl.NewPnLService(container.TradeStore, container.PositionStore, log)
	container.ProfileService = profiles.NewProfileService(container.ProfileStore, container.WatchlistRepo, container.Locks, log)
	container.SnapshotStore = snapshot.NewStore(container.TradebookDB.Conn(), log)

	var timeout time.Duration
	if cfg.Sync != nil {
		timeout = cfg.Sync.Timeout
	}
	container.Reconciler = cloudsync.NewReconciler(
		container.Remote,
		container.SnapshotStore,
		container.Locks,
		timeout,
		log,
	)

	container.ClientDataClean = clientdata.NewCleanup(container.ClientDataRepo, log)
}
