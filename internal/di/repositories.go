// Package di provides dependency injection for repository implementations.
package di

import (
	"github.com/aristath/tradebook/internal/clientdata"
	"github.com/aristath/tradebook/internal/modules/cloudsync"
	"github.com/aristath/tradebook/internal/modules/portfolio"
	"github.com/aristath/tradebook/internal/modules/profiles"
	"github.com/aristath/tradebook/internal/modules/trading"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates the repositories and, when a remote is set,
// wraps the mirrored ones so every local write is replicated.
func InitializeRepositories(container *Container, mirror *cloudsync.Mirror, log zerolog.Logger) {
	conn := container.TradebookDB.Conn()

	container.TradeRepo = trading.NewTradeRepository(conn, log)
	container.PositionRepo = portfolio.NewPositionRepository(conn, log)
	container.ProfileRepo = profiles.NewProfileRepository(conn, log)
	container.WatchlistRepo = profiles.NewWatchlistRepository(conn, log)
	container.ClientDataRepo = clientdata.NewRepository(container.ClientDataDB.Conn())

	if mirror == nil {
		container.TradeStore = container.TradeRepo
		container.PositionStore = container.PositionRepo
		container.ProfileStore = container.ProfileRepo
		return
	}

	container.TradeStore = cloudsync.NewMirroredTrades(container.TradeRepo, mirror)
	container.PositionStore = cloudsync.NewMirroredPositions(container.PositionRepo, mirror)
	container.ProfileStore = cloudsync.NewMirroredProfiles(container.ProfileRepo, mirror)
}
