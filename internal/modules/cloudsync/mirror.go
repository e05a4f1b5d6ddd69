package cloudsync

import (
	"context"
	"time"

	"github.com/aristath/tradebook/internal/domain"
	"github.com/rs/zerolog"
)

// Mirror performs best-effort writes to the remote store. A failed mirror write
// is logged and swallowed; the local write it follows is never rolled back.
type Mirror struct {
	remote  domain.RemoteStore
	timeout time.Duration
	now     func() time.Time
	log     zerolog.Logger
}

// NewMirror creates a mirror over remote with a per-call timeout
func NewMirror(remote domain.RemoteStore, timeout time.Duration, log zerolog.Logger) *Mirror {
	return &Mirror{
		remote:  remote,
		timeout: timeout,
		now:     time.Now,
		log:     log.With().Str("component", "mirror").Logger(),
	}
}

func (m *Mirror) write(ctx context.Context, op, table, ownerID string, fn func(ctx context.Context) error) {
	callCtx := ctx
	if m.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	if err := fn(callCtx); err != nil {
		m.log.Warn().
			Err(err).
			Str("op", op).
			Str("table", table).
			Str("owner_id", ownerID).
			Msg("Mirror write failed, local data kept")
	}
}

// MirroredTrades decorates a local trade store with mirrored writes
type MirroredTrades struct {
	domain.TradeStore
	mirror *Mirror
}

var _ domain.TradeStore = (*MirroredTrades)(nil)

// NewMirroredTrades wraps local
func NewMirroredTrades(local domain.TradeStore, mirror *Mirror) *MirroredTrades {
	return &MirroredTrades{TradeStore: local, mirror: mirror}
}

// Create stores the trade locally, then inserts it remotely
func (s *MirroredTrades) Create(ctx context.Context, trade *domain.Trade) (int64, error) {
	id, err := s.TradeStore.Create(ctx, trade)
	if err != nil {
		return 0, err
	}
	s.mirror.write(ctx, "insert", TableTrades, trade.OwnerID, func(ctx context.Context) error {
		return s.mirror.remote.Insert(ctx, TableTrades, []domain.Row{TradeToRow(trade, s.mirror.now())})
	})
	return id, nil
}

// Update stores the edit locally, then updates the remote copy
func (s *MirroredTrades) Update(ctx context.Context, trade *domain.Trade) error {
	if err := s.TradeStore.Update(ctx, trade); err != nil {
		return err
	}
	s.mirror.write(ctx, "update", TableTrades, trade.OwnerID, func(ctx context.Context) error {
		return s.mirror.remote.Update(ctx, TableTrades, recordFilter(trade.OwnerID, trade.ID), TradeToRow(trade, s.mirror.now()))
	})
	return nil
}

// Delete removes the trade locally, then remotely
func (s *MirroredTrades) Delete(ctx context.Context, ownerID string, id int64) error {
	if err := s.TradeStore.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	s.mirror.write(ctx, "delete", TableTrades, ownerID, func(ctx context.Context) error {
		return s.mirror.remote.Delete(ctx, TableTrades, recordFilter(ownerID, id))
	})
	return nil
}

// MirroredPositions decorates a local position store with mirrored writes
type MirroredPositions struct {
	domain.PositionStore
	mirror *Mirror
}

var _ domain.PositionStore = (*MirroredPositions)(nil)

// NewMirroredPositions wraps local
func NewMirroredPositions(local domain.PositionStore, mirror *Mirror) *MirroredPositions {
	return &MirroredPositions{PositionStore: local, mirror: mirror}
}

// Upsert stores the position locally, then upserts it remotely on (owner, symbol, exchange)
func (s *MirroredPositions) Upsert(ctx context.Context, position *domain.Position) error {
	if err := s.PositionStore.Upsert(ctx, position); err != nil {
		return err
	}
	s.mirror.write(ctx, "upsert", TablePositions, position.OwnerID, func(ctx context.Context) error {
		row := PositionToRow(position, s.mirror.now())
		return s.mirror.remote.Upsert(ctx, TablePositions, []domain.Row{row}, PositionConflictColumns)
	})
	return nil
}

// Delete removes the position locally, then remotely
func (s *MirroredPositions) Delete(ctx context.Context, position domain.Position) error {
	if err := s.PositionStore.Delete(ctx, position); err != nil {
		return err
	}
	s.mirror.write(ctx, "delete", TablePositions, position.OwnerID, func(ctx context.Context) error {
		return s.mirror.remote.Delete(ctx, TablePositions, domain.Filter{
			ColOwner:   position.OwnerID,
			"symbol":   position.Symbol,
			"exchange": position.Exchange,
		})
	})
	return nil
}

// MirroredProfiles decorates a local broker profile store with mirrored writes
type MirroredProfiles struct {
	domain.ProfileStore
	mirror *Mirror
}

var _ domain.ProfileStore = (*MirroredProfiles)(nil)

// NewMirroredProfiles wraps local
func NewMirroredProfiles(local domain.ProfileStore, mirror *Mirror) *MirroredProfiles {
	return &MirroredProfiles{ProfileStore: local, mirror: mirror}
}

// Create stores the profile locally, then inserts it remotely
func (s *MirroredProfiles) Create(ctx context.Context, profile *domain.BrokerProfile) (int64, error) {
	id, err := s.ProfileStore.Create(ctx, profile)
	if err != nil {
		return 0, err
	}
	s.mirror.write(ctx, "insert", TableBrokerProfiles, profile.OwnerID, func(ctx context.Context) error {
		return s.mirror.remote.Insert(ctx, TableBrokerProfiles, []domain.Row{ProfileToRow(profile, s.mirror.now())})
	})
	return id, nil
}

// Update stores the edit locally, then updates the remote copy
func (s *MirroredProfiles) Update(ctx context.Context, profile *domain.BrokerProfile) error {
	if err := s.ProfileStore.Update(ctx, profile); err != nil {
		return err
	}
	s.mirror.write(ctx, "update", TableBrokerProfiles, profile.OwnerID, func(ctx context.Context) error {
		return s.mirror.remote.Update(ctx, TableBrokerProfiles, recordFilter(profile.OwnerID, profile.ID), ProfileToRow(profile, s.mirror.now()))
	})
	return nil
}

// Delete removes the profile locally, then remotely
func (s *MirroredProfiles) Delete(ctx context.Context, ownerID string, id int64) error {
	if err := s.ProfileStore.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	s.mirror.write(ctx, "delete", TableBrokerProfiles, ownerID, func(ctx context.Context) error {
		return s.mirror.remote.Delete(ctx, TableBrokerProfiles, recordFilter(ownerID, id))
	})
	return nil
}
