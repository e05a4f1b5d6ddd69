// Package snapshot loads and replaces an owner's whole dataset and renders it
// as a portable JSON document.
package snapshot

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aristath/tradebook/internal/database"
	"github.com/aristath/tradebook/internal/domain"
	"github.com/aristath/tradebook/internal/modules/portfolio"
	"github.com/aristath/tradebook/internal/modules/profiles"
	"github.com/aristath/tradebook/internal/modules/trading"
	"github.com/rs/zerolog"
)

// Counts reports how many records of each kind were written or removed
type Counts struct {
	Trades         int `json:"trades"`
	Positions      int `json:"positions"`
	BrokerProfiles int `json:"brokerProfiles"`
	Watchlist      int `json:"watchlist"`
}

// ReplaceOptions controls which record sets Replace touches
type ReplaceOptions struct {
	// KeepWatchlist leaves the local watchlist alone
	KeepWatchlist bool
}

// Store reads and writes an owner's full dataset in the local database.
// Replace and Insert run in one transaction, so a failure leaves the previous
// data in place.
type Store struct {
	db        *sql.DB
	trades    *trading.TradeRepository
	positions *portfolio.PositionRepository
	profiles  *profiles.ProfileRepository
	watchlist *profiles.WatchlistRepository
	log       zerolog.Logger
}

// NewStore creates a dataset store over the tradebook database
func NewStore(db *sql.DB, log zerolog.Logger) *Store {
	return &Store{
		db:        db,
		trades:    trading.NewTradeRepository(db, log),
		positions: portfolio.NewPositionRepository(db, log),
		profiles:  profiles.NewProfileRepository(db, log),
		watchlist: profiles.NewWatchlistRepository(db, log),
		log:       log.With().Str("repo", "snapshot").Logger(),
	}
}

// Load returns every record the owner has locally
func (s *Store) Load(ctx context.Context, ownerID string) (*domain.Dataset, error) {
	trades, err := s.trades.GetAll(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	positions, err := s.positions.GetAll(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	brokerProfiles, err := s.profiles.GetAll(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	watchlist, err := s.watchlist.GetAll(ctx, ownerID, "")
	if err != nil {
		return nil, err
	}

	return &domain.Dataset{
		Trades:         trades,
		Positions:      positions,
		BrokerProfiles: brokerProfiles,
		Watchlist:      watchlist,
	}, nil
}

// Replace clears the owner's records and writes data in their place, all in one
// transaction. Records are stored under ownerID with fresh ids; the new trade and
// broker profile ids are written back into data.
func (s *Store) Replace(ctx context.Context, ownerID string, data *domain.Dataset, opts ReplaceOptions) (*Counts, error) {
	var counts *Counts
	err := database.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.clear(ctx, tx, ownerID, opts); err != nil {
			return err
		}
		var err error
		counts, err = s.insert(ctx, tx, ownerID, data, opts)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to replace dataset: %w", err)
	}

	s.log.Info().
		Str("owner_id", ownerID).
		Int("trades", counts.Trades).
		Int("positions", counts.Positions).
		Int("broker_profiles", counts.BrokerProfiles).
		Msg("Dataset replaced")
	return counts, nil
}

// Insert adds data to the owner's existing records in one transaction
func (s *Store) Insert(ctx context.Context, ownerID string, data *domain.Dataset) (*Counts, error) {
	var counts *Counts
	err := database.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		counts, err = s.insert(ctx, tx, ownerID, data, ReplaceOptions{})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert dataset: %w", err)
	}
	return counts, nil
}

func (s *Store) clear(ctx context.Context, tx *sql.Tx, ownerID string, opts ReplaceOptions) error {
	if _, err := s.trades.WithQuerier(tx).DeleteAll(ctx, ownerID); err != nil {
		return err
	}
	if _, err := s.positions.WithQuerier(tx).DeleteAll(ctx, ownerID); err != nil {
		return err
	}
	if _, err := s.profiles.WithQuerier(tx).DeleteAll(ctx, ownerID); err != nil {
		return err
	}
	if !opts.KeepWatchlist {
		if _, err := s.watchlist.WithQuerier(tx).DeleteAll(ctx, ownerID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) insert(ctx context.Context, tx *sql.Tx, ownerID string, data *domain.Dataset, opts ReplaceOptions) (*Counts, error) {
	counts := &Counts{}
	if data == nil {
		return counts, nil
	}

	trades := s.trades.WithQuerier(tx)
	for i := range data.Trades {
		t := data.Trades[i]
		t.ID = 0
		t.OwnerID = ownerID
		t.Normalize()
		id, err := trades.Create(ctx, &t)
		if err != nil {
			return nil, err
		}
		data.Trades[i].ID = id
		counts.Trades++
	}

	positions := s.positions.WithQuerier(tx)
	for _, p := range data.Positions {
		p.ID = 0
		p.OwnerID = ownerID
		if err := positions.Upsert(ctx, &p); err != nil {
			return nil, err
		}
		counts.Positions++
	}

	brokerProfiles := s.profiles.WithQuerier(tx)
	for i := range data.BrokerProfiles {
		p := data.BrokerProfiles[i]
		p.ID = 0
		p.OwnerID = ownerID
		id, err := brokerProfiles.Create(ctx, &p)
		if err != nil {
			return nil, err
		}
		data.BrokerProfiles[i].ID = id
		counts.BrokerProfiles++
	}

	if !opts.KeepWatchlist {
		watchlist := s.watchlist.WithQuerier(tx)
		for _, w := range data.Watchlist {
			w.ID = 0
			w.OwnerID = ownerID
			if _, err := watchlist.Add(ctx, &w); err != nil {
				return nil, err
			}
			counts.Watchlist++
		}
	}

	return counts, nil
}
