// Package portfolio derives positions from the trade history and values them
// against external quotes.
package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/tradebook/internal/domain"
	"github.com/aristath/tradebook/internal/utils"
	"github.com/rs/zerolog"
)

// TradeReader is the part of the trade store the ledger needs
type TradeReader interface {
	GetAll(ctx context.Context, ownerID string) ([]domain.Trade, error)
}

// RecalculationResult summarises one ledger recompute
type RecalculationResult struct {
	Positions []domain.Position `json:"positions"`
	Upserted  int               `json:"upserted"`
	Deleted   int               `json:"deleted"`
}

// PortfolioService orchestrates position recompute and valuation.
//
// Positions are always a function of the full trade history: every recompute
// folds all of the owner's trades, upserts the open positions and deletes
// positions for symbols that are closed or no longer traded.
type PortfolioService struct {
	trades    TradeReader
	positions domain.PositionStore
	quotes    domain.QuoteSource
	locks     *utils.OwnerLocks
	now       func() time.Time
	log       zerolog.Logger
}

// NewPortfolioService creates a new portfolio service. quotes may be nil.
func NewPortfolioService(
	trades TradeReader,
	positions domain.PositionStore,
	quotes domain.QuoteSource,
	locks *utils.OwnerLocks,
	log zerolog.Logger,
) *PortfolioService {
	return &PortfolioService{
		trades:    trades,
		positions: positions,
		quotes:    quotes,
		locks:     locks,
		now:       func() time.Time { return time.Now().UTC() },
		log:       log.With().Str("service", "portfolio").Logger(),
	}
}

// Recalculate rebuilds the owner's positions under the owner lock
func (s *PortfolioService) Recalculate(ctx context.Context, ownerID string) (*RecalculationResult, error) {
	unlock := s.locks.Lock(ownerID)
	defer unlock()
	return s.recalculate(ctx, ownerID)
}

// RecalculatePositions rebuilds the owner's positions. The caller holds the owner lock.
func (s *PortfolioService) RecalculatePositions(ctx context.Context, ownerID string) error {
	_, err := s.recalculate(ctx, ownerID)
	return err
}

func (s *PortfolioService) recalculate(ctx context.Context, ownerID string) (*RecalculationResult, error) {
	trades, err := s.trades.GetAll(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load trades: %w", err)
	}

	existing, err := s.positions.GetAll(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load positions: %w", err)
	}

	ledger := FoldTrades(ownerID, trades, s.now())
	result := &RecalculationResult{Positions: ledger.Open}

	stored := make(map[string]domain.Position, len(existing))
	for _, pos := range existing {
		stored[pos.Symbol] = pos
	}

	open := make(map[string]bool, len(ledger.Open))
	for i := range ledger.Open {
		pos := &ledger.Open[i]
		// The exchange is part of the remote key; drop the old row before it moves.
		if prev, ok := stored[pos.Symbol]; ok && prev.Exchange != pos.Exchange {
			if err := s.positions.Delete(ctx, prev); err != nil {
				return nil, fmt.Errorf("failed to move position %s to %s: %w", pos.Symbol, pos.Exchange, err)
			}
		}
		if err := s.positions.Upsert(ctx, pos); err != nil {
			return nil, fmt.Errorf("failed to store position %s: %w", pos.Symbol, err)
		}
		open[pos.Symbol] = true
		result.Upserted++
	}

	for _, pos := range existing {
		if open[pos.Symbol] {
			continue
		}
		if err := s.positions.Delete(ctx, pos); err != nil {
			return nil, fmt.Errorf("failed to delete position %s: %w", pos.Symbol, err)
		}
		result.Deleted++
	}

	s.log.Info().
		Str("owner_id", ownerID).
		Int("trades", len(trades)).
		Int("open", result.Upserted).
		Int("deleted", result.Deleted).
		Msg("Positions recalculated")

	return result, nil
}

// GetPositions returns the owner's stored positions
func (s *PortfolioService) GetPositions(ctx context.Context, ownerID string) ([]domain.Position, error) {
	return s.positions.GetAll(ctx, ownerID)
}

// Valuation prices the owner's positions against current quotes without storing anything
func (s *PortfolioService) Valuation(ctx context.Context, ownerID string) (*Valuation, error) {
	positions, err := s.positions.GetAll(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load positions: %w", err)
	}

	v := Value(positions, s.fetchQuotes(ctx, ownerID, positions))
	return &v, nil
}

// RefreshPrices stores the latest quoted price and unrealized figures on each
// position that has a quote, then returns the resulting valuation.
func (s *PortfolioService) RefreshPrices(ctx context.Context, ownerID string) (*Valuation, error) {
	unlock := s.locks.Lock(ownerID)
	defer unlock()

	positions, err := s.positions.GetAll(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load positions: %w", err)
	}

	quotes := s.fetchQuotes(ctx, ownerID, positions)
	v := Value(positions, quotes)

	updated := 0
	for i := range v.Positions {
		vp := &v.Positions[i]
		if !vp.Quoted {
			continue
		}
		vp.LastUpdated = s.now()
		if err := s.positions.Upsert(ctx, &vp.Position); err != nil {
			return nil, fmt.Errorf("failed to store price for %s: %w", vp.Symbol, err)
		}
		updated++
	}

	s.log.Info().
		Str("owner_id", ownerID).
		Int("positions", len(positions)).
		Int("updated", updated).
		Msg("Prices refreshed")

	return &v, nil
}

// fetchQuotes asks the quote source for every position's instrument.
// A failing or missing source yields no quotes.
func (s *PortfolioService) fetchQuotes(ctx context.Context, ownerID string, positions []domain.Position) map[string]float64 {
	if s.quotes == nil || len(positions) == 0 {
		return nil
	}

	instruments := make([]string, 0, len(positions))
	for i := range positions {
		instruments = append(instruments, positions[i].Instrument())
	}

	quotes, err := s.quotes.GetQuotes(ctx, ownerID, instruments)
	if err != nil {
		s.log.Warn().Err(err).Str("owner_id", ownerID).Msg("Quote source unavailable, valuing at average cost")
		return nil
	}
	return quotes
}
