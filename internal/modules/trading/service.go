// Package trading owns the trade record store and the trade mutation flow:
// validate, persist, then recompute the owner's positions.
package trading

import (
	"context"
	"fmt"

	"github.com/aristath/tradebook/internal/domain"
	"github.com/aristath/tradebook/internal/utils"
	"github.com/rs/zerolog"
)

// PositionRecalculator rebuilds an owner's positions from the full trade history.
// The caller holds the owner lock.
type PositionRecalculator interface {
	RecalculatePositions(ctx context.Context, ownerID string) error
}

// TradeUpdate carries the fields of an explicit trade edit; nil fields are unchanged.
type TradeUpdate struct {
	Symbol    *string      `json:"symbol,omitempty"`
	Exchange  *string      `json:"exchange,omitempty"`
	Side      *domain.Side `json:"type,omitempty"`
	Quantity  *int64       `json:"quantity,omitempty"`
	Price     *float64     `json:"price,omitempty"`
	Brokerage *float64     `json:"brokerage,omitempty"`
	Taxes     *float64     `json:"taxes,omitempty"`
	TradeDate *string      `json:"tradeDate,omitempty"`
	TradeTime *string      `json:"tradeTime,omitempty"`
	Notes     *string      `json:"notes,omitempty"`
}

// apply merges the update into the trade
func (u TradeUpdate) apply(t *domain.Trade) {
	if u.Symbol != nil {
		t.Symbol = *u.Symbol
	}
	if u.Exchange != nil {
		t.Exchange = *u.Exchange
	}
	if u.Side != nil {
		t.Side = *u.Side
	}
	if u.Quantity != nil {
		t.Quantity = *u.Quantity
	}
	if u.Price != nil {
		t.Price = *u.Price
	}
	if u.Brokerage != nil {
		t.Brokerage = *u.Brokerage
	}
	if u.Taxes != nil {
		t.Taxes = *u.Taxes
	}
	if u.TradeDate != nil {
		t.TradeDate = *u.TradeDate
	}
	if u.TradeTime != nil {
		t.TradeTime = u.TradeTime
	}
	if u.Notes != nil {
		t.Notes = u.Notes
	}
}

// ImportResult reports the outcome of a broker import
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// TradingService handles trade mutations.
//
// Every mutation triggers a full recompute of the owner's positions. Trades are
// stored through a domain.TradeStore, which in production is the mirrored store
// so that each local write is also attempted against the remote mirror.
type TradingService struct {
	trades       domain.TradeStore
	recalculator PositionRecalculator
	locks        *utils.OwnerLocks
	log          zerolog.Logger
}

// NewTradingService creates a new trading service
func NewTradingService(
	trades domain.TradeStore,
	recalculator PositionRecalculator,
	locks *utils.OwnerLocks,
	log zerolog.Logger,
) *TradingService {
	return &TradingService{
		trades:       trades,
		recalculator: recalculator,
		locks:        locks,
		log:          log.With().Str("service", "trading").Logger(),
	}
}

// AddTrade validates, stores and folds a new trade into the owner's positions
func (s *TradingService) AddTrade(ctx context.Context, trade domain.Trade) (*domain.Trade, error) {
	trade.ID = 0
	trade.Normalize()
	trade.ComputeAmounts()
	if err := trade.Validate(); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(trade.OwnerID)
	defer unlock()

	if _, err := s.trades.Create(ctx, &trade); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("owner_id", trade.OwnerID).
		Int64("trade_id", trade.ID).
		Str("symbol", trade.Symbol).
		Str("side", string(trade.Side)).
		Int64("quantity", trade.Quantity).
		Float64("net_amount", trade.NetAmount).
		Msg("Trade added")

	if err := s.recalculator.RecalculatePositions(ctx, trade.OwnerID); err != nil {
		return &trade, fmt.Errorf("trade %d stored but position recalculation failed: %w", trade.ID, err)
	}

	return &trade, nil
}

// UpdateTrade applies an explicit edit, re-derives the amounts and recomputes positions
func (s *TradingService) UpdateTrade(ctx context.Context, ownerID string, id int64, update TradeUpdate) (*domain.Trade, error) {
	unlock := s.locks.Lock(ownerID)
	defer unlock()

	trade, err := s.trades.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	update.apply(trade)
	trade.Normalize()
	trade.ComputeAmounts()
	if err := trade.Validate(); err != nil {
		return nil, err
	}

	if err := s.trades.Update(ctx, trade); err != nil {
		return nil, err
	}

	s.log.Info().Str("owner_id", ownerID).Int64("trade_id", id).Msg("Trade updated")

	if err := s.recalculator.RecalculatePositions(ctx, ownerID); err != nil {
		return trade, fmt.Errorf("trade %d updated but position recalculation failed: %w", id, err)
	}

	return trade, nil
}

// DeleteTrade removes a trade and recomputes positions
func (s *TradingService) DeleteTrade(ctx context.Context, ownerID string, id int64) error {
	unlock := s.locks.Lock(ownerID)
	defer unlock()

	if err := s.trades.Delete(ctx, ownerID, id); err != nil {
		return err
	}

	s.log.Info().Str("owner_id", ownerID).Int64("trade_id", id).Msg("Trade deleted")

	if err := s.recalculator.RecalculatePositions(ctx, ownerID); err != nil {
		return fmt.Errorf("trade %d deleted but position recalculation failed: %w", id, err)
	}
	return nil
}

// GetTrade returns one trade
func (s *TradingService) GetTrade(ctx context.Context, ownerID string, id int64) (*domain.Trade, error) {
	return s.trades.Get(ctx, ownerID, id)
}

// ListTrades returns the owner's trades matching the filter, oldest first
func (s *TradingService) ListTrades(ctx context.Context, ownerID string, filter domain.TradeFilter) ([]domain.Trade, error) {
	return s.trades.Find(ctx, ownerID, filter)
}

// ImportBrokerTrades records trades fetched from a broker. Trades matching an
// existing execution (symbol, side, quantity, price, date) are skipped.
// Positions are recomputed once at the end.
func (s *TradingService) ImportBrokerTrades(ctx context.Context, ownerID string, incoming []domain.Trade) (*ImportResult, error) {
	prepared := make([]domain.Trade, 0, len(incoming))
	for i, trade := range incoming {
		trade.ID = 0
		trade.OwnerID = ownerID
		trade.Source = domain.SourceBrokerImport
		trade.Normalize()
		trade.ComputeAmounts()
		if err := trade.Validate(); err != nil {
			return nil, fmt.Errorf("broker trade %d: %w", i, err)
		}
		prepared = append(prepared, trade)
	}

	unlock := s.locks.Lock(ownerID)
	defer unlock()

	existing, err := s.trades.GetAll(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing trades: %w", err)
	}

	result := &ImportResult{}
	for i := range prepared {
		trade := &prepared[i]
		if containsExecution(existing, trade) {
			result.Skipped++
			continue
		}
		if _, err := s.trades.Create(ctx, trade); err != nil {
			return result, fmt.Errorf("failed to import broker trade: %w", err)
		}
		existing = append(existing, *trade)
		result.Imported++
	}

	s.log.Info().
		Str("owner_id", ownerID).
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Msg("Broker trades imported")

	if result.Imported > 0 {
		if err := s.recalculator.RecalculatePositions(ctx, ownerID); err != nil {
			return result, fmt.Errorf("position recalculation failed: %w", err)
		}
	}

	return result, nil
}

func containsExecution(trades []domain.Trade, trade *domain.Trade) bool {
	for i := range trades {
		if trades[i].SameExecution(trade) {
			return true
		}
	}
	return false
}
