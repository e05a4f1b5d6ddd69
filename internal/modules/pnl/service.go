package pnl

import (
	"context"
	"fmt"
	"strings"

	"github.com/aristath/tradebook/internal/domain"
	"github.com/rs/zerolog"
)

// TradeReader is the part of the trade store P&L reads
type TradeReader interface {
	GetAll(ctx context.Context, ownerID string) ([]domain.Trade, error)
}

// PositionReader is the part of the position store P&L reads
type PositionReader interface {
	GetAll(ctx context.Context, ownerID string) ([]domain.Position, error)
}

// Query narrows a realized P&L report. Empty fields do not filter.
type Query struct {
	Symbol string
	From   string
	To     string
}

// RealizedReport is the realized P&L of an owner's trades
type RealizedReport struct {
	RealizedPL float64    `json:"realizedPL"`
	BySymbol   []SymbolPL `json:"bySymbol"`
	Trades     int        `json:"trades"`
}

// PnLService computes P&L reports on demand from the stored trades and positions
type PnLService struct {
	trades    TradeReader
	positions PositionReader
	log       zerolog.Logger
}

// NewPnLService creates a new P&L service
func NewPnLService(trades TradeReader, positions PositionReader, log zerolog.Logger) *PnLService {
	return &PnLService{
		trades:    trades,
		positions: positions,
		log:       log.With().Str("service", "pnl").Logger(),
	}
}

// Realized returns the FIFO realized P&L for the owner's trades matching q
func (s *PnLService) Realized(ctx context.Context, ownerID string, q Query) (*RealizedReport, error) {
	trades, err := s.trades.GetAll(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load trades: %w", err)
	}

	if q.Symbol != "" {
		trades = FilterSymbol(trades, strings.ToUpper(strings.TrimSpace(q.Symbol)))
	}
	if q.From != "" || q.To != "" {
		trades = FilterPeriod(trades, q.From, q.To)
	}

	breakdown := Breakdown(trades)
	report := &RealizedReport{BySymbol: breakdown, Trades: len(trades)}
	for _, b := range breakdown {
		report.RealizedPL += b.RealizedPL
		if b.UnmatchedQty > 0 {
			s.log.Debug().
				Str("owner_id", ownerID).
				Str("symbol", b.Symbol).
				Int64("unmatched", b.UnmatchedQty).
				Msg("Sell quantity without matching buys")
		}
	}
	return report, nil
}

// Total returns realized plus unrealized P&L for the owner
func (s *PnLService) Total(ctx context.Context, ownerID string) (*TotalPL, error) {
	trades, err := s.trades.GetAll(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load trades: %w", err)
	}
	positions, err := s.positions.GetAll(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load positions: %w", err)
	}

	total := Total(trades, positions)
	return &total, nil
}
