package trading

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/tradebook/internal/database"
	"github.com/aristath/tradebook/internal/domain"
	"github.com/rs/zerolog"
)

// tradesColumns is the list of columns for the trades table.
// Column order must match scanTrade().
const tradesColumns = `id, owner_id, symbol, exchange, side, quantity, price, brokerage, taxes,
	amount, net_amount, trade_date, trade_time, notes, source, created_at, updated_at`

// chronological is the order the position ledger folds trades in
const chronological = ` ORDER BY trade_date ASC, COALESCE(trade_time, '') ASC, id ASC`

// TradeRepository handles trade database operations
type TradeRepository struct {
	db  database.Querier
	log zerolog.Logger
}

// Compile-time check that TradeRepository implements domain.TradeStore
var _ domain.TradeStore = (*TradeRepository)(nil)

// NewTradeRepository creates a new trade repository
func NewTradeRepository(db database.Querier, log zerolog.Logger) *TradeRepository {
	return &TradeRepository{
		db:  db,
		log: log.With().Str("repo", "trade").Logger(),
	}
}

// WithQuerier returns a copy of the repository bound to q (typically a *sql.Tx)
func (r *TradeRepository) WithQuerier(q database.Querier) *TradeRepository {
	return &TradeRepository{db: q, log: r.log}
}

// Create inserts a new trade record and sets its ID and timestamps.
// Amounts are stored as given; callers derive them with Trade.ComputeAmounts.
func (r *TradeRepository) Create(ctx context.Context, trade *domain.Trade) (int64, error) {
	if err := trade.Validate(); err != nil {
		return 0, fmt.Errorf("failed to create trade: %w", err)
	}

	now := time.Now().UTC()
	if trade.CreatedAt.IsZero() {
		trade.CreatedAt = now
	}
	trade.UpdatedAt = now

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO trades
		(owner_id, symbol, exchange, side, quantity, price, brokerage, taxes,
		 amount, net_amount, trade_date, trade_time, notes, source, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		trade.OwnerID,
		trade.Symbol,
		trade.Exchange,
		string(trade.Side),
		trade.Quantity,
		trade.Price,
		trade.Brokerage,
		trade.Taxes,
		trade.Amount,
		trade.NetAmount,
		trade.TradeDate,
		nullStringPtr(trade.TradeTime),
		nullStringPtr(trade.Notes),
		string(trade.Source),
		trade.CreatedAt.Unix(),
		trade.UpdatedAt.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create trade: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read trade id: %w", err)
	}
	trade.ID = id

	r.log.Debug().
		Int64("id", id).
		Str("owner_id", trade.OwnerID).
		Str("symbol", trade.Symbol).
		Str("side", string(trade.Side)).
		Int64("quantity", trade.Quantity).
		Msg("Trade created")

	return id, nil
}

// Get returns one trade of the owner
func (r *TradeRepository) Get(ctx context.Context, ownerID string, id int64) (*domain.Trade, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+tradesColumns+" FROM trades WHERE owner_id = ? AND id = ?", ownerID, id)

	trade, err := scanTrade(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundError("trade", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}
	return &trade, nil
}

// GetAll returns every trade of the owner in chronological order
func (r *TradeRepository) GetAll(ctx context.Context, ownerID string) ([]domain.Trade, error) {
	return r.Find(ctx, ownerID, domain.TradeFilter{})
}

// Find returns the owner's trades matching the filter in chronological order
func (r *TradeRepository) Find(ctx context.Context, ownerID string, filter domain.TradeFilter) ([]domain.Trade, error) {
	where := []string{"owner_id = ?"}
	args := []interface{}{ownerID}

	if filter.Symbol != "" {
		where = append(where, "symbol = ?")
		args = append(args, strings.ToUpper(strings.TrimSpace(filter.Symbol)))
	}
	if filter.Side != "" {
		where = append(where, "side = ?")
		args = append(args, string(filter.Side))
	}
	if filter.From != "" {
		where = append(where, "trade_date >= ?")
		args = append(args, filter.From)
	}
	if filter.To != "" {
		where = append(where, "trade_date <= ?")
		args = append(args, filter.To)
	}

	query := "SELECT " + tradesColumns + " FROM trades WHERE " + strings.Join(where, " AND ") + chronological

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	trades := make([]domain.Trade, 0)
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, trade)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}

	return trades, nil
}

// Update rewrites the mutable fields of a trade. Identity (id, owner) never changes.
func (r *TradeRepository) Update(ctx context.Context, trade *domain.Trade) error {
	if err := trade.Validate(); err != nil {
		return fmt.Errorf("failed to update trade: %w", err)
	}

	trade.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, `
		UPDATE trades SET
			symbol = ?, exchange = ?, side = ?, quantity = ?, price = ?, brokerage = ?, taxes = ?,
			amount = ?, net_amount = ?, trade_date = ?, trade_time = ?, notes = ?, source = ?, updated_at = ?
		WHERE owner_id = ? AND id = ?
	`,
		trade.Symbol,
		trade.Exchange,
		string(trade.Side),
		trade.Quantity,
		trade.Price,
		trade.Brokerage,
		trade.Taxes,
		trade.Amount,
		trade.NetAmount,
		trade.TradeDate,
		nullStringPtr(trade.TradeTime),
		nullStringPtr(trade.Notes),
		string(trade.Source),
		trade.UpdatedAt.Unix(),
		trade.OwnerID,
		trade.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update trade: %w", err)
	}

	return requireAffected(result, "trade", trade.ID)
}

// Delete removes one trade of the owner
func (r *TradeRepository) Delete(ctx context.Context, ownerID string, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM trades WHERE owner_id = ? AND id = ?", ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to delete trade: %w", err)
	}
	return requireAffected(result, "trade", id)
}

// DeleteAll removes every trade of the owner and returns the count
func (r *TradeRepository) DeleteAll(ctx context.Context, ownerID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM trades WHERE owner_id = ?", ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete trades: %w", err)
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTrade(s scanner) (domain.Trade, error) {
	var (
		trade                domain.Trade
		side, source         string
		tradeTime, notes     sql.NullString
		createdAt, updatedAt int64
	)

	err := s.Scan(
		&trade.ID,
		&trade.OwnerID,
		&trade.Symbol,
		&trade.Exchange,
		&side,
		&trade.Quantity,
		&trade.Price,
		&trade.Brokerage,
		&trade.Taxes,
		&trade.Amount,
		&trade.NetAmount,
		&trade.TradeDate,
		&tradeTime,
		&notes,
		&source,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return trade, err
	}

	trade.Side = domain.Side(side)
	trade.Source = domain.Source(source)
	if tradeTime.Valid {
		trade.TradeTime = &tradeTime.String
	}
	if notes.Valid {
		trade.Notes = &notes.String
	}
	trade.CreatedAt = time.Unix(createdAt, 0).UTC()
	trade.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	return trade, nil
}

// Helper functions

func nullStringPtr(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func requireAffected(result sql.Result, kind string, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return domain.NotFoundError(kind, id)
	}
	return nil
}
