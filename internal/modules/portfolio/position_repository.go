package portfolio

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

// positionsColumns is the list of columns for the positions table.
// Column order must match scanPosition().
const positionsColumns = `id, owner_id, symbol, exchange, quantity, average_buy_price, invested_value,
	current_price, current_value, unrealized_pl, unrealized_pl_percent, last_updated`

// PositionRepository handles position database operations.
// At most one row exists per (owner, symbol); the unique index enforces it.
type PositionRepository struct {
	db  database.Querier
	log zerolog.Logger
}

// Compile-time check that PositionRepository implements domain.PositionStore
var _ domain.PositionStore = (*PositionRepository)(nil)

// NewPositionRepository creates a new position repository
func NewPositionRepository(db database.Querier, log zerolog.Logger) *PositionRepository {
	return &PositionRepository{
		db:  db,
		log: log.With().Str("repo", "position").Logger(),
	}
}

// WithQuerier returns a copy of the repository bound to q (typically a *sql.Tx)
func (r *PositionRepository) WithQuerier(q database.Querier) *PositionRepository {
	return &PositionRepository{db: q, log: r.log}
}

// GetAll returns every position of the owner ordered by symbol
func (r *PositionRepository) GetAll(ctx context.Context, ownerID string) ([]domain.Position, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+positionsColumns+" FROM positions WHERE owner_id = ? ORDER BY symbol", ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	positions := make([]domain.Position, 0)
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}

	return positions, nil
}

// GetBySymbol returns the owner's position in symbol, or nil when none is held
func (r *PositionRepository) GetBySymbol(ctx context.Context, ownerID, symbol string) (*domain.Position, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	row := r.db.QueryRowContext(ctx,
		"SELECT "+positionsColumns+" FROM positions WHERE owner_id = ? AND symbol = ?", ownerID, symbol)

	pos, err := scanPosition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}
	return &pos, nil
}

// Upsert inserts the position or replaces the owner's existing row for the symbol,
// and sets the position ID.
func (r *PositionRepository) Upsert(ctx context.Context, position *domain.Position) error {
	position.Symbol = strings.ToUpper(strings.TrimSpace(position.Symbol))
	if position.OwnerID == "" || position.Symbol == "" {
		return fmt.Errorf("owner id and symbol are required for position upsert")
	}
	if position.Quantity <= 0 {
		return fmt.Errorf("position %s must have positive quantity, got %d", position.Symbol, position.Quantity)
	}
	if position.LastUpdated.IsZero() {
		position.LastUpdated = time.Now().UTC()
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO positions
		(owner_id, symbol, exchange, quantity, average_buy_price, invested_value,
		 current_price, current_value, unrealized_pl, unrealized_pl_percent, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, symbol) DO UPDATE SET
			exchange = excluded.exchange,
			quantity = excluded.quantity,
			average_buy_price = excluded.average_buy_price,
			invested_value = excluded.invested_value,
			current_price = excluded.current_price,
			current_value = excluded.current_value,
			unrealized_pl = excluded.unrealized_pl,
			unrealized_pl_percent = excluded.unrealized_pl_percent,
			last_updated = excluded.last_updated
		RETURNING id
	`,
		position.OwnerID,
		position.Symbol,
		position.Exchange,
		position.Quantity,
		position.AverageBuyPrice,
		position.InvestedValue,
		position.CurrentPrice,
		position.CurrentValue,
		position.UnrealizedPL,
		position.UnrealizedPLPercent,
		position.LastUpdated.Unix(),
	).Scan(&position.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert position: %w", err)
	}

	r.log.Debug().
		Str("owner_id", position.OwnerID).
		Str("symbol", position.Symbol).
		Int64("quantity", position.Quantity).
		Msg("Position upserted")
	return nil
}

// Delete removes the owner's position in the position's symbol
func (r *PositionRepository) Delete(ctx context.Context, position domain.Position) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM positions WHERE owner_id = ? AND symbol = ?", position.OwnerID, position.Symbol)
	if err != nil {
		return fmt.Errorf("failed to delete position: %w", err)
	}

	r.log.Debug().Str("owner_id", position.OwnerID).Str("symbol", position.Symbol).Msg("Position deleted")
	return nil
}

// DeleteAll removes every position of the owner and returns the count
func (r *PositionRepository) DeleteAll(ctx context.Context, ownerID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM positions WHERE owner_id = ?", ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete positions: %w", err)
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPosition(s scanner) (domain.Position, error) {
	var (
		pos         domain.Position
		lastUpdated int64
	)

	err := s.Scan(
		&pos.ID,
		&pos.OwnerID,
		&pos.Symbol,
		&pos.Exchange,
		&pos.Quantity,
		&pos.AverageBuyPrice,
		&pos.InvestedValue,
		&pos.CurrentPrice,
		&pos.CurrentValue,
		&pos.UnrealizedPL,
		&pos.UnrealizedPLPercent,
		&lastUpdated,
	)
	if err != nil {
		return pos, err
	}

	pos.LastUpdated = time.Unix(lastUpdated, 0).UTC()
	return pos, nil
}
