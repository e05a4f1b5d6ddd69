package profiles

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/tradebook/internal/database"
	"github.com/aristath/tradebook/internal/domain"
	"github.com/rs/zerolog"
)

// WatchlistRepository handles watchlist database operations.
// The watchlist is local only and never mirrored.
type WatchlistRepository struct {
	db  database.Querier
	log zerolog.Logger
}

var _ domain.WatchlistStore = (*WatchlistRepository)(nil)

// NewWatchlistRepository creates a new watchlist repository
func NewWatchlistRepository(db database.Querier, log zerolog.Logger) *WatchlistRepository {
	return &WatchlistRepository{
		db:  db,
		log: log.With().Str("repo", "watchlist").Logger(),
	}
}

// WithQuerier returns a copy of the repository bound to q
func (r *WatchlistRepository) WithQuerier(q database.Querier) *WatchlistRepository {
	return &WatchlistRepository{db: q, log: r.log}
}

// Add inserts a watchlist item and sets its ID
func (r *WatchlistRepository) Add(ctx context.Context, item *domain.WatchlistItem) (int64, error) {
	item.Symbol = strings.ToUpper(strings.TrimSpace(item.Symbol))
	if item.OwnerID == "" || item.Symbol == "" {
		return 0, fmt.Errorf("%w: owner id and symbol are required", domain.ErrValidation)
	}
	if item.ListName == "" {
		item.ListName = domain.DefaultWatchlist
	}
	if item.AddedAt.IsZero() {
		item.AddedAt = time.Now().UTC()
	}

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO watchlist (owner_id, symbol, list_name, added_at) VALUES (?, ?, ?, ?)",
		item.OwnerID, item.Symbol, item.ListName, item.AddedAt.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to add watchlist item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read watchlist item id: %w", err)
	}
	item.ID = id
	return id, nil
}

// GetAll returns the owner's items in listName, or in every list when listName is empty
func (r *WatchlistRepository) GetAll(ctx context.Context, ownerID, listName string) ([]domain.WatchlistItem, error) {
	query := "SELECT id, owner_id, symbol, list_name, added_at FROM watchlist WHERE owner_id = ?"
	args := []interface{}{ownerID}
	if listName != "" {
		query += " AND list_name = ?"
		args = append(args, listName)
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist: %w", err)
	}
	defer rows.Close()

	items := make([]domain.WatchlistItem, 0)
	for rows.Next() {
		var (
			item    domain.WatchlistItem
			addedAt int64
		)
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.Symbol, &item.ListName, &addedAt); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist item: %w", err)
		}
		item.AddedAt = time.Unix(addedAt, 0).UTC()
		items = append(items, item)
	}
	return items, rows.Err()
}

// Remove deletes one watchlist item of the owner
func (r *WatchlistRepository) Remove(ctx context.Context, ownerID string, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM watchlist WHERE owner_id = ? AND id = ?", ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to remove watchlist item: %w", err)
	}
	return requireAffected(result, "watchlist item", id)
}

// DeleteAll removes every watchlist item of the owner and returns the count
func (r *WatchlistRepository) DeleteAll(ctx context.Context, ownerID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM watchlist WHERE owner_id = ?", ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete watchlist: %w", err)
	}
	return result.RowsAffected()
}
