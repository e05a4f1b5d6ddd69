package domain

import "context"

// TradeFilter narrows a trade listing. Empty fields do not filter.
// From and To are inclusive YYYY-MM-DD dates.
type TradeFilter struct {
	Symbol string
	Side   Side
	From   string
	To     string
}

// TradeStore is durable keyed storage of trade records.
// GetAll returns trades in chronological order (trade date, trade time, id).
type TradeStore interface {
	Create(ctx context.Context, trade *Trade) (int64, error)
	Get(ctx context.Context, ownerID string, id int64) (*Trade, error)
	GetAll(ctx context.Context, ownerID string) ([]Trade, error)
	Find(ctx context.Context, ownerID string, filter TradeFilter) ([]Trade, error)
	Update(ctx context.Context, trade *Trade) error
	Delete(ctx context.Context, ownerID string, id int64) error
}

// PositionStore holds at most one position per (owner, symbol)
type PositionStore interface {
	GetAll(ctx context.Context, ownerID string) ([]Position, error)
	GetBySymbol(ctx context.Context, ownerID, symbol string) (*Position, error)
	Upsert(ctx context.Context, position *Position) error
	Delete(ctx context.Context, position Position) error
}

// ProfileStore holds broker-link profiles
type ProfileStore interface {
	Create(ctx context.Context, profile *BrokerProfile) (int64, error)
	Get(ctx context.Context, ownerID string, id int64) (*BrokerProfile, error)
	GetAll(ctx context.Context, ownerID string) ([]BrokerProfile, error)
	Update(ctx context.Context, profile *BrokerProfile) error
	Delete(ctx context.Context, ownerID string, id int64) error
}

// WatchlistStore holds watchlist items. listName "" returns every list.
type WatchlistStore interface {
	Add(ctx context.Context, item *WatchlistItem) (int64, error)
	GetAll(ctx context.Context, ownerID, listName string) ([]WatchlistItem, error)
	Remove(ctx context.Context, ownerID string, id int64) error
}

// QuoteSource returns the current price per instrument (EXCHANGE:SYMBOL).
// A missing instrument in the result means no quote, not an error.
type QuoteSource interface {
	GetQuotes(ctx context.Context, ownerID string, instruments []string) (map[string]float64, error)
}

// Row is one remote table row keyed by snake_case column name
type Row map[string]interface{}

// Filter is a set of column = value equality conditions
type Filter map[string]interface{}

// RemoteStore is the tabular remote mirror: per-owner filtered select,
// insert, update, delete and upsert with a conflict key.
type RemoteStore interface {
	Select(ctx context.Context, table string, filter Filter) ([]Row, error)
	Insert(ctx context.Context, table string, rows []Row) error
	Update(ctx context.Context, table string, filter Filter, values Row) error
	Delete(ctx context.Context, table string, filter Filter) error
	Upsert(ctx context.Context, table string, rows []Row, conflictColumns []string) error
}
