// Package domain holds the ledger entities and the contracts between the
// ledger, its local store, the remote mirror and the quote source.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Side is the direction of a trade
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// IsValid reports whether the side is BUY or SELL
func (s Side) IsValid() bool {
	return s == SideBuy || s == SideSell
}

// Source records how a trade entered the ledger
type Source string

const (
	SourceManual       Source = "MANUAL"
	SourceBrokerImport Source = "BROKER_IMPORT"
)

// IsValid reports whether the source is known
func (s Source) IsValid() bool {
	return s == SourceManual || s == SourceBrokerImport
}

// DateLayout is the calendar date format used for trade dates
const DateLayout = "2006-01-02"

// Trade is one executed order.
// Amount and NetAmount are derived when the trade is created or edited and
// stored; they are never recomputed on read.
type Trade struct {
	ID        int64     `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Symbol    string    `json:"symbol"`
	Exchange  string    `json:"exchange"`
	Side      Side      `json:"type"`
	Quantity  int64     `json:"quantity"`
	Price     float64   `json:"price"`
	Brokerage float64   `json:"brokerage"`
	Taxes     float64   `json:"taxes"`
	Amount    float64   `json:"amount"`
	NetAmount float64   `json:"netAmount"`
	TradeDate string    `json:"tradeDate"`
	TradeTime *string   `json:"tradeTime,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	Source    Source    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Normalize trims and upper-cases symbol and exchange and fills the default source.
func (t *Trade) Normalize() {
	t.Symbol = strings.ToUpper(strings.TrimSpace(t.Symbol))
	t.Exchange = strings.ToUpper(strings.TrimSpace(t.Exchange))
	t.Side = Side(strings.ToUpper(strings.TrimSpace(string(t.Side))))
	if t.Source == "" {
		t.Source = SourceManual
	}
}

// ComputeAmounts derives Amount and NetAmount from quantity, price and fees.
// Fees are added to the cost of a BUY and deducted from the proceeds of a SELL.
func (t *Trade) ComputeAmounts() {
	t.Amount = float64(t.Quantity) * t.Price
	if t.Side == SideBuy {
		t.NetAmount = t.Amount + t.Brokerage + t.Taxes
	} else {
		t.NetAmount = t.Amount - t.Brokerage - t.Taxes
	}
}

// Validate checks required fields and value ranges
func (t *Trade) Validate() error {
	if t.OwnerID == "" {
		return validationError("owner id is required")
	}
	if t.Symbol == "" {
		return validationError("symbol is required")
	}
	if !t.Side.IsValid() {
		return validationError("invalid trade type %q", t.Side)
	}
	if t.Quantity <= 0 {
		return validationError("quantity must be positive")
	}
	if t.Price <= 0 {
		return validationError("price must be positive")
	}
	if t.Brokerage < 0 {
		return validationError("brokerage must not be negative")
	}
	if t.Taxes < 0 {
		return validationError("taxes must not be negative")
	}
	if t.TradeDate == "" {
		return validationError("trade date is required")
	}
	if _, err := time.Parse(DateLayout, t.TradeDate); err != nil {
		return validationError("trade date %q must be YYYY-MM-DD", t.TradeDate)
	}
	if !t.Source.IsValid() {
		return validationError("invalid source %q", t.Source)
	}
	return nil
}

// SameExecution reports whether two trades describe the same fill. Broker
// imports use it to skip trades that are already recorded.
func (t *Trade) SameExecution(other *Trade) bool {
	return t.Symbol == other.Symbol &&
		t.Side == other.Side &&
		t.Quantity == other.Quantity &&
		t.Price == other.Price &&
		t.TradeDate == other.TradeDate
}

// Position is the current holding in one symbol for one owner.
// A Position never exists with Quantity <= 0.
type Position struct {
	ID                  int64     `json:"id"`
	OwnerID             string    `json:"ownerId"`
	Symbol              string    `json:"symbol"`
	Exchange            string    `json:"exchange"`
	Quantity            int64     `json:"quantity"`
	AverageBuyPrice     float64   `json:"averageBuyPrice"`
	InvestedValue       float64   `json:"investedValue"`
	CurrentPrice        float64   `json:"currentPrice"`
	CurrentValue        float64   `json:"currentValue"`
	UnrealizedPL        float64   `json:"unrealizedPL"`
	UnrealizedPLPercent float64   `json:"unrealizedPLPercent"`
	LastUpdated         time.Time `json:"lastUpdated"`
}

// Instrument returns the EXCHANGE:SYMBOL key used by the quote service.
func (p *Position) Instrument() string {
	return Instrument(p.Exchange, p.Symbol)
}

// Instrument builds an EXCHANGE:SYMBOL key; symbols without an exchange are returned as is.
func Instrument(exchange, symbol string) string {
	if exchange == "" {
		return symbol
	}
	return exchange + ":" + symbol
}

// BrokerProfile links an owner to a broker account. Credentials are never stored here.
type BrokerProfile struct {
	ID           int64     `json:"id"`
	OwnerID      string    `json:"ownerId"`
	Broker       string    `json:"broker"`
	BrokerUserID string    `json:"brokerUserId"`
	UserName     string    `json:"userName"`
	Email        string    `json:"email"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Validate checks required broker profile fields
func (p *BrokerProfile) Validate() error {
	if p.OwnerID == "" {
		return validationError("owner id is required")
	}
	if strings.TrimSpace(p.Broker) == "" {
		return validationError("broker is required")
	}
	if strings.TrimSpace(p.BrokerUserID) == "" {
		return validationError("broker user id is required")
	}
	return nil
}

// DefaultWatchlist is the list name used when none is given
const DefaultWatchlist = "default"

// WatchlistItem is a symbol an owner follows without holding it
type WatchlistItem struct {
	ID       int64     `json:"id"`
	OwnerID  string    `json:"ownerId"`
	Symbol   string    `json:"symbol"`
	ListName string    `json:"listName"`
	AddedAt  time.Time `json:"addedAt"`
}

// Dataset is every record one owner has in a store
type Dataset struct {
	Trades         []Trade
	Positions      []Position
	BrokerProfiles []BrokerProfile
	Watchlist      []WatchlistItem
}

// HasSyncedData reports whether any of the mirrored sets holds a record.
// The watchlist is local only and does not count.
func (d *Dataset) HasSyncedData() bool {
	return len(d.Trades) > 0 || len(d.Positions) > 0 || len(d.BrokerProfiles) > 0
}

// String renders a short summary for logs
func (d *Dataset) String() string {
	return fmt.Sprintf("%d trades, %d positions, %d profiles, %d watchlist",
		len(d.Trades), len(d.Positions), len(d.BrokerProfiles), len(d.Watchlist))
}
