package cloudsync

import (
	"time"

	"github.com/aristath/tradebook/internal/domain"
)

// Remote table names
const (
	TableTrades         = "trades"
	TablePositions      = "positions"
	TableBrokerProfiles = "broker_profiles"
)

// Bookkeeping columns added on the remote side. They are stripped on read-back.
const (
	ColOwner    = "user_id"
	ColLocalID  = "local_id"
	ColSyncedAt = "synced_at"
	ColRemoteID = "id"
)

// PositionConflictColumns is the natural key of a remote position row
var PositionConflictColumns = []string{ColOwner, "symbol", "exchange"}

// ownerFilter selects every row of one owner
func ownerFilter(ownerID string) domain.Filter {
	return domain.Filter{ColOwner: ownerID}
}

// recordFilter selects the remote copy of one local record
func recordFilter(ownerID string, localID int64) domain.Filter {
	return domain.Filter{ColOwner: ownerID, ColLocalID: localID}
}

func stamp(row domain.Row, ownerID string, localID int64, syncedAt time.Time) domain.Row {
	row[ColOwner] = ownerID
	row[ColLocalID] = localID
	row[ColSyncedAt] = syncedAt.UTC().Format(time.RFC3339)
	return row
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func optional(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

// TradeToRow translates a local trade to a remote row
func TradeToRow(t *domain.Trade, syncedAt time.Time) domain.Row {
	row := domain.Row{
		"symbol":     t.Symbol,
		"exchange":   t.Exchange,
		"type":       string(t.Side),
		"quantity":   t.Quantity,
		"price":      t.Price,
		"brokerage":  t.Brokerage,
		"taxes":      t.Taxes,
		"amount":     t.Amount,
		"net_amount": t.NetAmount,
		"trade_date": t.TradeDate,
		"trade_time": optional(t.TradeTime),
		"notes":      optional(t.Notes),
		"source":     string(t.Source),
		"created_at": t.CreatedAt.UTC().Format(time.RFC3339),
	}
	return stamp(row, t.OwnerID, t.ID, syncedAt)
}

// TradeFromRow translates a remote row back to a local trade.
// The owner, local id and bookkeeping columns are dropped.
func TradeFromRow(row domain.Row) domain.Trade {
	return domain.Trade{
		Symbol:    row.String("symbol"),
		Exchange:  row.String("exchange"),
		Side:      domain.Side(row.String("type")),
		Quantity:  row.Int("quantity"),
		Price:     row.Float("price"),
		Brokerage: row.Float("brokerage"),
		Taxes:     row.Float("taxes"),
		Amount:    row.Float("amount"),
		NetAmount: row.Float("net_amount"),
		TradeDate: row.String("trade_date"),
		TradeTime: row.StringPtr("trade_time"),
		Notes:     row.StringPtr("notes"),
		Source:    domain.Source(row.String("source")),
		CreatedAt: parseTime(row.String("created_at")),
	}
}

// PositionToRow translates a local position to a remote row
func PositionToRow(p *domain.Position, syncedAt time.Time) domain.Row {
	lastUpdated := p.LastUpdated
	if lastUpdated.IsZero() {
		lastUpdated = syncedAt
	}
	row := domain.Row{
		"symbol":                p.Symbol,
		"exchange":              p.Exchange,
		"quantity":              p.Quantity,
		"average_buy_price":     p.AverageBuyPrice,
		"invested_value":        p.InvestedValue,
		"current_price":         p.CurrentPrice,
		"current_value":         p.CurrentValue,
		"unrealized_pl":         p.UnrealizedPL,
		"unrealized_pl_percent": p.UnrealizedPLPercent,
		"last_updated":          lastUpdated.UTC().Format(time.RFC3339),
	}
	return stamp(row, p.OwnerID, p.ID, syncedAt)
}

// PositionFromRow translates a remote row back to a local position
func PositionFromRow(row domain.Row) domain.Position {
	return domain.Position{
		Symbol:              row.String("symbol"),
		Exchange:            row.String("exchange"),
		Quantity:            row.Int("quantity"),
		AverageBuyPrice:     row.Float("average_buy_price"),
		InvestedValue:       row.Float("invested_value"),
		CurrentPrice:        row.Float("current_price"),
		CurrentValue:        row.Float("current_value"),
		UnrealizedPL:        row.Float("unrealized_pl"),
		UnrealizedPLPercent: row.Float("unrealized_pl_percent"),
		LastUpdated:         parseTime(row.String("last_updated")),
	}
}

// ProfileToRow translates a local broker profile to a remote row
func ProfileToRow(p *domain.BrokerProfile, syncedAt time.Time) domain.Row {
	row := domain.Row{
		"broker":         p.Broker,
		"broker_user_id": p.BrokerUserID,
		"user_name":      p.UserName,
		"email":          p.Email,
		"is_active":      p.IsActive,
		"created_at":     p.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at":     p.UpdatedAt.UTC().Format(time.RFC3339),
	}
	return stamp(row, p.OwnerID, p.ID, syncedAt)
}

// ProfileFromRow translates a remote row back to a local broker profile
func ProfileFromRow(row domain.Row) domain.BrokerProfile {
	return domain.BrokerProfile{
		Broker:       row.String("broker"),
		BrokerUserID: row.String("broker_user_id"),
		UserName:     row.String("user_name"),
		Email:        row.String("email"),
		IsActive:     row.Bool("is_active"),
		CreatedAt:    parseTime(row.String("created_at")),
		UpdatedAt:    parseTime(row.String("updated_at")),
	}
}
