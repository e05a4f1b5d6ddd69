package testing

import (
	"github.com/aristath/tradebook/internal/domain"
)

// NewTrade builds a valid manual trade with amounts derived
func NewTrade(ownerID, symbol string, side domain.Side, quantity int64, price float64, date string) domain.Trade {
	t := domain.Trade{
		OwnerID:   ownerID,
		Symbol:    symbol,
		Exchange:  "NSE",
		Side:      side,
		Quantity:  quantity,
		Price:     price,
		TradeDate: date,
		Source:    domain.SourceManual,
	}
	t.ComputeAmounts()
	return t
}

// NewTradeFixtures returns a small INFY/TCS history for one owner:
// INFY buy 10@100, buy 10@120, sell 5@130 and TCS buy 2@3000.
func NewTradeFixtures(ownerID string) []domain.Trade {
	return []domain.Trade{
		NewTrade(ownerID, "INFY", domain.SideBuy, 10, 100, "2024-01-10"),
		NewTrade(ownerID, "TCS", domain.SideBuy, 2, 3000, "2024-01-12"),
		NewTrade(ownerID, "INFY", domain.SideBuy, 10, 120, "2024-02-01"),
		NewTrade(ownerID, "INFY", domain.SideSell, 5, 130, "2024-03-05"),
	}
}

// NewBrokerProfileFixture returns an active Kite profile
func NewBrokerProfileFixture(ownerID string) domain.BrokerProfile {
	return domain.BrokerProfile{
		OwnerID:      ownerID,
		Broker:       "kite",
		BrokerUserID: "AB1234",
		UserName:     "Test User",
		Email:        "test@example.com",
		IsActive:     true,
	}
}
