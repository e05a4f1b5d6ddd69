package portfolio

import (
	"sort"
	"time"

	"github.com/aristath/tradebook/internal/domain"
)

// LedgerResult is the position set derived from a trade history
type LedgerResult struct {
	// Open holds one position per symbol with positive net quantity, sorted by symbol
	Open []domain.Position
	// Closed lists symbols whose net quantity is zero or below, sorted
	Closed []string
}

// holding is the running weighted-average state of one symbol
type holding struct {
	exchange string
	quantity int64
	invested float64
}

// apply folds one trade into the holding.
//
// A SELL takes its average price from the quantity before the sell, obtained by
// adding the sold quantity back after the decrement. The order of operations is
// kept as is so results stay numerically identical. Selling more than is held
// leaves nothing invested.
func (h *holding) apply(t *domain.Trade) {
	switch t.Side {
	case domain.SideBuy:
		h.quantity += t.Quantity
		h.invested += t.NetAmount
	case domain.SideSell:
		h.quantity -= t.Quantity
		divisor := float64(h.quantity + t.Quantity)
		avg := 0.0
		if divisor != 0 {
			avg = h.invested / divisor
		}
		h.invested -= avg * float64(t.Quantity)
		if h.invested < 0 {
			h.invested = 0
		}
	}
}

// FoldTrades runs the weighted-average cost ledger over trades in the order given.
// Callers pass the owner's full history in chronological order.
// The result is a pure function of the input; persisting it is up to the caller.
func FoldTrades(ownerID string, trades []domain.Trade, now time.Time) LedgerResult {
	holdings := make(map[string]*holding)
	for i := range trades {
		t := &trades[i]
		h, ok := holdings[t.Symbol]
		if !ok {
			h = &holding{exchange: t.Exchange}
			holdings[t.Symbol] = h
		}
		h.apply(t)
	}

	result := LedgerResult{
		Open:   make([]domain.Position, 0, len(holdings)),
		Closed: make([]string, 0),
	}
	for symbol, h := range holdings {
		if h.quantity <= 0 {
			result.Closed = append(result.Closed, symbol)
			continue
		}
		avg := h.invested / float64(h.quantity)
		result.Open = append(result.Open, domain.Position{
			OwnerID:         ownerID,
			Symbol:          symbol,
			Exchange:        h.exchange,
			Quantity:        h.quantity,
			AverageBuyPrice: avg,
			InvestedValue:   h.invested,
			CurrentPrice:    avg,
			CurrentValue:    float64(h.quantity) * avg,
			LastUpdated:     now,
		})
	}

	sort.Slice(result.Open, func(i, j int) bool { return result.Open[i].Symbol < result.Open[j].Symbol })
	sort.Strings(result.Closed)
	return result
}
