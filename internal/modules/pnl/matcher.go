// Package pnl computes realized profit and loss by FIFO lot matching.
//
// Realized P&L deliberately uses a different cost basis from the position
// ledger (FIFO here, weighted average there). The two must stay separate.
package pnl

import (
	"sort"

	"github.com/aristath/tradebook/internal/domain"
)

// SymbolPL is the realized P&L of one symbol
type SymbolPL struct {
	Symbol       string  `json:"symbol"`
	RealizedPL   float64 `json:"realizedPL"`
	MatchedQty   int64   `json:"matchedQuantity"`
	UnmatchedQty int64   `json:"unmatchedSellQuantity"`
}

// TotalPL combines realized and unrealized P&L
type TotalPL struct {
	RealizedPL   float64 `json:"realizedPL"`
	UnrealizedPL float64 `json:"unrealizedPL"`
	TotalPL      float64 `json:"totalPL"`
}

// lots splits one symbol's trades into buys and sells
type lots struct {
	buys  []domain.Trade
	sells []domain.Trade
}

func groupBySymbol(trades []domain.Trade) (map[string]*lots, []string) {
	groups := make(map[string]*lots)
	var order []string
	for _, t := range trades {
		g, ok := groups[t.Symbol]
		if !ok {
			g = &lots{}
			groups[t.Symbol] = g
			order = append(order, t.Symbol)
		}
		if t.Side == domain.SideBuy {
			g.buys = append(g.buys, t)
		} else {
			g.sells = append(g.sells, t)
		}
	}
	sort.Strings(order)
	return groups, order
}

func byDate(trades []domain.Trade) {
	sort.SliceStable(trades, func(i, j int) bool { return trades[i].TradeDate < trades[j].TradeDate })
}

// match walks the sells in date order and consumes buy lots first in, first out.
// Sell quantity left over once every buy lot is used contributes nothing.
func (g *lots) match() SymbolPL {
	byDate(g.buys)
	byDate(g.sells)

	var out SymbolPL
	buyIndex := 0
	var buyRemaining int64
	if len(g.buys) > 0 {
		buyRemaining = g.buys[0].Quantity
	}

	for _, sell := range g.sells {
		sellRemaining := sell.Quantity
		sellUnit := sell.NetAmount / float64(sell.Quantity)

		for sellRemaining > 0 && buyIndex < len(g.buys) {
			buy := g.buys[buyIndex]
			q := sellRemaining
			if buyRemaining < q {
				q = buyRemaining
			}

			buyValue := buy.NetAmount / float64(buy.Quantity) * float64(q)
			sellValue := sellUnit * float64(q)
			out.RealizedPL += sellValue - buyValue
			out.MatchedQty += q

			sellRemaining -= q
			buyRemaining -= q
			if buyRemaining == 0 {
				buyIndex++
				if buyIndex < len(g.buys) {
					buyRemaining = g.buys[buyIndex].Quantity
				}
			}
		}
		out.UnmatchedQty += sellRemaining
	}

	return out
}

// Breakdown returns realized P&L per symbol, sorted by symbol
func Breakdown(trades []domain.Trade) []SymbolPL {
	groups, order := groupBySymbol(trades)
	out := make([]SymbolPL, 0, len(order))
	for _, symbol := range order {
		res := groups[symbol].match()
		res.Symbol = symbol
		out = append(out, res)
	}
	return out
}

// RealizedPL returns the total FIFO realized P&L of trades
func RealizedPL(trades []domain.Trade) float64 {
	total := 0.0
	for _, s := range Breakdown(trades) {
		total += s.RealizedPL
	}
	return total
}

// RealizedPLBySymbol returns the realized P&L of one symbol
func RealizedPLBySymbol(trades []domain.Trade, symbol string) float64 {
	return RealizedPL(FilterSymbol(trades, symbol))
}

// RealizedPLByPeriod returns the realized P&L of trades dated within [from, to].
// Buys before from are not visible, so sells matched against them count as unmatched.
func RealizedPLByPeriod(trades []domain.Trade, from, to string) float64 {
	return RealizedPL(FilterPeriod(trades, from, to))
}

// Total combines realized P&L of trades with the unrealized P&L of positions
func Total(trades []domain.Trade, positions []domain.Position) TotalPL {
	realized := RealizedPL(trades)
	unrealized := 0.0
	for _, p := range positions {
		unrealized += p.UnrealizedPL
	}
	return TotalPL{
		RealizedPL:   realized,
		UnrealizedPL: unrealized,
		TotalPL:      realized + unrealized,
	}
}

// FilterSymbol keeps trades in symbol
func FilterSymbol(trades []domain.Trade, symbol string) []domain.Trade {
	out := make([]domain.Trade, 0, len(trades))
	for _, t := range trades {
		if t.Symbol == symbol {
			out = append(out, t)
		}
	}
	return out
}

// FilterPeriod keeps trades dated within [from, to]. Empty bounds are open.
func FilterPeriod(trades []domain.Trade, from, to string) []domain.Trade {
	out := make([]domain.Trade, 0, len(trades))
	for _, t := range trades {
		if from != "" && t.TradeDate < from {
			continue
		}
		if to != "" && t.TradeDate > to {
			continue
		}
		out = append(out, t)
	}
	return out
}
