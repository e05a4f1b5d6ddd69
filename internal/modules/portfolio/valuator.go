package portfolio

import (
	"github.com/aristath/tradebook/internal/domain"
	"gonum.org/v1/gonum/floats"
)

// ValuedPosition is a position priced against the latest quote
type ValuedPosition struct {
	domain.Position
	// Quoted is false when no quote was available and the average buy price was used
	Quoted bool `json:"quoted"`
	// Weight is the share of portfolio value, 0..1
	Weight float64 `json:"weight"`
}

// Valuation is the priced portfolio of one owner
type Valuation struct {
	Positions      []ValuedPosition `json:"positions"`
	PortfolioValue float64          `json:"portfolioValue"`
	InvestedValue  float64          `json:"investedValue"`
	TotalPL        float64          `json:"totalPL"`
	TotalPLPercent float64          `json:"totalPLPercent"`
}

// ApplyPrice sets the current price and the figures derived from it
func ApplyPrice(p *domain.Position, price float64) {
	p.CurrentPrice = price
	p.CurrentValue = float64(p.Quantity) * price
	p.UnrealizedPL = p.CurrentValue - p.InvestedValue
	p.UnrealizedPLPercent = 0
	if p.InvestedValue != 0 {
		p.UnrealizedPLPercent = p.UnrealizedPL / p.InvestedValue * 100
	}
}

// quoteFor looks a position up by EXCHANGE:SYMBOL first, then by bare symbol.
// Non-positive prices count as missing.
func quoteFor(quotes map[string]float64, p *domain.Position) (float64, bool) {
	if price, ok := quotes[p.Instrument()]; ok && price > 0 {
		return price, true
	}
	if price, ok := quotes[p.Symbol]; ok && price > 0 {
		return price, true
	}
	return 0, false
}

// Value prices positions against quotes. A position without a quote is valued at
// its average buy price, so its unrealized P&L is exactly zero.
func Value(positions []domain.Position, quotes map[string]float64) Valuation {
	n := len(positions)
	valued := make([]ValuedPosition, n)
	current := make([]float64, n)
	invested := make([]float64, n)
	pl := make([]float64, n)

	for i, p := range positions {
		price, ok := quoteFor(quotes, &p)
		if !ok {
			price = p.AverageBuyPrice
		}
		ApplyPrice(&p, price)

		valued[i] = ValuedPosition{Position: p, Quoted: ok}
		current[i] = p.CurrentValue
		invested[i] = p.InvestedValue
		pl[i] = p.UnrealizedPL
	}

	v := Valuation{
		Positions:      valued,
		PortfolioValue: floats.Sum(current),
		InvestedValue:  floats.Sum(invested),
		TotalPL:        floats.Sum(pl),
	}

	if base := v.PortfolioValue - v.TotalPL; base != 0 {
		v.TotalPLPercent = v.TotalPL / base * 100
	}

	if v.PortfolioValue != 0 {
		floats.Scale(1/v.PortfolioValue, current)
		for i := range valued {
			valued[i].Weight = current[i]
		}
	}

	return v
}
