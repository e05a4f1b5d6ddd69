package testing

import (
	"context"
	"sync"
)

// StaticQuotes is a domain.QuoteSource returning fixed prices
type StaticQuotes struct {
	mu     sync.Mutex
	prices map[string]float64
	err    error
	calls  int
}

// NewStaticQuotes creates a quote source keyed by EXCHANGE:SYMBOL
func NewStaticQuotes(prices map[string]float64) *StaticQuotes {
	return &StaticQuotes{prices: prices}
}

// SetError makes GetQuotes fail
func (q *StaticQuotes) SetError(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.err = err
}

// Calls returns how many times GetQuotes ran
func (q *StaticQuotes) Calls() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.calls
}

// GetQuotes returns the configured price for each known instrument
func (q *StaticQuotes) GetQuotes(ctx context.Context, ownerID string, instruments []string) (map[string]float64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls++
	if q.err != nil {
		return nil, q.err
	}
	out := make(map[string]float64)
	for _, inst := range instruments {
		if p, ok := q.prices[inst]; ok {
			out[inst] = p
		}
	}
	return out, nil
}
