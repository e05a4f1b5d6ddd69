// Package quotes fetches last traded prices from the broker service.
package quotes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aristath/tradebook/internal/clientdata"
	"github.com/aristath/tradebook/internal/domain"
	"github.com/rs/zerolog"
)

// Client for the broker service LTP endpoint
type Client struct {
	baseURL   string
	client    *http.Client
	cacheRepo *clientdata.Repository
	cacheTTL  time.Duration
	log       zerolog.Logger
}

var _ domain.QuoteSource = (*Client)(nil)

// NewClient creates a new quote client.
// cacheRepo is optional - if nil, caching is disabled
func NewClient(baseURL string, timeout, cacheTTL time.Duration, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: timeout},
		cacheRepo: cacheRepo,
		cacheTTL:  cacheTTL,
		log:       log.With().Str("client", "quotes").Logger(),
	}
}

// cachedQuote is the structure stored in the cache
type cachedQuote struct {
	Price float64 `json:"price"`
}

type ltpRequest struct {
	UserID  string   `json:"userId"`
	Symbols []string `json:"symbols"`
}

type ltpQuote struct {
	LastPrice float64 `json:"last_price"`
}

type ltpResponse struct {
	Success bool                `json:"success"`
	Error   string              `json:"error"`
	Data    map[string]ltpQuote `json:"data"`
}

// GetQuotes returns the last price per EXCHANGE:SYMBOL instrument.
//
// Fresh cached prices are served without a call. When the call fails, stale
// cached prices are returned instead; an error is returned only when no
// price at all is available.
func (c *Client) GetQuotes(ctx context.Context, ownerID string, instruments []string) (map[string]float64, error) {
	quotes := make(map[string]float64, len(instruments))
	missing := make([]string, 0, len(instruments))

	for _, inst := range instruments {
		if price, ok := c.cached(ctx, inst, true); ok {
			quotes[inst] = price
			continue
		}
		missing = append(missing, inst)
	}

	if len(missing) == 0 {
		c.log.Debug().Int("instruments", len(instruments)).Msg("Cache hit")
		return quotes, nil
	}

	fetched, err := c.fetch(ctx, ownerID, missing)
	if err != nil {
		stale := 0
		for _, inst := range missing {
			if price, ok := c.cached(ctx, inst, false); ok {
				quotes[inst] = price
				stale++
			}
		}
		if len(quotes) == 0 {
			return nil, err
		}
		c.log.Warn().Err(err).Int("stale", stale).Msg("Quote service failed, using cached prices")
		return quotes, nil
	}

	for inst, price := range fetched {
		quotes[inst] = price
		if c.cacheRepo != nil {
			if err := c.cacheRepo.Store(ctx, clientdata.TableCurrentPrices, inst, cachedQuote{Price: price}, c.cacheTTL); err != nil {
				c.log.Warn().Err(err).Str("instrument", inst).Msg("Failed to cache price")
			}
		}
	}

	c.log.Debug().
		Int("requested", len(missing)).
		Int("returned", len(fetched)).
		Msg("Fetched prices")

	return quotes, nil
}

func (c *Client) fetch(ctx context.Context, ownerID string, instruments []string) (map[string]float64, error) {
	body, err := json.Marshal(ltpRequest{UserID: ownerID, Symbols: instruments})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/kite/ltp", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote request failed: %w", err)
	}
	defer resp.Body.Close()

	var result ltpResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse quote response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !result.Success {
		return nil, fmt.Errorf("quote service returned status %d: %s", resp.StatusCode, result.Error)
	}

	out := make(map[string]float64, len(result.Data))
	for inst, q := range result.Data {
		if q.LastPrice > 0 {
			out[inst] = q.LastPrice
		}
	}
	return out, nil
}

func (c *Client) cached(ctx context.Context, instrument string, freshOnly bool) (float64, bool) {
	if c.cacheRepo == nil {
		return 0, false
	}

	var (
		data json.RawMessage
		err  error
	)
	if freshOnly {
		data, err = c.cacheRepo.GetIfFresh(ctx, clientdata.TableCurrentPrices, instrument)
	} else {
		data, err = c.cacheRepo.Get(ctx, clientdata.TableCurrentPrices, instrument)
	}
	if err != nil || data == nil {
		return 0, false
	}

	var q cachedQuote
	if err := json.Unmarshal(data, &q); err != nil {
		return 0, false
	}
	return q.Price, true
}
