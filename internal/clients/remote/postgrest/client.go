// Package postgrest is a remote mirror store over a PostgREST (Supabase) API.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aristath/tradebook/internal/domain"
	"github.com/rs/zerolog"
)

// Client talks to {baseURL}/rest/v1/{table}
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

var _ domain.RemoteStore = (*Client)(nil)

// NewClient creates a new PostgREST client. apiKey is sent as both the apikey
// header and the bearer token.
func NewClient(baseURL, apiKey string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/rest/v1/",
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("client", "postgrest").Logger(),
	}
}

// apiError is the PostgREST error body
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func filterQuery(filter domain.Filter) url.Values {
	q := url.Values{}
	for col, v := range filter {
		q.Set(col, "eq."+fmt.Sprint(v))
	}
	return q
}

func (c *Client) do(ctx context.Context, method, table string, query url.Values, body interface{}, prefer string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s body: %w", table, err)
		}
		reader = bytes.NewReader(data)
	}

	u := c.baseURL + url.PathEscape(table)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	c.log.Debug().Str("method", method).Str("table", table).Msg("Remote request")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", method, table, err)
	}

	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		var apiErr apiError
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("%s %s returned status %d: %s", method, table, resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("%s %s returned status %d: %s", method, table, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return resp, nil
}

func (c *Client) exec(ctx context.Context, method, table string, query url.Values, body interface{}, prefer string) error {
	resp, err := c.do(ctx, method, table, query, body, prefer)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// Select returns rows matching the filter
func (c *Client) Select(ctx context.Context, table string, filter domain.Filter) ([]domain.Row, error) {
	query := filterQuery(filter)
	query.Set("select", "*")

	resp, err := c.do(ctx, http.MethodGet, table, query, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var rows []domain.Row
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode %s rows: %w", table, err)
	}
	return rows, nil
}

// Insert adds rows
func (c *Client) Insert(ctx context.Context, table string, rows []domain.Row) error {
	if len(rows) == 0 {
		return nil
	}
	return c.exec(ctx, http.MethodPost, table, nil, rows, "return=minimal")
}

// Update sets values on every row matching the filter
func (c *Client) Update(ctx context.Context, table string, filter domain.Filter, values domain.Row) error {
	return c.exec(ctx, http.MethodPatch, table, filterQuery(filter), values, "return=minimal")
}

// Delete removes every row matching the filter
func (c *Client) Delete(ctx context.Context, table string, filter domain.Filter) error {
	if len(filter) == 0 {
		return fmt.Errorf("refusing to delete from %s without a filter", table)
	}
	return c.exec(ctx, http.MethodDelete, table, filterQuery(filter), nil, "return=minimal")
}

// Upsert merges rows on the conflict columns
func (c *Client) Upsert(ctx context.Context, table string, rows []domain.Row, conflictColumns []string) error {
	if len(rows) == 0 {
		return nil
	}
	query := url.Values{}
	if len(conflictColumns) > 0 {
		query.Set("on_conflict", strings.Join(conflictColumns, ","))
	}
	return c.exec(ctx, http.MethodPost, table, query, rows, "resolution=merge-duplicates,return=minimal")
}
