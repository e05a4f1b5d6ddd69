package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/aristath/tradebook/internal/database"
	"github.com/aristath/tradebook/internal/domain"
	"github.com/aristath/tradebook/internal/modules/portfolio"
	"github.com/aristath/tradebook/internal/modules/trading"
	testingpkg "github.com/aristath/tradebook/internal/testing"
	"github.com/aristath/tradebook/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (http.Handler, *portfolio.PositionRepository) {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, database.NameTradebook)
	t.Cleanup(cleanup)

	log := testingpkg.NewTestLogger()
	locks := utils.NewOwnerLocks()
	trades := trading.NewTradeRepository(db.Conn(), log)
	positions := portfolio.NewPositionRepository(db.Conn(), log)
	portfolioService := portfolio.NewPortfolioService(trades, positions, nil, locks, log)
	service := trading.NewTradingService(trades, portfolioService, locks, log)

	router := chi.NewRouter()
	router.Route("/api/owners/{ownerID}", NewTradingHandlers(service, log).RegisterRoutes)
	return router, positions
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRegisterRoutes(t *testing.T) {
	router := chi.NewRouter()
	handler := NewTradingHandlers(nil, testingpkg.NewTestLogger())

	assert.NotPanics(t, func() {
		handler.RegisterRoutes(router)
	})
}

func TestHandleAddTrade_RecomputesPositions(t *testing.T) {
	router, positions := setupRouter(t)

	rec := do(t, router, http.MethodPost, "/api/owners/u1/trades",
		`{"symbol":"infy","exchange":"NSE","type":"BUY","quantity":10,"price":100,"tradeDate":"2024-01-10"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created domain.Trade
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "INFY", created.Symbol)
	assert.Equal(t, "u1", created.OwnerID)
	assert.Equal(t, domain.SourceManual, created.Source)
	assert.NotZero(t, created.ID)

	position, err := positions.GetBySymbol(context.Background(), "u1", "INFY")
	require.NoError(t, err)
	require.NotNil(t, position)
	assert.Equal(t, int64(10), position.Quantity)
}

func TestHandleAddTrade_Validation(t *testing.T) {
	router, _ := setupRouter(t)

	rec := do(t, router, http.MethodPost, "/api/owners/u1/trades",
		`{"symbol":"INFY","type":"BUY","quantity":0,"price":100,"tradeDate":"2024-01-10"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/owners/u1/trades", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleTradeLifecycle(t *testing.T) {
	router, _ := setupRouter(t)

	rec := do(t, router, http.MethodPost, "/api/owners/u1/trades",
		`{"symbol":"TCS","exchange":"NSE","type":"BUY","quantity":2,"price":3000,"tradeDate":"2024-01-12"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created domain.Trade
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	path := "/api/owners/u1/trades/" + strconv.FormatInt(created.ID, 10)

	rec = do(t, router, http.MethodGet, path, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPut, path, `{"quantity":4}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated domain.Trade
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, int64(4), updated.Quantity)

	// Other owners cannot see the trade
	rec = do(t, router, http.MethodGet, "/api/owners/u2/trades/"+strconv.FormatInt(created.ID, 10), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/owners/u1/trades/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleListTrades_Filter(t *testing.T) {
	router, _ := setupRouter(t)

	for _, body := range []string{
		`{"symbol":"INFY","exchange":"NSE","type":"BUY","quantity":10,"price":100,"tradeDate":"2024-01-10"}`,
		`{"symbol":"TCS","exchange":"NSE","type":"BUY","quantity":2,"price":3000,"tradeDate":"2024-01-12"}`,
		`{"symbol":"INFY","exchange":"NSE","type":"SELL","quantity":5,"price":130,"tradeDate":"2024-03-05"}`,
	} {
		require.Equal(t, http.StatusCreated, do(t, router, http.MethodPost, "/api/owners/u1/trades", body).Code)
	}

	rec := do(t, router, http.MethodGet, "/api/owners/u1/trades?symbol=INFY", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Trades []domain.Trade `json:"trades"`
		Count  int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "2024-01-10", resp.Trades[0].TradeDate)

	rec = do(t, router, http.MethodGet, "/api/owners/u1/trades?type=SELL", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
}

func TestHandleImportTrades_SkipsDuplicates(t *testing.T) {
	router, _ := setupRouter(t)

	body := `{"trades":[
		{"symbol":"INFY","exchange":"NSE","type":"BUY","quantity":10,"price":100,"tradeDate":"2024-01-10"},
		{"symbol":"INFY","exchange":"NSE","type":"BUY","quantity":10,"price":100,"tradeDate":"2024-01-10"}
	]}`

	rec := do(t, router, http.MethodPost, "/api/owners/u1/trades/import", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result trading.ImportResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Skipped)
}
