// Package handlers provides HTTP handlers for trade records.
package handlers

import (
	"net/http"

	"github.com/aristath/tradebook/internal/domain"
	"github.com/aristath/tradebook/internal/modules/trading"
	"github.com/aristath/tradebook/internal/utils"
	"github.com/rs/zerolog"
)

// TradingHandlers contains HTTP handlers for the trading API
type TradingHandlers struct {
	service *trading.TradingService
	log     zerolog.Logger
}

// NewTradingHandlers creates a new trading handlers instance
func NewTradingHandlers(service *trading.TradingService, log zerolog.Logger) *TradingHandlers {
	return &TradingHandlers{
		service: service,
		log:     log.With().Str("handler", "trading").Logger(),
	}
}

// importRequest is the body of a broker import
type importRequest struct {
	Trades []domain.Trade `json:"trades"`
}

// HandleListTrades returns the owner's trades, optionally filtered
// GET /api/owners/{ownerID}/trades?symbol=&type=&from=&to=
func (h *TradingHandlers) HandleListTrades(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.TradeFilter{
		Symbol: q.Get("symbol"),
		Side:   domain.Side(q.Get("type")),
		From:   q.Get("from"),
		To:     q.Get("to"),
	}

	trades, err := h.service.ListTrades(r.Context(), utils.OwnerID(r), filter)
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}

	utils.WriteJSON(w, h.log, http.StatusOK, map[string]interface{}{
		"trades": trades,
		"count":  len(trades),
	})
}

// HandleAddTrade records a manual trade
// POST /api/owners/{ownerID}/trades
func (h *TradingHandlers) HandleAddTrade(w http.ResponseWriter, r *http.Request) {
	var trade domain.Trade
	if err := utils.DecodeJSON(r, &trade); err != nil {
		utils.WriteError(w, h.log, err)
		return
	}
	trade.OwnerID = utils.OwnerID(r)
	trade.Source = domain.SourceManual

	created, err := h.service.AddTrade(r.Context(), trade)
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}

	utils.WriteJSON(w, h.log, http.StatusCreated, created)
}

// HandleImportTrades imports a batch of broker trades, skipping duplicates
// POST /api/owners/{ownerID}/trades/import
func (h *TradingHandlers) HandleImportTrades(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, h.log, err)
		return
	}

	result, err := h.service.ImportBrokerTrades(r.Context(), utils.OwnerID(r), req.Trades)
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}

	utils.WriteJSON(w, h.log, http.StatusOK, result)
}

// HandleGetTrade returns one trade
// GET /api/owners/{ownerID}/trades/{tradeID}
func (h *TradingHandlers) HandleGetTrade(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "tradeID")
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}

	trade, err := h.service.GetTrade(r.Context(), utils.OwnerID(r), id)
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}

	utils.WriteJSON(w, h.log, http.StatusOK, trade)
}

// HandleUpdateTrade applies an edit to a trade
// PUT /api/owners/{ownerID}/trades/{tradeID}
func (h *TradingHandlers) HandleUpdateTrade(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "tradeID")
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}

	var update trading.TradeUpdate
	if err := utils.DecodeJSON(r, &update); err != nil {
		utils.WriteError(w, h.log, err)
		return
	}

	trade, err := h.service.UpdateTrade(r.Context(), utils.OwnerID(r), id, update)
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}

	utils.WriteJSON(w, h.log, http.StatusOK, trade)
}

// HandleDeleteTrade removes a trade
// DELETE /api/owners/{ownerID}/trades/{tradeID}
func (h *TradingHandlers) HandleDeleteTrade(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "tradeID")
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}

	if err := h.service.DeleteTrade(r.Context(), utils.OwnerID(r), id); err != nil {
		utils.WriteError(w, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
