// Package handlers provides HTTP handlers for positions and valuation.
package handlers

import (
	"net/http"

	"github.com/aristath/tradebook/internal/modules/portfolio"
	"github.com/aristath/tradebook/internal/utils"
	"github.com/rs/zerolog"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	service *portfolio.PortfolioService
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(service *portfolio.PortfolioService, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

// HandleGetPositions returns the stored positions
// GET /api/owners/{ownerID}/positions
func (h *Handler) HandleGetPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.service.GetPositions(r.Context(), utils.OwnerID(r))
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}

	utils.WriteJSON(w, h.log, http.StatusOK, map[string]interface{}{
		"positions": positions,
		"count":     len(positions),
	})
}

// HandleRecalculate rebuilds positions from the full trade history
// POST /api/owners/{ownerID}/positions/recalculate
func (h *Handler) HandleRecalculate(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Recalculate(r.Context(), utils.OwnerID(r))
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}

	utils.WriteJSON(w, h.log, http.StatusOK, result)
}

// HandleGetValuation prices the positions with current quotes
// GET /api/owners/{ownerID}/portfolio/valuation
func (h *Handler) HandleGetValuation(w http.ResponseWriter, r *http.Request) {
	valuation, err := h.service.Valuation(r.Context(), utils.OwnerID(r))
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}

	utils.WriteJSON(w, h.log, http.StatusOK, valuation)
}

// HandleRefreshPrices stores current prices on the positions
// POST /api/owners/{ownerID}/portfolio/refresh-prices
func (h *Handler) HandleRefreshPrices(w http.ResponseWriter, r *http.Request) {
	valuation, err := h.service.RefreshPrices(r.Context(), utils.OwnerID(r))
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}

	utils.WriteJSON(w, h.log, http.StatusOK, valuation)
}
