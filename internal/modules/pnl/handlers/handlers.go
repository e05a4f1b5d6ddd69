// Package handlers provides HTTP handlers for P&L reports.
package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/aristath/tradebook/internal/domain"
	"github.com/aristath/tradebook/internal/modules/pnl"
	"github.com/aristath/tradebook/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles P&L HTTP requests
type Handler struct {
	service *pnl.PnLService
	log     zerolog.Logger
}

// NewHandler creates a new P&L handler
func NewHandler(service *pnl.PnLService, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "pnl").Logger(),
	}
}

// RegisterRoutes registers the P&L routes under an owner-scoped router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/pnl", func(r chi.Router) {
		r.Get("/realized", h.HandleGetRealized)
		r.Get("/total", h.HandleGetTotal)
	})
}

// HandleGetRealized returns FIFO realized P&L, optionally for one symbol or period
// GET /api/owners/{ownerID}/pnl/realized?symbol=&from=&to=
func (h *Handler) HandleGetRealized(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := pnl.Query{
		Symbol: q.Get("symbol"),
		From:   q.Get("from"),
		To:     q.Get("to"),
	}

	for name, value := range map[string]string{"from": query.From, "to": query.To} {
		if value == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", value); err != nil {
			utils.WriteError(w, h.log, fmt.Errorf("%w: %s must be YYYY-MM-DD", domain.ErrValidation, name))
			return
		}
	}

	report, err := h.service.Realized(r.Context(), utils.OwnerID(r), query)
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}

	utils.WriteJSON(w, h.log, http.StatusOK, report)
}

// HandleGetTotal returns realized plus unrealized P&L
// GET /api/owners/{ownerID}/pnl/total
func (h *Handler) HandleGetTotal(w http.ResponseWriter, r *http.Request) {
	total, err := h.service.Total(r.Context(), utils.OwnerID(r))
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}

	utils.WriteJSON(w, h.log, http.StatusOK, total)
}
