package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all portfolio routes under an owner-scoped router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/positions", func(r chi.Router) {
		r.Get("/", h.HandleGetPositions)
		r.Post("/recalculate", h.HandleRecalculate)
	})

	r.Route("/portfolio", func(r chi.Router) {
		r.Get("/valuation", h.HandleGetValuation)
		r.Post("/refresh-prices", h.HandleRefreshPrices)
	})
}
