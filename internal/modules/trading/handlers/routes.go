package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all trading routes under an owner-scoped router
func (h *TradingHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/trades", func(r chi.Router) {
		r.Get("/", h.HandleListTrades)
		r.Post("/", h.HandleAddTrade)
		r.Post("/import", h.HandleImportTrades) // Broker import with duplicate skipping

		r.Get("/{tradeID}", h.HandleGetTrade)
		r.Put("/{tradeID}", h.HandleUpdateTrade)
		r.Delete("/{tradeID}", h.HandleDeleteTrade)
	})
}
