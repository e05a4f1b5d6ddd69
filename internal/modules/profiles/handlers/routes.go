package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers profile and watchlist routes under an owner-scoped router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/broker-profiles", func(r chi.Router) {
		r.Get("/", h.HandleListProfiles)
		r.Post("/", h.HandleCreateProfile)
		r.Put("/{profileID}", h.HandleUpdateProfile)
		r.Delete("/{profileID}", h.HandleDeleteProfile)
	})

	// Watchlists stay local and are never mirrored
	r.Route("/watchlist", func(r chi.Router) {
		r.Get("/", h.HandleListWatchlist)
		r.Post("/", h.HandleAddToWatchlist)
		r.Delete("/{itemID}", h.HandleRemoveFromWatchlist)
	})
}
