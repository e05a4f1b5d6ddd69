// Package handlers provides HTTP handlers for broker profiles and watchlists.
package handlers

import (
	"net/http"

	"github.com/aristath/tradebook/internal/domain"
	"github.com/aristath/tradebook/internal/modules/profiles"
	"github.com/aristath/tradebook/internal/utils"
	"github.com/rs/zerolog"
)

// Handler handles broker profile and watchlist HTTP requests
type Handler struct {
	service *profiles.ProfileService
	log     zerolog.Logger
}

// NewHandler creates a new profiles handler
func NewHandler(service *profiles.ProfileService, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "profiles").Logger(),
	}
}

// HandleListProfiles returns the owner's broker profiles
// GET /api/owners/{ownerID}/broker-profiles
func (h *Handler) HandleListProfiles(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListProfiles(r.Context(), utils.OwnerID(r))
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}
	utils.WriteJSON(w, h.log, http.StatusOK, map[string]interface{}{"profiles": list})
}

// HandleCreateProfile stores a broker profile
// POST /api/owners/{ownerID}/broker-profiles
func (h *Handler) HandleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var profile domain.BrokerProfile
	if err := utils.DecodeJSON(r, &profile); err != nil {
		utils.WriteError(w, h.log, err)
		return
	}
	profile.OwnerID = utils.OwnerID(r)

	created, err := h.service.CreateProfile(r.Context(), profile)
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}
	utils.WriteJSON(w, h.log, http.StatusCreated, created)
}

// HandleUpdateProfile edits a broker profile
// PUT /api/owners/{ownerID}/broker-profiles/{profileID}
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "profileID")
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}

	var update profiles.ProfileUpdate
	if err := utils.DecodeJSON(r, &update); err != nil {
		utils.WriteError(w, h.log, err)
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), utils.OwnerID(r), id, update)
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}
	utils.WriteJSON(w, h.log, http.StatusOK, profile)
}

// HandleDeleteProfile removes a broker profile
// DELETE /api/owners/{ownerID}/broker-profiles/{profileID}
func (h *Handler) HandleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "profileID")
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}

	if err := h.service.DeleteProfile(r.Context(), utils.OwnerID(r), id); err != nil {
		utils.WriteError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListWatchlist returns watchlist items, all lists unless ?list= is given
// GET /api/owners/{ownerID}/watchlist
func (h *Handler) HandleListWatchlist(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListWatchlist(r.Context(), utils.OwnerID(r), r.URL.Query().Get("list"))
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}
	utils.WriteJSON(w, h.log, http.StatusOK, map[string]interface{}{"items": items})
}

// HandleAddToWatchlist adds a symbol to a watchlist
// POST /api/owners/{ownerID}/watchlist
func (h *Handler) HandleAddToWatchlist(w http.ResponseWriter, r *http.Request) {
	var item domain.WatchlistItem
	if err := utils.DecodeJSON(r, &item); err != nil {
		utils.WriteError(w, h.log, err)
		return
	}
	item.OwnerID = utils.OwnerID(r)

	added, err := h.service.AddToWatchlist(r.Context(), item)
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}
	utils.WriteJSON(w, h.log, http.StatusCreated, added)
}

// HandleRemoveFromWatchlist deletes a watchlist item
// DELETE /api/owners/{ownerID}/watchlist/{itemID}
func (h *Handler) HandleRemoveFromWatchlist(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "itemID")
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}

	if err := h.service.RemoveFromWatchlist(r.Context(), utils.OwnerID(r), id); err != nil {
		utils.WriteError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
