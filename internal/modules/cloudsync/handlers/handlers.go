// Package handlers provides the HTTP handler for manual cloud sync.
package handlers

import (
	"net/http"

	"github.com/aristath/tradebook/internal/modules/cloudsync"
	"github.com/aristath/tradebook/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles sync HTTP requests
type Handler struct {
	reconciler *cloudsync.Reconciler
	log        zerolog.Logger
}

// NewHandler creates a new sync handler
func NewHandler(reconciler *cloudsync.Reconciler, log zerolog.Logger) *Handler {
	return &Handler{
		reconciler: reconciler,
		log:        log.With().Str("handler", "cloudsync").Logger(),
	}
}

// RegisterRoutes registers the sync route under an owner-scoped router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sync", h.HandleSync)
}

// HandleSync reconciles the owner's local data with the remote mirror.
// Returns 409 when no remote is configured.
// POST /api/owners/{ownerID}/sync
func (h *Handler) HandleSync(w http.ResponseWriter, r *http.Request) {
	result, err := h.reconciler.Sync(r.Context(), utils.OwnerID(r))
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}

	utils.WriteJSON(w, h.log, http.StatusOK, result)
}
