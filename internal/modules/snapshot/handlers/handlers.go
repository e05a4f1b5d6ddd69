// Package handlers provides HTTP handlers for JSON export and import.
package handlers

import (
	"fmt"
	"net/http"

	"github.com/aristath/tradebook/internal/modules/snapshot"
	"github.com/aristath/tradebook/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles snapshot HTTP requests
type Handler struct {
	store *snapshot.Store
	locks *utils.OwnerLocks
	log   zerolog.Logger
}

// NewHandler creates a new snapshot handler
func NewHandler(store *snapshot.Store, locks *utils.OwnerLocks, log zerolog.Logger) *Handler {
	return &Handler{
		store: store,
		locks: locks,
		log:   log.With().Str("handler", "snapshot").Logger(),
	}
}

// RegisterRoutes registers export and import under an owner-scoped router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/export", h.HandleExport)
	r.Post("/import", h.HandleImport)
}

// HandleExport downloads the owner's data as a snapshot document
// GET /api/owners/{ownerID}/export
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ownerID := utils.OwnerID(r)

	doc, err := h.store.Export(r.Context(), ownerID)
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}

	filename := fmt.Sprintf("tradebook-%s-%s.json", ownerID, doc.ExportDate.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := snapshot.WriteDocument(w, doc); err != nil {
		h.log.Error().Err(err).Msg("Failed to write export")
	}
}

// HandleImport adds the records of an uploaded snapshot document
// POST /api/owners/{ownerID}/import
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	doc, err := snapshot.ReadDocument(r.Body)
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}

	ownerID := utils.OwnerID(r)
	unlock := h.locks.Lock(ownerID)
	defer unlock()

	counts, err := h.store.Import(r.Context(), ownerID, doc)
	if err != nil {
		utils.WriteError(w, h.log, err)
		return
	}

	utils.WriteJSON(w, h.log, http.StatusOK, counts)
}
