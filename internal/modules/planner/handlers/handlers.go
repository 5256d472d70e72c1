// Package handlers provides HTTP handlers for recommended actions.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/erold/cryptofolio/internal/domain"
	"github.com/erold/cryptofolio/internal/modules/planner"
)

// Handler handles action planner HTTP requests
type Handler struct {
	service *planner.Service
	log     zerolog.Logger
}

// NewHandler creates a new planner handler
func NewHandler(service *planner.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "planner").Logger(),
	}
}

// RegisterRoutes registers all planner routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/actions", h.HandleGetActions)
}

// HandleGetActions handles GET /api/actions
func (h *Handler) HandleGetActions(w http.ResponseWriter, r *http.Request) {
	currency := domain.Currency(r.URL.Query().Get("currency"))
	plan := h.service.Plan(currency)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(plan); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
