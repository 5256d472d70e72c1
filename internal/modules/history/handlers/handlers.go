// Package handlers provides HTTP handlers for portfolio history.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/erold/cryptofolio/internal/domain"
	"github.com/erold/cryptofolio/internal/modules/history"
)

// Handler handles history HTTP requests
type Handler struct {
	service *history.Service
	log     zerolog.Logger
}

// NewHandler creates a new history handler
func NewHandler(service *history.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "history").Logger(),
	}
}

// RegisterRoutes registers all history routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/history", func(r chi.Router) {
		r.Get("/", h.HandleGetHistory)
		r.Get("/snapshots", h.HandleGetSnapshots)
	})
}

// HandleGetHistory handles GET /api/history?range=N[&compare=btc][&currency=EUR|USD]
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	rangeDays := 0
	if raw := r.URL.Query().Get("range"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "Invalid range", http.StatusBadRequest)
			return
		}
		rangeDays = parsed
	}

	currency := domain.Currency(r.URL.Query().Get("currency"))
	compareBTC := r.URL.Query().Get("compare") == "btc"

	resp, err := h.service.History(rangeDays, currency, compareBTC)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to reconstruct history")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// HandleGetSnapshots handles GET /api/history/snapshots?range=N
func (h *Handler) HandleGetSnapshots(w http.ResponseWriter, r *http.Request) {
	rangeDays := 0
	if raw := r.URL.Query().Get("range"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "Invalid range", http.StatusBadRequest)
			return
		}
		rangeDays = parsed
	}

	snapshots, err := h.service.Snapshots(rangeDays)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load snapshots")
		http.Error(w, "Failed to load snapshots", http.StatusInternalServerError)
		return
	}
	if snapshots == nil {
		snapshots = []domain.Snapshot{}
	}

	h.writeJSON(w, http.StatusOK, snapshots)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
