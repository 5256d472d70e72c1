// Package handlers provides HTTP handlers for portfolio operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/erold/cryptofolio/internal/domain"
	"github.com/erold/cryptofolio/internal/modules/portfolio"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	service *portfolio.Service
	sync    *portfolio.WalletSyncService
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(service *portfolio.Service, sync *portfolio.WalletSyncService, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		sync:    sync,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

// HandleGetPortfolio handles GET /api/portfolio
func (h *Handler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	currency := domain.Currency(r.URL.Query().Get("currency"))

	overview, err := h.service.Overview(currency)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build portfolio overview")
		http.Error(w, "Failed to build portfolio overview", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, overview)
}

// HandleSync handles POST /api/portfolio/sync
func (h *Handler) HandleSync(w http.ResponseWriter, r *http.Request) {
	report, err := h.sync.SyncAll(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Wallet sync failed")
		http.Error(w, "Wallet sync failed", http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if report.Skipped {
		// A sync is already running; tell the client explicitly instead of
		// pretending this call did work.
		status = http.StatusConflict
	}
	h.writeJSON(w, status, report)
}

// HandleGetTransactions handles GET /api/transactions
func (h *Handler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.service.Transactions()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load transactions")
		http.Error(w, "Failed to load transactions", http.StatusInternalServerError)
		return
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	h.writeJSON(w, http.StatusOK, txs)
}

// HandleAddTransaction handles POST /api/transactions
func (h *Handler) HandleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var tx domain.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id, err := h.service.AddTransaction(tx)
	if err != nil {
		h.log.Warn().Err(err).Msg("Rejected transaction")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{"id": id})
}

// HandleDeleteTransaction handles DELETE /api/transactions/{id}
func (h *Handler) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid transaction id", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteTransaction(id); err != nil {
		h.log.Warn().Err(err).Int64("id", id).Msg("Failed to delete transaction")
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": id})
}

// HandleGetTargets handles GET /api/targets
func (h *Handler) HandleGetTargets(w http.ResponseWriter, r *http.Request) {
	targets, err := h.service.Targets()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load price targets")
		http.Error(w, "Failed to load price targets", http.StatusInternalServerError)
		return
	}
	if targets == nil {
		targets = []domain.PriceTarget{}
	}
	h.writeJSON(w, http.StatusOK, targets)
}

// HandleAddTarget handles POST /api/targets
func (h *Handler) HandleAddTarget(w http.ResponseWriter, r *http.Request) {
	var target domain.PriceTarget
	if err := json.NewDecoder(r.Body).Decode(&target); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id, err := h.service.AddTarget(target)
	if err != nil {
		h.log.Warn().Err(err).Msg("Rejected price target")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{"id": id})
}

// HandleDeleteTarget handles DELETE /api/targets/{id}
func (h *Handler) HandleDeleteTarget(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid target id", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteTarget(id); err != nil {
		h.log.Warn().Err(err).Int64("id", id).Msg("Failed to delete target")
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": id})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
