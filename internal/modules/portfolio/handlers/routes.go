package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all portfolio routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolio", func(r chi.Router) {
		r.Get("/", h.HandleGetPortfolio)
		r.Post("/sync", h.HandleSync)
	})
	r.Route("/transactions", func(r chi.Router) {
		r.Get("/", h.HandleGetTransactions)
		r.Post("/", h.HandleAddTransaction)
		r.Delete("/{id}", h.HandleDeleteTransaction)
	})
	r.Route("/targets", func(r chi.Router) {
		r.Get("/", h.HandleGetTargets)
		r.Post("/", h.HandleAddTarget)
		r.Delete("/{id}", h.HandleDeleteTarget)
	})
}
