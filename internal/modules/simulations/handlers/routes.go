package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers simulation distribution routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/simulations", func(r chi.Router) {
		r.Get("/{id}", h.HandleGetDistribution)
		r.Post("/{id}/refresh", h.HandleRefresh)
	})
}
