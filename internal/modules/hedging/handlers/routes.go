package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers hedging advisor routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/hedging", func(r chi.Router) {
		r.Post("/recommend", h.HandleRecommend)
		r.Post("/scenarios", h.HandleScenarios)
		r.Post("/pnl", h.HandlePnL)
		r.Post("/compare", h.HandleCompare)
		r.Get("/volatility", h.HandleVolatility)
		r.Get("/rollover/{id}", h.HandleRollover)
	})
}
