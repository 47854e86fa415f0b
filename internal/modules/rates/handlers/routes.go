package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all rates routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/rates", func(r chi.Router) {
		r.Get("/current", h.HandleGetCurrent)
		r.Get("/stream", h.HandleStreamStatus)
		r.Post("/refresh", h.HandleRefresh)

		r.Route("/pairs", func(r chi.Router) {
			r.Get("/", h.HandleListPairs)
			r.Post("/", h.HandleAddPair)
			r.Delete("/{pair}", h.HandleRemovePair)
		})

		r.Get("/history/{pair}", h.HandleGetHistory)
	})
}
