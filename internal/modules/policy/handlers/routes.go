package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all policy module routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/policy", func(r chi.Router) {
		r.Get("/tiers", h.HandleGetTiers)
		r.Put("/tiers", h.HandleUpdateTiers)
		r.Post("/cascade", h.HandleApplyCascade)
		r.Get("/cascade/preview", h.HandlePreviewCascade)
		r.Post("/override", h.HandleSetOverride)
		r.Get("/audit", h.HandleAuditLog)
	})
}
