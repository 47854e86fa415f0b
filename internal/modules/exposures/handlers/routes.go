package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers exposure routes on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/exposures", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Get("/summary", h.HandleSummary)
		r.Get("/export", h.HandleExport)
		r.Post("/import", h.HandleImport)
		r.Get("/imports", h.HandleImportHistory)
		r.Post("/refresh", h.HandleRefresh)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
	})
}
