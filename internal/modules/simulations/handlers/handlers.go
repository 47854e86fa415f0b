// Package handlers provides HTTP handlers for simulation distributions.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/fxrisk/internal/modules/simulations"
)

// Handler holds dependencies for simulation endpoints.
type Handler struct {
	service *simulations.Service
	log     zerolog.Logger
}

// NewHandler creates a new simulations handler.
func NewHandler(service *simulations.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "simulations").Logger(),
	}
}

// HandleGetDistribution returns the simulated P&L distribution for one
// exposure. Optional query parameters: horizon_days, bins.
func (h *Handler) HandleGetDistribution(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	horizonDays := intQuery(r, "horizon_days")
	bins := intQuery(r, "bins")

	dist, err := h.service.Get(r.Context(), id, horizonDays, bins)
	if err != nil {
		h.log.Error().Err(err).Str("exposure_id", id).Msg("Failed to get simulation distribution")
		h.writeError(w, http.StatusServiceUnavailable, "Simulation service not available")
		return
	}

	h.writeJSON(w, http.StatusOK, dist)
}

// HandleRefresh drops the cached run and fetches a fresh one.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	horizonDays := intQuery(r, "horizon_days")
	bins := intQuery(r, "bins")

	dist, err := h.service.Refresh(r.Context(), id, horizonDays, bins)
	if err != nil {
		h.log.Error().Err(err).Str("exposure_id", id).Msg("Failed to refresh simulation")
		h.writeError(w, http.StatusServiceUnavailable, "Simulation service not available")
		return
	}

	h.writeJSON(w, http.StatusOK, dist)
}

// intQuery parses an integer query parameter, 0 when absent or malformed.
func intQuery(r *http.Request, name string) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return v
}

// Helper methods

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
