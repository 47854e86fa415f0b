// Package handlers provides HTTP handlers for the hedging advisor.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aristath/fxrisk/internal/modules/hedging"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler holds dependencies for hedging endpoints.
type Handler struct {
	service *hedging.Service
	log     zerolog.Logger
}

// NewHandler creates a new hedging handler.
func NewHandler(service *hedging.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "hedging").Logger(),
	}
}

// HandleRecommend returns a hedge ratio recommendation for a position.
func (h *Handler) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	var req hedging.RecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rec, err := h.service.Recommend(req)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build recommendation")
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if rec == nil {
		h.writeError(w, http.StatusNotFound, "Exposure not found")
		return
	}

	h.writeJSON(w, http.StatusOK, rec)
}

// HandleScenarios runs rate-move scenarios against a position.
func (h *Handler) HandleScenarios(w http.ResponseWriter, r *http.Request) {
	var req hedging.ScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	report, err := h.service.Scenarios(req)
	if err != nil {
		h.log.Error().Err(err).Msg("Scenario run failed")
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if report == nil {
		h.writeError(w, http.StatusNotFound, "Exposure not found")
		return
	}

	h.writeJSON(w, http.StatusOK, report)
}

// HandlePnL attributes P&L to a hedge already in place.
func (h *Handler) HandlePnL(w http.ResponseWriter, r *http.Request) {
	var req hedging.PnLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	impact, err := h.service.PnL(req)
	if err != nil {
		h.log.Error().Err(err).Msg("P&L calculation failed")
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if impact == nil {
		h.writeError(w, http.StatusNotFound, "Exposure not found")
		return
	}

	h.writeJSON(w, http.StatusOK, impact)
}

// HandleCompare runs the same scenarios against several hedge ratios.
func (h *Handler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	var req hedging.CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	comparisons, err := h.service.Compare(req)
	if err != nil {
		h.log.Error().Err(err).Msg("Strategy comparison failed")
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if comparisons == nil {
		h.writeError(w, http.StatusNotFound, "Exposure not found")
		return
	}

	h.writeJSON(w, http.StatusOK, comparisons)
}

// HandleVolatility returns the volatility estimate for a pair. The pair is a
// query parameter because it contains a slash.
func (h *Handler) HandleVolatility(w http.ResponseWriter, r *http.Request) {
	pair := r.URL.Query().Get("pair")
	if pair == "" {
		h.writeError(w, http.StatusBadRequest, "pair query parameter is required")
		return
	}

	estimate := h.service.Volatility(pair)

	h.writeJSON(w, http.StatusOK, estimate)
}

// HandleRollover advises on a hedge approaching maturity.
func (h *Handler) HandleRollover(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	outlook := r.URL.Query().Get("outlook")

	advice, err := h.service.Rollover(id, outlook, time.Now().UTC())
	if err != nil {
		h.log.Error().Err(err).Msg("Rollover advice failed")
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if advice == nil {
		h.writeError(w, http.StatusNotFound, "Exposure not found")
		return
	}

	h.writeJSON(w, http.StatusOK, advice)
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
