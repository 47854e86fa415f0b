// Package handlers provides HTTP handlers for market rate endpoints.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/fxrisk/internal/modules/rates"
)

// Handler provides HTTP handlers for rates endpoints
type Handler struct {
	service *rates.Service
	log     zerolog.Logger
}

// NewHandler creates a new rates handler
func NewHandler(service *rates.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "rates").Logger(),
	}
}

// HandleGetCurrent handles GET /api/rates/current?from=EUR&to=USD
func (h *Handler) HandleGetCurrent(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		h.writeError(w, http.StatusBadRequest, "from and to query parameters are required")
		return
	}

	rate, err := h.service.GetRate(from, to)
	if err != nil {
		h.log.Error().Err(err).Str("from", from).Str("to", to).Msg("Failed to get rate")
		h.writeError(w, http.StatusBadGateway, "Failed to get rate")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"from": from,
		"to":   to,
		"rate": rate,
	})
}

// HandleListPairs handles GET /api/rates/pairs
func (h *Handler) HandleListPairs(w http.ResponseWriter, r *http.Request) {
	pairs, err := h.service.ApprovedPairs()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list approved pairs")
		h.writeError(w, http.StatusInternalServerError, "Failed to list pairs")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"pairs": pairs})
}

// HandleAddPair handles POST /api/rates/pairs
func (h *Handler) HandleAddPair(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pair string `json:"pair"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	normalized, err := h.service.AddPair(req.Pair)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]string{"pair": normalized})
}

// HandleRemovePair handles DELETE /api/rates/pairs/{pair}
// The pair arrives in compact or dashed form ("EURUSD", "EUR-USD") because
// the canonical form contains a slash.
func (h *Handler) HandleRemovePair(w http.ResponseWriter, r *http.Request) {
	pair := chi.URLParam(r, "pair")

	if err := h.service.RemovePair(pair); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleGetHistory handles GET /api/rates/history/{pair}?days=30
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	pair := chi.URLParam(r, "pair")

	days := 30
	if d := r.URL.Query().Get("days"); d != "" {
		parsed, err := strconv.Atoi(d)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = parsed
	}

	points, err := h.service.History(pair, days)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"pair":   pair,
		"days":   days,
		"points": points,
	})
}

// HandleRefresh handles POST /api/rates/refresh
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RefreshAll(); err != nil {
		h.log.Error().Err(err).Msg("Manual rate refresh failed")
		h.writeError(w, http.StatusInternalServerError, "Refresh failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleStreamStatus handles GET /api/rates/stream
func (h *Handler) HandleStreamStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.Status())
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
