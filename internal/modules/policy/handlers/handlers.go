// Package handlers provides HTTP handlers for hedge policy management.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/aristath/fxrisk/internal/domain"
	"github.com/aristath/fxrisk/internal/modules/policy"
	"github.com/rs/zerolog"
)

// Handler handles hedge policy HTTP requests.
type Handler struct {
	service *policy.Service
	log     zerolog.Logger
}

// NewHandler creates a new policy handler.
func NewHandler(service *policy.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "policy").Logger(),
	}
}

// OverrideRequest pins a manual hedge ratio on one exposure.
type OverrideRequest struct {
	ExposureID string  `json:"exposure_id"`
	HedgeRatio float64 `json:"hedge_ratio"`
}

// HandleGetTiers handles GET /api/policy/tiers
func (h *Handler) HandleGetTiers(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.service.GetPolicyTiers(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get policy tiers")
		h.writeError(w, http.StatusInternalServerError, "Failed to get policy tiers")
		return
	}

	h.writeJSON(w, http.StatusOK, tiers)
}

// HandleUpdateTiers handles PUT /api/policy/tiers
func (h *Handler) HandleUpdateTiers(w http.ResponseWriter, r *http.Request) {
	var tiers domain.PolicyTiers
	if err := json.NewDecoder(r.Body).Decode(&tiers); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.service.UpdateTiers(tiers)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to update policy tiers")
		h.writeError(w, http.StatusInternalServerError, "Failed to update policy tiers")
		return
	}

	h.writeJSON(w, http.StatusOK, updated)
}

// HandleApplyCascade handles POST /api/policy/cascade
func (h *Handler) HandleApplyCascade(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ApplyCascade()
	if err != nil {
		h.log.Error().Err(err).Msg("Policy cascade failed")
		h.writeError(w, http.StatusInternalServerError, "Policy cascade failed")
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandlePreviewCascade handles GET /api/policy/cascade/preview
func (h *Handler) HandlePreviewCascade(w http.ResponseWriter, r *http.Request) {
	preview, err := h.service.PreviewCascade()
	if err != nil {
		h.log.Error().Err(err).Msg("Cascade preview failed")
		h.writeError(w, http.StatusInternalServerError, "Cascade preview failed")
		return
	}

	h.writeJSON(w, http.StatusOK, preview)
}

// HandleSetOverride handles POST /api/policy/override
func (h *Handler) HandleSetOverride(w http.ResponseWriter, r *http.Request) {
	var req OverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ExposureID == "" {
		h.writeError(w, http.StatusBadRequest, "exposure_id is required")
		return
	}

	found, err := h.service.SetOverride(req.ExposureID, req.HedgeRatio)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !found {
		h.writeError(w, http.StatusNotFound, "Exposure not found")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"exposure_id": req.ExposureID,
		"hedge_ratio": req.HedgeRatio,
		"message":     "Manual override set. This exposure will not be affected by policy cascades.",
	})
}

// HandleAuditLog handles GET /api/policy/audit
func (h *Handler) HandleAuditLog(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Query().Get("run_id")
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	entries, err := h.service.AuditLog(runID, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list audit entries")
		h.writeError(w, http.StatusInternalServerError, "Failed to list audit entries")
		return
	}

	h.writeJSON(w, http.StatusOK, entries)
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
