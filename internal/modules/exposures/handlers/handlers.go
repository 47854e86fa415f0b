// Package handlers provides HTTP handlers for the exposure book: CRUD,
// portfolio summary, CSV import/export and the market-rate refresh.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/aristath/fxrisk/internal/analytics"
	"github.com/aristath/fxrisk/internal/domain"
	"github.com/aristath/fxrisk/internal/modules/exposures"
	"github.com/aristath/fxrisk/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// maxUploadSize caps CSV uploads at 10MB.
const maxUploadSize = 10 << 20

// Handler handles exposure HTTP requests.
type Handler struct {
	service  *exposures.Service
	importer *exposures.Importer
	log      zerolog.Logger
}

// NewHandler creates a new exposure handler.
func NewHandler(service *exposures.Service, importer *exposures.Importer, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		importer: importer,
		log:      log.With().Str("handler", "exposures").Logger(),
	}
}

// HandleList handles GET /api/exposures. Filter predicates arrive as query
// parameters: pair, start_date, end_date, min_amount, max_amount, search.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	spec, err := filterFromQuery(r.URL.Query())
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	views, err := h.service.List(spec)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list exposures")
		h.writeError(w, http.StatusInternalServerError, "Failed to list exposures")
		return
	}

	h.writeJSON(w, http.StatusOK, views)
}

// HandleGet handles GET /api/exposures/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	view, err := h.service.Get(id)
	if err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to get exposure")
		h.writeError(w, http.StatusInternalServerError, "Failed to get exposure")
		return
	}
	if view == nil {
		h.writeError(w, http.StatusNotFound, "Exposure not found")
		return
	}

	h.writeJSON(w, http.StatusOK, view)
}

// HandleCreate handles POST /api/exposures
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var exp domain.Exposure
	if err := json.NewDecoder(r.Body).Decode(&exp); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.service.Create(exp)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, created)
}

// HandleUpdate handles PUT /api/exposures/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var exp domain.Exposure
	if err := json.NewDecoder(r.Body).Decode(&exp); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.service.Update(id, exp)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if updated == nil {
		h.writeError(w, http.StatusNotFound, "Exposure not found")
		return
	}

	h.writeJSON(w, http.StatusOK, updated)
}

// HandleDelete handles DELETE /api/exposures/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(id); err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to delete exposure")
		h.writeError(w, http.StatusInternalServerError, "Failed to delete exposure")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleSummary handles GET /api/exposures/summary
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build portfolio summary")
		h.writeError(w, http.StatusInternalServerError, "Failed to build portfolio summary")
		return
	}

	h.writeJSON(w, http.StatusOK, summary)
}

// HandleExport handles GET /api/exposures/export, returning the book as a
// CSV attachment.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	csvText, err := h.service.ExportCSV()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to export exposures")
		h.writeError(w, http.StatusInternalServerError, "Failed to export exposures")
		return
	}

	filename := fmt.Sprintf("exposures_%s.csv", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write([]byte(csvText)); err != nil {
		h.log.Error().Err(err).Msg("Failed to write CSV response")
	}
}

// HandleImport handles POST /api/exposures/import with a multipart "file"
// field containing the CSV upload.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.writeError(w, http.StatusBadRequest, "Upload too large or malformed")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	result, err := h.importer.Import(file, header.Filename)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleImportHistory handles GET /api/exposures/imports
func (h *Handler) HandleImportHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	batches, err := h.service.ImportHistory(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list import batches")
		h.writeError(w, http.StatusInternalServerError, "Failed to list import batches")
		return
	}

	h.writeJSON(w, http.StatusOK, batches)
}

// HandleRefresh handles POST /api/exposures/refresh
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Refresh(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Refresh failed")
		h.writeError(w, http.StatusInternalServerError, "Refresh failed")
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// filterFromQuery builds a filter spec from list query parameters.
func filterFromQuery(q url.Values) (analytics.FilterSpec, error) {
	spec := analytics.FilterSpec{
		SearchText: q.Get("search"),
	}

	if v := q.Get("pair"); v != "" {
		pair, err := utils.NormalizePair(v)
		if err != nil {
			return spec, err
		}
		spec.CurrencyPair = pair
	}

	if v := q.Get("start_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return spec, fmt.Errorf("invalid start_date %q, expected YYYY-MM-DD", v)
		}
		spec.StartDate = &t
	}

	if v := q.Get("end_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return spec, fmt.Errorf("invalid end_date %q, expected YYYY-MM-DD", v)
		}
		spec.EndDate = &t
	}

	if v := q.Get("min_amount"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return spec, fmt.Errorf("invalid min_amount %q", v)
		}
		spec.MinAmount = &f
	}

	if v := q.Get("max_amount"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return spec, fmt.Errorf("invalid max_amount %q", v)
		}
		spec.MaxAmount = &f
	}

	return spec, nil
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
