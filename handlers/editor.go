package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/giygas/medsummary/entities"
	"github.com/giygas/medsummary/sections"
	"github.com/giygas/medsummary/validation"
)

// GetPatient serves the current profile
func (h *HTTPHandler) GetPatient(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, h.form.Patient())
}

// GetVisit serves the current visit
func (h *HTTPHandler) GetVisit(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, h.form.Visit())
}

// SetPatientField serves PUT /patient/fields/{field}
func (h *HTTPHandler) SetPatientField(w http.ResponseWriter, r *http.Request) {
	var req validation.FieldUpdate
	if !h.decodeField(w, r, &req) {
		return
	}
	p, err := h.form.SetPatientField(r.Context(), chi.URLParam(r, "field"), req.Value)
	h.respondEdit(w, r, p, err)
}

// SetVisitField serves PUT /visit/fields/{field}. Writing problemsTodayList
// takes comma separated text.
func (h *HTTPHandler) SetVisitField(w http.ResponseWriter, r *http.Request) {
	var req validation.FieldUpdate
	if !h.decodeField(w, r, &req) {
		return
	}

	field := chi.URLParam(r, "field")
	if field == entities.FieldProblemsTodayList {
		v, err := h.form.SetProblemsList(r.Context(), req.Value)
		h.respondEdit(w, r, v, err)
		return
	}
	v, err := h.form.SetVisitField(r.Context(), field, req.Value)
	h.respondEdit(w, r, v, err)
}

// AddPatientRow serves POST /patient/sections/{section}/rows
func (h *HTTPHandler) AddPatientRow(w http.ResponseWriter, r *http.Request) {
	values, ok := decodeTemplate(w, r)
	if !ok {
		return
	}
	p, err := h.form.AddPatientRow(r.Context(), chi.URLParam(r, "section"), values)
	h.respondEdit(w, r, p, err)
}

// AddVisitRow serves POST /visit/sections/{section}/rows
func (h *HTTPHandler) AddVisitRow(w http.ResponseWriter, r *http.Request) {
	values, ok := decodeTemplate(w, r)
	if !ok {
		return
	}
	v, err := h.form.AddVisitRow(r.Context(), chi.URLParam(r, "section"), values)
	h.respondEdit(w, r, v, err)
}

// UpdatePatientRow serves PATCH /patient/sections/{section}/rows/{index}
func (h *HTTPHandler) UpdatePatientRow(w http.ResponseWriter, r *http.Request) {
	section := chi.URLParam(r, "section")
	idx, req, ok := h.decodeRow(w, r, section)
	if !ok {
		return
	}
	p, err := h.form.UpdatePatientRow(r.Context(), section, idx, req.Key, req.Value)
	h.respondEdit(w, r, p, err)
}

// UpdateVisitRow serves PATCH /visit/sections/{section}/rows/{index}
func (h *HTTPHandler) UpdateVisitRow(w http.ResponseWriter, r *http.Request) {
	section := chi.URLParam(r, "section")
	idx, req, ok := h.decodeRow(w, r, section)
	if !ok {
		return
	}
	v, err := h.form.UpdateVisitRow(r.Context(), section, idx, req.Key, req.Value)
	h.respondEdit(w, r, v, err)
}

// RemovePatientRow serves DELETE /patient/sections/{section}/rows/{index}
func (h *HTTPHandler) RemovePatientRow(w http.ResponseWriter, r *http.Request) {
	idx, ok := indexParam(r)
	if !ok {
		RespondWithError(w, http.StatusBadRequest, "Invalid row index")
		return
	}
	p, err := h.form.RemovePatientRow(r.Context(), chi.URLParam(r, "section"), idx)
	h.respondEdit(w, r, p, err)
}

// RemoveVisitRow serves DELETE /visit/sections/{section}/rows/{index}
func (h *HTTPHandler) RemoveVisitRow(w http.ResponseWriter, r *http.Request) {
	idx, ok := indexParam(r)
	if !ok {
		RespondWithError(w, http.StatusBadRequest, "Invalid row index")
		return
	}
	v, err := h.form.RemoveVisitRow(r.Context(), chi.URLParam(r, "section"), idx)
	h.respondEdit(w, r, v, err)
}

func (h *HTTPHandler) decodeField(w http.ResponseWriter, r *http.Request, req *validation.FieldUpdate) bool {
	if err := decodeJSON(r, req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := h.validator.Field(req); err != nil {
		respondValidation(w, err)
		return false
	}
	return true
}

func (h *HTTPHandler) decodeRow(w http.ResponseWriter, r *http.Request, section string) (int, validation.RowUpdate, bool) {
	var req validation.RowUpdate
	idx, ok := indexParam(r)
	if !ok {
		RespondWithError(w, http.StatusBadRequest, "Invalid row index")
		return 0, req, false
	}
	if err := decodeJSON(r, &req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return 0, req, false
	}
	if err := h.validator.Row(section, &req); err != nil {
		respondValidation(w, err)
		return 0, req, false
	}
	return idx, req, true
}

func decodeTemplate(w http.ResponseWriter, r *http.Request) (map[string]string, bool) {
	values := map[string]string{}
	if err := decodeJSON(r, &values); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}
	return values, true
}

// respondEdit maps controller errors to statuses and otherwise returns the
// updated snapshot
func (h *HTTPHandler) respondEdit(w http.ResponseWriter, r *http.Request, snapshot any, err error) {
	switch {
	case err == nil:
		RespondWithJSON(w, http.StatusOK, snapshot)
	case errors.Is(err, entities.ErrUnknownSection):
		RespondWithError(w, http.StatusNotFound, "Unknown section")
	case errors.Is(err, entities.ErrUnknownField):
		RespondWithError(w, http.StatusNotFound, "Unknown field")
	case errors.Is(err, entities.ErrTooManyRows):
		RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("A section holds at most %d rows", sections.MaxRows))
	case errors.Is(err, validation.ErrInvalid):
		respondValidation(w, err)
	default:
		h.logRejected(r, err)
		RespondWithError(w, http.StatusBadRequest, err.Error())
	}
}
