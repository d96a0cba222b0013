package handlers

import (
	"bytes"
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/giygas/medsummary/controller"
	"github.com/giygas/medsummary/logging"
	"github.com/giygas/medsummary/printing"
)

// GetSummary serves the PrintableSummary as JSON
func (h *HTTPHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, h.form.Summary())
}

// GetSummaryText serves the plain text rendering
func (h *HTTPHandler) GetSummaryText(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(printing.RenderText(h.form.Summary())))
}

// GetSummaryPDF streams a freshly rendered PDF without keeping a file
func (h *HTTPHandler) GetSummaryPDF(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := printing.Render(&buf, h.form.Summary()); err != nil {
		logging.Error("Failed to render summary PDF", "error", err)
		RespondWithError(w, http.StatusInternalServerError, "Could not render the summary")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="medical-summary.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Print serves POST /print. Nothing in the records changes.
func (h *HTTPHandler) Print(w http.ResponseWriter, r *http.Request) {
	ref, err := h.form.Print(r.Context(), h.printer)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Could not print the summary")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"path": ref})
}

type clearRequest struct {
	Confirm bool `json:"confirm"`
}

// Clear serves POST /clear. Anything but {"confirm": true} is a declined
// clear and leaves the records alone.
func (h *HTTPHandler) Clear(w http.ResponseWriter, r *http.Request) {
	var req clearRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	confirm := controller.ConfirmFunc(func(context.Context, string) bool { return req.Confirm })
	if err := h.form.ClearForm(r.Context(), confirm); err != nil {
		RespondWithJSON(w, http.StatusOK, map[string]any{"cleared": false, "prompt": controller.ClearPrompt})
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]any{"cleared": true})
}

// GetDefaults serves both sample tables
func (h *HTTPHandler) GetDefaults(w http.ResponseWriter, r *http.Request) {
	d := h.form.Defaults()
	RespondWithJSON(w, http.StatusOK, map[string]any{
		"patient": d.Patient(),
		"visit":   d.Visit(),
	})
}

// GetDefaultRow serves the sample row at a position. Scalars answer at index 0.
func (h *HTTPHandler) GetDefaultRow(w http.ResponseWriter, r *http.Request) {
	idx, ok := indexParam(r)
	if !ok {
		RespondWithError(w, http.StatusBadRequest, "Invalid row index")
		return
	}

	d := h.form.Defaults()
	section := chi.URLParam(r, "section")
	if row, ok := d.Row(section, idx); ok {
		RespondWithJSON(w, http.StatusOK, row)
		return
	}
	if v, ok := d.DefaultFor(section); ok && idx == 0 {
		if s, isText := v.(string); isText {
			RespondWithJSON(w, http.StatusOK, map[string]string{"value": s})
			return
		}
	}
	RespondWithError(w, http.StatusNotFound, "No default at this position")
}
