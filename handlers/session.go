package handlers

import (
	"errors"
	"net/http"

	"github.com/giygas/medsummary/auth"
	"github.com/giygas/medsummary/session"
	"github.com/giygas/medsummary/validation"
)

// GetSession serves the flags the shell needs to pick a screen
func (h *HTTPHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, h.sessions.State(r.Context()))
}

// MarkWelcomeSeen serves POST /welcome/seen
func (h *HTTPHandler) MarkWelcomeSeen(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.MarkWelcomeSeen(r.Context()); err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Could not save. Check storage permissions.")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]bool{"hasSeenWelcome": true})
}

// CreateAccount serves POST /account and opens a session on success
func (h *HTTPHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req validation.SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Signup(&req); err != nil {
		h.logRejected(r, err)
		respondValidation(w, err)
		return
	}

	id, err := h.auth.CreateAccount(r.Context(), req.Name, req.Secret)
	switch {
	case errors.Is(err, auth.ErrAlreadyExists):
		RespondWithError(w, http.StatusConflict, "An account already exists on this device.")
		return
	case errors.Is(err, auth.ErrInvalidInput):
		RespondWithError(w, http.StatusBadRequest, validation.MsgIncomplete)
		return
	case err != nil:
		RespondWithError(w, http.StatusInternalServerError, "Could not save account. Check storage permissions.")
		return
	}

	h.sessions.Start(r.Context(), id)
	RespondWithJSON(w, http.StatusCreated, map[string]string{"userId": id, "name": req.Name})
}

// Login serves POST /session/login
func (h *HTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req validation.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Login(&req); err != nil {
		respondValidation(w, err)
		return
	}
	if !h.auth.HasAccount(r.Context()) {
		RespondWithError(w, http.StatusNotFound, "No account saved yet. Please create one.")
		return
	}

	id, err := h.auth.Verify(r.Context(), req.Name, req.Secret)
	if err != nil {
		h.logRejected(r, err)
		RespondWithError(w, http.StatusUnauthorized, "Incorrect name or password.")
		return
	}

	h.sessions.Start(r.Context(), id)
	RespondWithJSON(w, http.StatusOK, map[string]string{"userId": id})
}

// Logout serves POST /session/logout. The account is kept.
func (h *HTTPHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.End(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Activity serves POST /session/activity
func (h *HTTPHandler) Activity(w http.ResponseWriter, r *http.Request) {
	h.sessions.Touch(r.Context())
	RespondWithJSON(w, http.StatusOK, h.sessions.State(r.Context()))
}

// Unlock serves POST /session/unlock
func (h *HTTPHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	var req validation.UnlockRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Unlock(&req); err != nil {
		respondValidation(w, err)
		return
	}

	switch err := h.sessions.Unlock(r.Context(), req.Secret); {
	case errors.Is(err, session.ErrNoSession):
		RespondWithError(w, http.StatusUnauthorized, "Please log in.")
		return
	case err != nil:
		RespondWithError(w, http.StatusUnauthorized, "Incorrect password.")
		return
	}
	RespondWithJSON(w, http.StatusOK, h.sessions.State(r.Context()))
}
