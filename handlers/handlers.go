// Package handlers serves the editor over HTTP: account and session flow,
// field and row edits, the printable summary and the clear-form action.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/giygas/medsummary/controller"
	"github.com/giygas/medsummary/interfaces"
	"github.com/giygas/medsummary/logging"
	"github.com/giygas/medsummary/session"
	"github.com/giygas/medsummary/validation"
)

// Sessions is the session surface the handlers drive
type Sessions interface {
	Start(ctx context.Context, userID string)
	End(ctx context.Context)
	Touch(ctx context.Context)
	Unlock(ctx context.Context, secret string) error
	Require() error
	State(ctx context.Context) session.State
	MarkWelcomeSeen(ctx context.Context) error
}

// HTTPHandler holds the collaborators of every route
type HTTPHandler struct {
	form      *controller.FormController
	auth      interfaces.AuthGate
	sessions  Sessions
	printer   interfaces.PrintHost
	health    interfaces.HealthChecker
	validator *validation.Validator
}

// NewHTTPHandler creates a handler with injected dependencies
func NewHTTPHandler(form *controller.FormController, auth interfaces.AuthGate, sessions Sessions,
	printer interfaces.PrintHost, health interfaces.HealthChecker) *HTTPHandler {
	return &HTTPHandler{
		form:      form,
		auth:      auth,
		sessions:  sessions,
		printer:   printer,
		health:    health,
		validator: validation.New(),
	}
}

// RequireSession rejects editor requests without an open, unlocked session
func (h *HTTPHandler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch err := h.sessions.Require(); {
		case errors.Is(err, session.ErrLocked):
			RespondWithError(w, http.StatusLocked, "Session is locked. Enter your password to continue.")
			return
		case err != nil:
			RespondWithError(w, http.StatusUnauthorized, "Please log in.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HealthCheck serves /health
func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, data, code := h.health.HealthCheck(r.Context())
	RespondWithJSON(w, code, map[string]any{
		"status": status,
		"data":   data,
	})
}

func (h *HTTPHandler) logRejected(r *http.Request, err error) {
	logging.Debug("Request rejected", "path", r.URL.Path, "error", err)
}
