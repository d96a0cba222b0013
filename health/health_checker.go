// Package health reports whether the editor can still persist what the user types.
package health

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/giygas/medsummary/interfaces"
	"github.com/giygas/medsummary/session"
)

// StoreStatus is the part of the record store the health check reads
type StoreStatus interface {
	BackendName() string
	LastWrite() (time.Time, error)
}

// SessionStatus reports the session state
type SessionStatus interface {
	State(ctx context.Context) session.State
}

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	store     StoreStatus
	sessions  SessionStatus
	startedAt time.Time
}

// NewHealthChecker creates a new health checker with injected dependencies.
// sessions may be nil.
func NewHealthChecker(store StoreStatus, sessions SessionStatus, startedAt time.Time) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		store:     store,
		sessions:  sessions,
		startedAt: startedAt,
	}
}

// HealthCheck is degraded while the last write failed. Edits still work in
// memory, so it is never unhealthy.
func (h *HealthCheckerImpl) HealthCheck(ctx context.Context) (status string, data map[string]any, httpStatus int) {
	lastWrite, writeErr := h.store.LastWrite()

	data = map[string]any{
		"store_backend":  h.store.BackendName(),
		"uptime_seconds": math.Round(time.Since(h.startedAt).Seconds()),
		"persisting":     writeErr == nil,
	}
	if !lastWrite.IsZero() {
		data["last_write"] = lastWrite.Format(time.RFC3339)
	}
	if writeErr != nil {
		data["last_write_error"] = writeErr.Error()
	}

	if h.sessions != nil {
		st := h.sessions.State(ctx)
		data["session"] = map[string]any{
			"has_account": st.HasAccount,
			"active":      st.Active,
			"locked":      st.Locked,
		}
	}

	if writeErr != nil {
		return "degraded", data, http.StatusServiceUnavailable
	}
	return "healthy", data, http.StatusOK
}
