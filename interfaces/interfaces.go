// Package interfaces defines the contracts between the editor core and its
// collaborators so each side can be swapped or mocked in tests.
package interfaces

import (
	"context"
	"encoding/json"

	"github.com/giygas/medsummary/projection"
)

// RecordStore persists one JSON value per key.
// Reads never fail: anything missing or unreadable comes back as nil.
// Writes that fail are logged by the store; the returned error is
// informational and callers keep their in-memory state regardless.
type RecordStore interface {
	Get(ctx context.Context, key string) json.RawMessage
	Load(ctx context.Context, key string, dst any) bool
	Set(ctx context.Context, key string, value any) error
	Remove(ctx context.Context, key string) error
}

// AuthGate checks the single local account
type AuthGate interface {
	// CreateAccount stores a new account and returns its user id
	CreateAccount(ctx context.Context, name, secret string) (string, error)
	// Verify checks name and secret and returns the user id
	Verify(ctx context.Context, name, secret string) (string, error)
	HasAccount(ctx context.Context) bool
}

// PrintHost hands a summary to whatever does the printing on this device.
// It returns a reference to the produced artefact (a file path, or "" when
// nothing is kept).
type PrintHost interface {
	RenderAndPrint(ctx context.Context, summary projection.PrintableSummary) (string, error)
}

// Scheduler runs the background jobs
type Scheduler interface {
	Start() error
	Stop()
}

// HealthChecker reports process health
type HealthChecker interface {
	HealthCheck(ctx context.Context) (status string, details map[string]any, httpStatus int)
}
