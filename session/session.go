// Package session tracks whether the editor is open, and locks it after a
// period of inactivity until the account secret is entered again.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/giygas/medsummary/interfaces"
	"github.com/giygas/medsummary/logging"
	"github.com/giygas/medsummary/metrics"
	"github.com/giygas/medsummary/store"
)

var (
	ErrNoSession = errors.New("no active session")
	ErrLocked    = errors.New("session is locked")
)

// activityPersistEvery limits how often activity timestamps hit storage
const activityPersistEvery = 10 * time.Second

// Verifier checks the account secret on unlock
type Verifier interface {
	VerifySecret(ctx context.Context, secret string) (string, error)
	HasAccount(ctx context.Context) bool
}

// EventKind names a session transition reported by Sweep
type EventKind string

const (
	EventWarning EventKind = "warning"
	EventLocked  EventKind = "locked"
)

// Event is emitted once per transition
type Event struct {
	Kind   EventKind
	At     time.Time
	LockIn time.Duration
}

// State is the snapshot served to the shell
type State struct {
	HasAccount     bool  `json:"hasAccount"`
	Active         bool  `json:"active"`
	Locked         bool  `json:"locked"`
	Warning        bool  `json:"warning"`
	LockInMs       int64 `json:"lockInMs"`
	HasSeenWelcome bool  `json:"hasSeenWelcome"`
}

// Manager owns the session flags
type Manager struct {
	store    interfaces.RecordStore
	verifier Verifier
	timeout  time.Duration
	warning  time.Duration
	now      func() time.Time

	mu            sync.Mutex
	active        bool
	locked        bool
	warned        bool
	userID        string
	lastActivity  time.Time
	lastPersisted time.Time
}

// NewManager builds a Manager that locks after timeout of inactivity and
// warns during the final warning window
func NewManager(rs interfaces.RecordStore, verifier Verifier, timeout, warning time.Duration) *Manager {
	return &Manager{
		store:    rs,
		verifier: verifier,
		timeout:  timeout,
		warning:  warning,
		now:      time.Now,
	}
}

// SetClock overrides time.Now, for tests
func (m *Manager) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

// Restore picks up a session left active by a previous run. If it has been
// idle past the timeout it comes back locked.
func (m *Manager) Restore(ctx context.Context) {
	var active bool
	if !m.store.Load(ctx, store.KeySessionActive, &active) || !active || !m.verifier.HasAccount(ctx) {
		return
	}

	var stamp string
	last := m.now()
	if m.store.Load(ctx, store.KeySessionActivity, &stamp) {
		if t, err := time.Parse(time.RFC3339, stamp); err == nil {
			last = t
		}
	}

	m.mu.Lock()
	m.active = true
	m.lastActivity = last
	m.lastPersisted = last
	m.mu.Unlock()

	logging.Info("Session restored", "idle", m.now().Sub(last).Round(time.Second).String())
	m.Sweep(ctx)
}

// Start opens a session for userID
func (m *Manager) Start(ctx context.Context, userID string) {
	m.mu.Lock()
	now := m.now()
	m.active = true
	m.locked = false
	m.warned = false
	m.userID = userID
	m.lastActivity = now
	m.lastPersisted = now
	m.mu.Unlock()

	_ = m.store.Set(ctx, store.KeySessionActive, true)
	_ = m.store.Set(ctx, store.KeySessionActivity, now.UTC().Format(time.RFC3339))
	logging.Info("Session started", "user_id", userID)
}

// End closes the session. The account is kept.
func (m *Manager) End(ctx context.Context) {
	m.mu.Lock()
	wasActive := m.active
	m.active = false
	m.locked = false
	m.warned = false
	m.userID = ""
	m.mu.Unlock()

	_ = m.store.Remove(ctx, store.KeySessionActive)
	if wasActive {
		logging.Info("Session ended")
	}
}

// Touch records user activity. It is a no-op unless the session is open
// and unlocked.
func (m *Manager) Touch(ctx context.Context) {
	m.mu.Lock()
	if !m.active || m.locked {
		m.mu.Unlock()
		return
	}
	now := m.now()
	m.lastActivity = now
	m.warned = false
	persist := now.Sub(m.lastPersisted) >= activityPersistEvery
	if persist {
		m.lastPersisted = now
	}
	m.mu.Unlock()

	if persist {
		_ = m.store.Set(ctx, store.KeySessionActivity, now.UTC().Format(time.RFC3339))
	}
}

// Sweep applies the idle rules and returns the transitions that happened
func (m *Manager) Sweep(ctx context.Context) []Event {
	m.mu.Lock()
	if !m.active || m.locked {
		m.mu.Unlock()
		return nil
	}

	now := m.now()
	idle := now.Sub(m.lastActivity)
	var events []Event
	switch {
	case idle >= m.timeout:
		m.locked = true
		m.warned = false
		events = append(events, Event{Kind: EventLocked, At: now})
	case idle >= m.timeout-m.warning && !m.warned:
		m.warned = true
		events = append(events, Event{Kind: EventWarning, At: now, LockIn: m.timeout - idle})
	}
	m.mu.Unlock()

	for _, e := range events {
		switch e.Kind {
		case EventLocked:
			metrics.SessionLocks.Inc()
			logging.Info("Session locked after inactivity", "idle", idle.Round(time.Second).String())
		case EventWarning:
			logging.Debug("Session about to lock", "lock_in", e.LockIn.Round(time.Second).String())
		}
	}
	return events
}

// Unlock reopens a locked session once the secret checks out
func (m *Manager) Unlock(ctx context.Context, secret string) error {
	m.mu.Lock()
	active := m.active
	m.mu.Unlock()
	if !active {
		return ErrNoSession
	}

	userID, err := m.verifier.VerifySecret(ctx, secret)
	if err != nil {
		logging.Warn("Unlock rejected", "error", err)
		return err
	}

	m.mu.Lock()
	m.locked = false
	m.warned = false
	m.userID = userID
	m.lastActivity = m.now()
	m.mu.Unlock()

	logging.Info("Session unlocked", "user_id", userID)
	return nil
}

// Require returns nil when the editor may be used
func (m *Manager) Require() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case !m.active:
		return ErrNoSession
	case m.locked:
		return ErrLocked
	}
	return nil
}

// State returns the current flags
func (m *Manager) State(ctx context.Context) State {
	var seen bool
	m.store.Load(ctx, store.KeyHasSeenWelcome, &seen)
	hasAccount := m.verifier.HasAccount(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	st := State{
		HasAccount:     hasAccount,
		Active:         m.active,
		Locked:         m.locked,
		Warning:        m.warned,
		HasSeenWelcome: seen,
	}
	if m.active && !m.locked {
		st.LockInMs = max(m.timeout-m.now().Sub(m.lastActivity), 0).Milliseconds()
	}
	return st
}

// MarkWelcomeSeen records that the welcome screen was dismissed
func (m *Manager) MarkWelcomeSeen(ctx context.Context) error {
	return m.store.Set(ctx, store.KeyHasSeenWelcome, true)
}
