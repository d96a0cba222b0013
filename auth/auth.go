// Package auth is the device-local account gate. There is exactly one
// account per device; its secret is stored only as a bcrypt hash.
package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/giygas/medsummary/interfaces"
	"github.com/giygas/medsummary/logging"
	"github.com/giygas/medsummary/store"
)

var _ interfaces.AuthGate = (*Gate)(nil)

var (
	ErrAlreadyExists = errors.New("an account already exists on this device")
	ErrInvalidInput  = errors.New("name and secret are required")
	ErrNotFound      = errors.New("account not found")
	ErrWrongSecret   = errors.New("wrong secret")
)

// Account is the persisted credential record
type Account struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SecretHash string    `json:"secretHash"`
	CreatedAt  time.Time `json:"createdAt"`

	// LegacySecret holds a plaintext secret written by older builds. It is
	// replaced by a hash on the first successful Verify.
	LegacySecret string `json:"password,omitempty"`
}

// Gate creates and checks the local account
type Gate struct {
	store interfaces.RecordStore
	cost  int
	now   func() time.Time
	mu    sync.Mutex
}

// Option configures a Gate
type Option func(*Gate)

// WithCost sets the bcrypt cost
func WithCost(cost int) Option {
	return func(g *Gate) { g.cost = cost }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// NewGate returns a Gate persisting to rs under store.KeyUserAccount
func NewGate(rs interfaces.RecordStore, opts ...Option) *Gate {
	g := &Gate{store: rs, cost: bcrypt.DefaultCost, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CreateAccount stores a new account and returns its id
func (g *Gate) CreateAccount(ctx context.Context, name, secret string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || secret == "" {
		return "", ErrInvalidInput
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.load(ctx); ok {
		return "", ErrAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), g.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}

	acc := Account{
		ID:         uuid.NewString(),
		Name:       name,
		SecretHash: string(hash),
		CreatedAt:  g.now().UTC(),
	}
	if err := g.store.Set(ctx, store.KeyUserAccount, acc); err != nil {
		return "", fmt.Errorf("failed to save account: %w", err)
	}

	logging.Info("Account created", "user_id", acc.ID)
	return acc.ID, nil
}

// Verify checks name and secret. Names compare case-insensitively after
// trimming.
func (g *Gate) Verify(ctx context.Context, name, secret string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	acc, ok := g.load(ctx)
	if !ok || !strings.EqualFold(acc.Name, strings.TrimSpace(name)) {
		return "", ErrNotFound
	}
	return g.check(ctx, acc, secret)
}

// VerifySecret checks secret against the device account, whatever its name
func (g *Gate) VerifySecret(ctx context.Context, secret string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	acc, ok := g.load(ctx)
	if !ok {
		return "", ErrNotFound
	}
	return g.check(ctx, acc, secret)
}

// HasAccount reports whether an account exists on this device
func (g *Gate) HasAccount(ctx context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.load(ctx)
	return ok
}

// Name returns the account's display name
func (g *Gate) Name(ctx context.Context) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	acc, ok := g.load(ctx)
	return acc.Name, ok
}

func (g *Gate) check(ctx context.Context, acc Account, secret string) (string, error) {
	if acc.SecretHash == "" {
		if acc.LegacySecret == "" || subtle.ConstantTimeCompare([]byte(acc.LegacySecret), []byte(secret)) != 1 {
			return "", ErrWrongSecret
		}
		g.upgrade(ctx, acc, secret)
		return acc.ID, nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.SecretHash), []byte(secret)); err != nil {
		return "", ErrWrongSecret
	}
	return acc.ID, nil
}

// upgrade replaces a plaintext secret with a hash. Failure leaves the old
// record in place and is retried on the next login.
func (g *Gate) upgrade(ctx context.Context, acc Account, secret string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), g.cost)
	if err != nil {
		logging.Warn("Failed to hash legacy secret", "error", err)
		return
	}
	acc.SecretHash = string(hash)
	acc.LegacySecret = ""
	if err := g.store.Set(ctx, store.KeyUserAccount, acc); err == nil {
		logging.Info("Upgraded plaintext account secret to bcrypt", "user_id", acc.ID)
	}
}

// load reads the account. Older builds stored a one-element array and had
// no id; both are accepted.
func (g *Gate) load(ctx context.Context) (Account, bool) {
	raw := g.store.Get(ctx, store.KeyUserAccount)
	if raw == nil {
		return Account{}, false
	}

	var acc Account
	if err := json.Unmarshal(raw, &acc); err != nil {
		var list []Account
		if err := json.Unmarshal(raw, &list); err != nil || len(list) == 0 {
			logging.Warn("Stored account is unreadable", "key", store.KeyUserAccount)
			return Account{}, false
		}
		acc = list[0]
	}
	if strings.TrimSpace(acc.Name) == "" {
		return Account{}, false
	}
	if acc.ID == "" {
		acc.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(acc.Name)).String()
	}
	return acc, true
}
