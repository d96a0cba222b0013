// Package store persists the editor's records as one JSON document per key.
//
// A Backend moves raw bytes (files on disk, process memory, or Redis). Store
// wraps a Backend with the fail-soft contract the editor relies on: reads
// that fail or hold corrupt JSON come back as nil, and failed writes are
// logged and counted but never block the caller's in-memory state.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// Logical storage keys
const (
	KeyPatientProfile  = "patient-profile"
	KeyVisitRecord     = "visit-record"
	KeyUserAccount     = "user-account"
	KeyHasSeenWelcome  = "has-seen-welcome"
	KeySessionActive   = "session-active"
	KeySessionActivity = "session-activity"
)

var (
	// ErrNotFound is returned by a Backend when nothing is stored under a key
	ErrNotFound = errors.New("record not found")
	// ErrCorrupt marks stored bytes that are not valid JSON
	ErrCorrupt = errors.New("record is corrupt")
	// ErrWrite wraps every failed persistence attempt
	ErrWrite = errors.New("record write failed")
	// ErrInvalidKey rejects keys outside [a-z0-9-]
	ErrInvalidKey = errors.New("invalid record key")
)

var keyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,63}$`)

// Backend is a byte-level key/value store
type Backend interface {
	Name() string
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

func validateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
