package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/giygas/medsummary/interfaces"
	"github.com/giygas/medsummary/logging"
	"github.com/giygas/medsummary/metrics"
)

var _ interfaces.RecordStore = (*Store)(nil)

const probeKey = "store-probe"

// Store is the fail-soft RecordStore used by the rest of the process
type Store struct {
	backend Backend

	mu          sync.RWMutex
	failed      map[string]error
	lastWriteAt time.Time
}

// New wraps backend
func New(backend Backend) *Store {
	return &Store{backend: backend, failed: make(map[string]error)}
}

// BackendName reports which backend is in use
func (s *Store) BackendName() string {
	return s.backend.Name()
}

// Get returns the JSON stored under key, or nil when the key is absent,
// unreadable or does not hold valid JSON. It never fails.
func (s *Store) Get(ctx context.Context, key string) json.RawMessage {
	data, err := s.backend.Read(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		logging.Warn("Record read failed", "key", key, "backend", s.backend.Name(), "error", err)
		metrics.StoreReadFailures.WithLabelValues(key).Inc()
		return nil
	}
	if !json.Valid(data) {
		logging.Warn("Record is corrupt, ignoring it", "key", key, "error", ErrCorrupt, "size", len(data))
		metrics.StoreReadFailures.WithLabelValues(key).Inc()
		return nil
	}
	return json.RawMessage(data)
}

// Load decodes the record under key into dst. It reports false, leaving dst
// untouched, when there is nothing usable stored.
func (s *Store) Load(ctx context.Context, key string, dst any) bool {
	raw := s.Get(ctx, key)
	if raw == nil || string(raw) == "null" {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		logging.Warn("Record does not match its shape, ignoring it", "key", key, "error", err)
		metrics.StoreReadFailures.WithLabelValues(key).Inc()
		return false
	}
	return true
}

// Set serialises value and writes it under key. A failure is logged and
// counted, remembered per key for the health check until that key is
// written successfully, and returned wrapped in ErrWrite; callers keep
// their in-memory state either way.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err == nil {
		err = s.backend.Write(ctx, key, data)
	}

	s.mu.Lock()
	s.lastWriteAt = time.Now()
	if err != nil {
		s.failed[key] = err
	} else {
		delete(s.failed, key)
	}
	s.mu.Unlock()

	if err != nil {
		logging.Error("Record write failed, keeping in-memory state", "key", key, "backend", s.backend.Name(), "error", err)
		metrics.StoreWriteFailures.WithLabelValues(key).Inc()
		return fmt.Errorf("%w: %s: %v", ErrWrite, key, err)
	}
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.backend.Remove(ctx, key); err != nil {
		logging.Error("Record remove failed", "key", key, "error", err)
		metrics.StoreWriteFailures.WithLabelValues(key).Inc()
		return fmt.Errorf("%w: %s: %v", ErrWrite, key, err)
	}
	return nil
}

// LastWrite returns when the most recent write happened, and the errors of
// every key whose latest write failed
func (s *Store) LastWrite() (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.failed))
	for key := range s.failed {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	errs := make([]error, 0, len(keys))
	for _, key := range keys {
		errs = append(errs, fmt.Errorf("%s: %w", key, s.failed[key]))
	}
	return s.lastWriteAt, errors.Join(errs...)
}

// Probe writes, reads back and removes a marker record
func (s *Store) Probe(ctx context.Context) error {
	stamp := time.Now().UTC().Format(time.RFC3339Nano)
	if err := s.Set(ctx, probeKey, stamp); err != nil {
		return err
	}
	var got string
	if !s.Load(ctx, probeKey, &got) || got != stamp {
		return fmt.Errorf("%w: probe read back mismatch", ErrCorrupt)
	}
	return s.Remove(ctx, probeKey)
}
