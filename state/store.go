// Package state implements the deterministic key-value view of a
// subnet and the transactional batch handlers mutate it through.
//
// The view is a pure projection of the applied log: same ordered
// input, same bytes on every replica. All mutation goes through a
// Batch, which commits atomically at the end of one apply pass and
// guarantees read-your-writes within that pass.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync"
)

// Reader is the read side shared by the view and batches. The
// returned slice must not be modified.
type Reader interface {
	Get(key string) ([]byte, bool)
}

// View is the deterministic key-value projection of all applied
// operations, with its two read horizons.
type View interface {
	Reader

	// TipLength is the log length including locally-pending,
	// not-yet-decided writes.
	TipLength() uint64

	// ConfirmedLength is the majority-decided log length, safe for
	// cross-node agreement.
	ConfirmedLength() uint64
}

// MemoryStore is an in-process View implementation. It is the
// deterministic projection itself, not a durable storage engine;
// durability is the log collaborator's concern.
type MemoryStore struct {
	mu        sync.RWMutex
	kv        map[string][]byte
	tip       uint64
	confirmed uint64
}

// NewMemoryStore creates an empty view store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{kv: make(map[string][]byte)}
}

// Get implements Reader.
func (s *MemoryStore) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.kv[key]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true
}

// TipLength implements View.
func (s *MemoryStore) TipLength() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tip
}

// ConfirmedLength implements View.
func (s *MemoryStore) ConfirmedLength() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.confirmed
}

// SetLengths records the log horizons after an apply pass.
func (s *MemoryStore) SetLengths(tip, confirmed uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tip = tip
	s.confirmed = confirmed
}

// apply commits a batch's writes and deletes as a single atomic unit.
func (s *MemoryStore) apply(writes map[string][]byte, dels map[string]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range writes {
		cp := make([]byte, len(v))
		copy(cp, v)
		s.kv[k] = cp
	}
	for k := range dels {
		delete(s.kv, k)
	}
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.kv)
}

// Fingerprint returns a deterministic hex digest of the entire view:
// sorted keys, each hashed with its value. Two replicas that applied
// the same ordered log report the same fingerprint.
func (s *MemoryStore) Fingerprint() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.kv))
	for k := range s.kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write(s.kv[k])
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
