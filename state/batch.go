package state

import (
	"errors"
	"fmt"
)

// ErrReservedKey is returned when contract logic writes a key only
// core handlers may touch.
var ErrReservedKey = errors.New("state: write to reserved key")

// Writer is the mutation interface handed to handlers and contract
// logic. Writes made earlier in the same apply pass are visible to
// later reads in that pass.
type Writer interface {
	Reader
	Put(key string, value []byte) error
	Del(key string) error
}

// Batch is a transactional overlay over a Reader. Nothing in the
// batch is visible to external readers until Commit; a batch is
// never partially committed.
//
// Batches stack: a Batch over another Batch gives the ephemeral
// overlay used for transaction simulation.
type Batch struct {
	base   Reader
	writes map[string][]byte
	dels   map[string]struct{}
}

// NewBatch creates an empty batch over the given reader.
func NewBatch(base Reader) *Batch {
	return &Batch{
		base:   base,
		writes: make(map[string][]byte),
		dels:   make(map[string]struct{}),
	}
}

// Get implements Reader with same-batch read-your-writes.
func (b *Batch) Get(key string) ([]byte, bool) {
	if v, ok := b.writes[key]; ok {
		return v, true
	}
	if _, ok := b.dels[key]; ok {
		return nil, false
	}
	return b.base.Get(key)
}

// Put implements Writer. Core handlers call it directly; contract
// logic goes through Guarded.
func (b *Batch) Put(key string, value []byte) error {
	if key == "" {
		return fmt.Errorf("state: empty key")
	}
	delete(b.dels, key)
	cp := make([]byte, len(value))
	copy(cp, value)
	b.writes[key] = cp
	return nil
}

// Del implements Writer.
func (b *Batch) Del(key string) error {
	if key == "" {
		return fmt.Errorf("state: empty key")
	}
	delete(b.writes, key)
	b.dels[key] = struct{}{}
	return nil
}

// Size returns the number of pending mutations.
func (b *Batch) Size() int { return len(b.writes) + len(b.dels) }

// Commit applies the batch to the store as one atomic unit and
// resets the batch.
func (b *Batch) Commit(store *MemoryStore) {
	store.apply(b.writes, b.dels)
	b.writes = make(map[string][]byte)
	b.dels = make(map[string]struct{})
}

// Discard drops all pending mutations.
func (b *Batch) Discard() {
	b.writes = make(map[string][]byte)
	b.dels = make(map[string]struct{})
}

// Guarded wraps a batch for contract logic: reads pass through,
// writes to reserved keys fail with ErrReservedKey.
type Guarded struct {
	b *Batch
}

// Guard returns the contract-facing writer for a batch.
func Guard(b *Batch) *Guarded { return &Guarded{b: b} }

func (g *Guarded) Get(key string) ([]byte, bool) { return g.b.Get(key) }

func (g *Guarded) Put(key string, value []byte) error {
	if IsReserved(key) {
		return fmt.Errorf("%w: %q", ErrReservedKey, key)
	}
	return g.b.Put(key, value)
}

func (g *Guarded) Del(key string) error {
	if IsReserved(key) {
		return fmt.Errorf("%w: %q", ErrReservedKey, key)
	}
	return g.b.Del(key)
}
