// Package local provides in-process implementations of the subnet's
// external collaborators: an ordered multi-writer log and a
// scriptable settlement ledger. They back single-process deployments
// and tests; networked deployments substitute real collaborators
// behind the same interfaces.
package local

import (
	"context"
	"fmt"
	"sync"

	"github.com/blockberries/subnet"
	"github.com/blockberries/subnet/types"
)

// MemoryLog is an in-process replicated log. Appends from admitted
// writers land in a pending region; Flush delivers the pending
// entries to the applier in order and advances the confirmed
// horizon. Total order is append order.
type MemoryLog struct {
	mu        sync.Mutex
	bootstrap types.Identity
	self      types.Identity
	writers   map[types.Identity]bool
	entries   []types.LogEntry
	flushed   uint64
	applier   subnet.Applier
}

// NewMemoryLog creates a log whose bootstrap identity is also its
// initial local writer identity.
func NewMemoryLog(bootstrap types.Identity) *MemoryLog {
	return &MemoryLog{
		bootstrap: bootstrap,
		self:      bootstrap,
		writers:   map[types.Identity]bool{bootstrap: false},
	}
}

// SetApplier wires the apply callback. Must be set before Flush.
func (l *MemoryLog) SetApplier(a subnet.Applier) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.applier = a
}

// SetIdentity changes the provenance identity used for local appends.
func (l *MemoryLog) SetIdentity(id types.Identity) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.self = id
}

// Bootstrap implements subnet.ReplicatedLog.
func (l *MemoryLog) Bootstrap() types.Identity { return l.bootstrap }

// Append implements subnet.ReplicatedLog. The local identity must be
// an admitted writer.
func (l *MemoryLog) Append(ctx context.Context, op types.Operation) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.writers[l.self]; !ok {
		return fmt.Errorf("local: identity %q is not an admitted writer", l.self)
	}
	l.append(l.self, op)
	return nil
}

// Inject appends an entry with arbitrary provenance, bypassing the
// writer check. Test and replication-ingress hook.
func (l *MemoryLog) Inject(from types.Identity, op types.Operation) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.append(from, op)
}

func (l *MemoryLog) append(from types.Identity, op types.Operation) {
	l.entries = append(l.entries, types.LogEntry{
		From: from,
		Seq:  uint64(len(l.entries)),
		Op:   op,
	})
}

// AddWriter implements subnet.ReplicatedLog.
func (l *MemoryLog) AddWriter(ctx context.Context, key string, indexer bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writers[key] = indexer
	return nil
}

// RemoveWriter implements subnet.ReplicatedLog.
func (l *MemoryLog) RemoveWriter(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.writers, key)
	return nil
}

// HasWriter reports admission and indexer status for an identity.
func (l *MemoryLog) HasWriter(key string) (admitted, indexer bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	indexer, admitted = l.writers[key]
	return admitted, indexer
}

// Tip returns the log length including unflushed entries.
func (l *MemoryLog) Tip() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return uint64(len(l.entries))
}

// Confirmed returns the flushed log length. For the in-process log,
// flushed entries are decided.
func (l *MemoryLog) Confirmed() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.flushed
}

// Flush delivers pending entries to the applier in order and
// advances the confirmed horizon past them. On an apply fault the
// horizon does not advance and the same entries are redelivered on
// the next flush.
func (l *MemoryLog) Flush(ctx context.Context) error {
	l.mu.Lock()
	applier := l.applier
	pending := l.entries[l.flushed:]
	l.mu.Unlock()

	if applier == nil {
		return fmt.Errorf("local: no applier wired")
	}
	if len(pending) == 0 {
		return nil
	}
	if err := applier.ApplyEntries(ctx, pending); err != nil {
		return err
	}

	l.mu.Lock()
	l.flushed += uint64(len(pending))
	l.mu.Unlock()
	return nil
}
