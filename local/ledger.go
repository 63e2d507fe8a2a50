package local

import (
	"context"
	"fmt"
	"sync"

	"github.com/blockberries/cramberry/pkg/cramberry"

	"github.com/blockberries/subnet"
	"github.com/blockberries/subnet/settle"
	"github.com/blockberries/subnet/types"
)

// MemoryLedger is a scriptable settlement ledger. Broadcast
// submissions queue up until Settle confirms them at a fresh height;
// tests can also place arbitrary entries at arbitrary heights. The
// ledger is identity-addressed: an identity's address is the identity
// itself.
type MemoryLedger struct {
	mu      sync.Mutex
	id      string
	height  uint64
	entries map[uint64]map[string][]byte
	pending [][]byte
}

// NewMemoryLedger creates an empty ledger with the given identifier.
func NewMemoryLedger(ledgerID string) *MemoryLedger {
	return &MemoryLedger{
		id:      ledgerID,
		entries: make(map[uint64]map[string][]byte),
	}
}

// ID returns the ledger identifier.
func (l *MemoryLedger) ID() string { return l.id }

// SequenceProof implements subnet.SettlementClient. The proof is
// bound to the current confirmed height.
func (l *MemoryLedger) SequenceProof(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fmt.Sprintf("proof/%d", l.height), nil
}

// ConfirmedHeight implements subnet.SettlementClient.
func (l *MemoryLedger) ConfirmedHeight(ctx context.Context) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.height, nil
}

// EntryAt implements subnet.SettlementClient. Missing entries wrap
// subnet.ErrNoEntry.
func (l *MemoryLedger) EntryAt(ctx context.Context, height uint64, txid string) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	raw, ok := l.entries[height][txid]
	if !ok {
		return nil, fmt.Errorf("local: %w for %q at height %d", subnet.ErrNoEntry, txid, height)
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, nil
}

// Broadcast implements subnet.SettlementClient. Submissions queue
// until Settle.
func (l *MemoryLedger) Broadcast(ctx context.Context, payload []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := make([]byte, len(payload))
	copy(cp, payload)
	l.pending = append(l.pending, cp)
	return nil
}

// AddressOf implements subnet.SettlementClient.
func (l *MemoryLedger) AddressOf(identity string) (string, error) {
	return identity, nil
}

// IdentityOf implements subnet.SettlementClient.
func (l *MemoryLedger) IdentityOf(address string) (string, error) {
	return address, nil
}

// Advance confirms one empty height and returns it.
func (l *MemoryLedger) Advance() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.height++
	return l.height
}

// Settle confirms all queued broadcasts at one fresh height as
// transaction entries for the given subnet, validated by the given
// identity. Returns the settlement height.
func (l *MemoryLedger) Settle(subnetID string, validator types.Identity) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.height++
	h := l.height
	for _, raw := range l.pending {
		var sub types.TxSubmission
		if err := cramberry.Unmarshal(raw, &sub); err != nil {
			return 0, fmt.Errorf("local: decode queued submission: %w", err)
		}
		ch, err := settle.ContentHash(sub.Dispatch)
		if err != nil {
			return 0, err
		}
		ent, err := cramberry.Marshal(&types.SettlementEntry{
			Kind:        settle.KindTransaction,
			TxID:        sub.TxID,
			Subnet:      subnetID,
			Ledger:      l.id,
			ContentHash: ch,
			Requester:   sub.Requester,
			Validator:   validator,
		})
		if err != nil {
			return 0, err
		}
		l.put(h, sub.TxID, ent)
	}
	l.pending = nil
	return h, nil
}

// PutEntry places a raw entry at a height, creating the height if it
// is beyond the confirmed horizon. Scripting hook for tests.
func (l *MemoryLedger) PutEntry(height uint64, txid string, raw []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if height > l.height {
		l.height = height
	}
	cp := make([]byte, len(raw))
	copy(cp, raw)
	l.put(height, txid, cp)
}

func (l *MemoryLedger) put(height uint64, txid string, raw []byte) {
	if l.entries[height] == nil {
		l.entries[height] = make(map[string][]byte)
	}
	l.entries[height][txid] = raw
}
