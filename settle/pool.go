package settle

import (
	"sort"
	"sync"

	"github.com/blockberries/subnet/types"
)

// Pool holds locally-originated transactions awaiting settlement
// confirmation, keyed by transaction id. It owns its state; callers
// go through Insert, Delete, and Snapshot. Safe for concurrent use.
type Pool struct {
	mu      sync.Mutex
	pending map[string]types.PendingTx
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{pending: make(map[string]types.PendingTx)}
}

// Insert adds a pending transaction. A transaction already pending
// under the same id is left untouched and Insert reports false.
func (p *Pool) Insert(tx types.PendingTx) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.pending[tx.TxID]; ok {
		return false
	}
	p.pending[tx.TxID] = tx
	return true
}

// Delete removes a pending transaction by id.
func (p *Pool) Delete(txid string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.pending, txid)
}

// Get returns the pending transaction for an id, if present.
func (p *Pool) Get(txid string) (types.PendingTx, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	tx, ok := p.pending[txid]
	return tx, ok
}

// Len returns the number of pending transactions.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Snapshot returns the pending transactions ordered by id. The
// observer iterates a snapshot so pool mutation during a scan is
// safe.
func (p *Pool) Snapshot() []types.PendingTx {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]types.PendingTx, 0, len(p.pending))
	for _, tx := range p.pending {
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TxID < out[j].TxID })
	return out
}
