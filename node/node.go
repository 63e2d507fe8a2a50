// Package node assembles a subnet node: configuration, the apply
// engine over a replicated log, the settlement protocol with its
// pool and observer, and the background tasks that keep the view
// current.
package node

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/blockberries/subnet"
	"github.com/blockberries/subnet/contract"
	"github.com/blockberries/subnet/engine"
	"github.com/blockberries/subnet/settle"
	"github.com/blockberries/subnet/state"
	"github.com/blockberries/subnet/task"
	"github.com/blockberries/subnet/types"
)

// Log is the replicated log surface a node drives: the core
// collaborator interface plus the flush and horizon methods of the
// in-process implementation.
type Log interface {
	subnet.ReplicatedLog
	SetApplier(subnet.Applier)
	Flush(ctx context.Context) error
	Tip() uint64
	Confirmed() uint64
}

// Node wires the deterministic core to its collaborators and runs
// the background tasks.
type Node struct {
	cfg      Config
	store    *state.MemoryStore
	log      Log
	client   subnet.SettlementClient
	wallet   subnet.Wallet
	contract *contract.Contract
	engine   *engine.Engine
	pool     *settle.Pool
	preparer *settle.Preparer
	zlog     *zap.Logger

	flusher  *task.Runner
	observer *task.Runner
}

// New assembles a node. The contract registry must already be built;
// the node registers itself as the log's applier.
func New(cfg Config, log Log, client subnet.SettlementClient, w subnet.Wallet, c *contract.Contract, zlog *zap.Logger) (*Node, error) {
	store := state.NewMemoryStore()
	txv := &settle.Validator{
		Client:         client,
		Subnet:         log.Bootstrap(),
		Ledger:         cfg.LedgerID,
		MaxEntrySize:   cfg.MaxEntrySize,
		MaxHeightAhead: cfg.MaxHeightAhead,
		PollInterval:   cfg.PollInterval.Duration,
	}
	eng, err := engine.New(store, log, c, txv, w.Verify, zlog, engine.Config{
		MaxTxPayload:     cfg.MaxTxPayload,
		MaxMessageLength: cfg.MaxMessageLength,
		MaxNickLength:    cfg.MaxNickLength,
	})
	if err != nil {
		return nil, err
	}

	pool := settle.NewPool()
	n := &Node{
		cfg:      cfg,
		store:    store,
		log:      log,
		client:   client,
		wallet:   w,
		contract: c,
		engine:   eng,
		pool:     pool,
		preparer: &settle.Preparer{
			Client:  client,
			Wallet:  w,
			Pool:    pool,
			Network: cfg.Network,
			Subnet:  log.Bootstrap(),
			Ledger:  cfg.LedgerID,
		},
		zlog: zlog.Named("node"),
	}
	log.SetApplier(n)

	obs := settle.NewObserver(pool, client, log, cfg.PendingExpiry.Duration, zlog)
	n.flusher = task.NewRunner("flush", cfg.FlushInterval.Duration, n.flushOnce, zlog)
	n.observer = task.NewRunner("observer", cfg.ObserverInterval.Duration, obs.Run, zlog,
		task.WithInitialDelay(cfg.ObserverInterval.Duration))
	return n, nil
}

// ApplyEntries implements subnet.Applier by delegating to the engine.
func (n *Node) ApplyEntries(ctx context.Context, entries []types.LogEntry) error {
	return n.engine.ApplyEntries(ctx, entries)
}

// Start launches the background tasks.
func (n *Node) Start() {
	n.flusher.Start()
	n.observer.Start()
}

// Stop drains the background tasks.
func (n *Node) Stop() {
	n.observer.Stop(true)
	n.flusher.Stop(true)
}

// flushOnce drives one log flush and republishes the horizons to the
// view store.
func (n *Node) flushOnce(ctx context.Context) (time.Duration, error) {
	if err := n.log.Flush(ctx); err != nil {
		return 0, err
	}
	n.store.SetLengths(n.log.Tip(), n.log.Confirmed())
	return 0, nil
}

// PrepareTx builds a signed submission for a dispatch using the local
// wallet.
func (n *Node) PrepareTx(ctx context.Context, d types.Dispatch) (*types.TxSubmission, error) {
	return n.preparer.Prepare(ctx, d)
}

// SubmitTx verifies a prepared submission and broadcasts it to the
// settlement ledger, parking it in the pool until the observer sees
// its confirmation. The submission may be surrogate-signed.
func (n *Node) SubmitTx(ctx context.Context, sub *types.TxSubmission) error {
	if err := settle.VerifySubmission(n.wallet, n.cfg.Network, n.log.Bootstrap(), n.cfg.LedgerID, sub); err != nil {
		return err
	}
	return n.preparer.Broadcast(ctx, sub)
}

// Simulate previews a submission's contract outcome against an
// ephemeral overlay of the current view. A non-empty reason reports
// why the transaction would be dropped.
func (n *Node) Simulate(ctx context.Context, sub *types.TxSubmission) (*types.TxRecord, string, error) {
	return n.engine.SimulateTx(&types.TxPayload{
		TxID:      sub.TxID,
		Requester: sub.Requester,
		Validator: sub.Validator,
		Dispatch:  sub.Dispatch,
	})
}

// Get reads a view key at the chosen horizon. The tip horizon flushes
// pending log entries first for local freshness; the confirmed
// horizon reads the view as already agreed.
func (n *Node) Get(ctx context.Context, key string, h types.Horizon) ([]byte, bool, error) {
	switch h {
	case types.HorizonTip:
		if err := n.log.Flush(ctx); err != nil {
			return nil, false, err
		}
		n.store.SetLengths(n.log.Tip(), n.log.Confirmed())
	case types.HorizonConfirmed:
	default:
		return nil, false, fmt.Errorf("node: unknown horizon %d", h)
	}
	v, ok := n.store.Get(key)
	return v, ok, nil
}

// Ops lists the contract's registered dispatch types and schemas.
func (n *Node) Ops() []contract.Registration {
	return n.contract.Registrations()
}

// View exposes the deterministic view for read-only callers.
func (n *Node) View() state.View { return n.store }

// Pool exposes the pending-transaction pool.
func (n *Node) Pool() *settle.Pool { return n.pool }

// Bootstrap returns the subnet identifier.
func (n *Node) Bootstrap() string { return n.log.Bootstrap() }

// Fingerprint returns the deterministic digest of the entire view.
// Two replicas that applied the same ordered log report the same
// fingerprint.
func (n *Node) Fingerprint() string { return n.store.Fingerprint() }
