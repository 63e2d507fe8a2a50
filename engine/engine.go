// Package engine implements the deterministic apply/dispatch engine
// and its operation handler registry. Entries arrive from the
// replicated log in total order; each one is validated, authorized,
// and applied to a transactional batch that commits atomically per
// group of entries. Every precondition failure is a deterministic
// no-op, never an error, so replicas tolerate stale or malicious
// entries without diverging. The only error path out of apply is a
// contract fault.
package engine

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/blockberries/subnet"
	"github.com/blockberries/subnet/contract"
	"github.com/blockberries/subnet/settle"
	"github.com/blockberries/subnet/state"
	"github.com/blockberries/subnet/types"
)

// Operation types understood by the registry.
const (
	OpAddAdmin           = "addAdmin"
	OpUpdateAdmin        = "updateAdmin"
	OpAddWriter          = "addWriter"
	OpAddIndexer         = "addIndexer"
	OpRemoveWriter       = "removeWriter"
	OpAutoAddWriter      = "autoAddWriter"
	OpSetAutoAddWriters  = "setAutoAddWriters"
	OpSetChatStatus      = "setChatStatus"
	OpSetMod             = "setMod"
	OpSetWhitelistStatus = "setWhitelistStatus"
	OpEnableWhitelist    = "enableWhitelist"
	OpMuteStatus         = "muteStatus"
	OpSetNick            = "setNick"
	OpMsg                = "msg"
	OpDeleteMessage      = "deleteMessage"
	OpPinMessage         = "pinMessage"
	OpUnpinMessage       = "unpinMessage"
	OpFeature            = "feature"
	OpEnableTransactions = "enableTransactions"
	OpTx                 = "tx"
)

// VerifyFunc checks a hex signature over a message against an
// address. wallet.Verify satisfies it.
type VerifyFunc func(sig string, msg []byte, address string) bool

// Config bounds handler inputs.
type Config struct {
	// MaxTxPayload bounds a tx operation's value in bytes.
	MaxTxPayload int

	// MaxMessageLength bounds a chat message's visible length in
	// runes.
	MaxMessageLength int

	// MaxNickLength bounds a nickname's visible length in runes.
	MaxNickLength int
}

// Env is the per-entry context a handler runs in.
type Env struct {
	// From is the identity of the log writer that authored the entry.
	From types.Identity

	// Seq is the entry's position in the total order.
	Seq uint64

	// Op is the operation to apply.
	Op types.Operation

	// Batch collects the entry's mutations. Committed by the engine,
	// never by handlers.
	Batch *state.Batch
}

type handlerFunc func(ctx context.Context, env *Env) error

// Engine replays ordered log entries into the deterministic view.
type Engine struct {
	store     *state.MemoryStore
	log       subnet.ReplicatedLog
	contract  *contract.Contract
	txv       *settle.Validator
	verify    VerifyFunc
	zlog      *zap.Logger
	cfg       Config
	bootstrap types.Identity
	handlers  map[string]handlerFunc
	schemas   *opSchemas
}

// New builds the engine and resolves the handler registry once. The
// registry is fixed for the engine's lifetime.
func New(store *state.MemoryStore, log subnet.ReplicatedLog, c *contract.Contract, txv *settle.Validator, verify VerifyFunc, zlog *zap.Logger, cfg Config) (*Engine, error) {
	schemas, err := compileOpSchemas()
	if err != nil {
		return nil, err
	}
	e := &Engine{
		store:     store,
		log:       log,
		contract:  c,
		txv:       txv,
		verify:    verify,
		zlog:      zlog.Named("engine"),
		cfg:       cfg,
		bootstrap: log.Bootstrap(),
		schemas:   schemas,
	}
	e.handlers = map[string]handlerFunc{
		OpAddAdmin:           e.applyAddAdmin,
		OpUpdateAdmin:        e.applyUpdateAdmin,
		OpAddWriter:          e.applyAddWriter,
		OpAddIndexer:         e.applyAddIndexer,
		OpRemoveWriter:       e.applyRemoveWriter,
		OpAutoAddWriter:      e.applyAutoAddWriter,
		OpSetAutoAddWriters:  e.applySetAutoAddWriters,
		OpSetChatStatus:      e.applySetChatStatus,
		OpSetMod:             e.applySetMod,
		OpSetWhitelistStatus: e.applySetWhitelistStatus,
		OpEnableWhitelist:    e.applyEnableWhitelist,
		OpMuteStatus:         e.applyMuteStatus,
		OpSetNick:            e.applySetNick,
		OpMsg:                e.applyMsg,
		OpDeleteMessage:      e.applyDeleteMessage,
		OpPinMessage:         e.applyPinMessage,
		OpUnpinMessage:       e.applyUnpinMessage,
		OpFeature:            e.applyFeature,
		OpEnableTransactions: e.applyEnableTransactions,
		OpTx:                 e.applyTx,
	}
	return e, nil
}

// ApplyEntries implements subnet.Applier. Entries are processed
// strictly serially in the given order; a later entry observes state
// mutated by an earlier one in the same pass. The batch commits as
// one atomic unit after the last entry; on a fault nothing commits
// and the error propagates so the group can be retried.
func (e *Engine) ApplyEntries(ctx context.Context, entries []types.LogEntry) error {
	batch := state.NewBatch(e.store)
	for i := range entries {
		ent := &entries[i]
		env := &Env{From: ent.From, Seq: ent.Seq, Op: ent.Op, Batch: batch}
		h, ok := e.handlers[ent.Op.Type]
		if !ok {
			e.drop(env, "unknown operation type")
			continue
		}
		if err := h(ctx, env); err != nil {
			e.zlog.Error("apply fault",
				zap.String("type", ent.Op.Type),
				zap.Uint64("seq", ent.Seq),
				zap.Error(err))
			return err
		}
	}
	batch.Commit(e.store)
	return nil
}

// drop records a deterministic no-op. It is not an error path.
func (e *Engine) drop(env *Env, reason string) error {
	e.zlog.Debug("operation dropped",
		zap.String("type", env.Op.Type),
		zap.Uint64("seq", env.Seq),
		zap.String("reason", reason))
	return nil
}

// counter reads a decimal counter key, zero when unset.
func counter(r state.Reader, key string) uint64 {
	raw, ok := r.Get(key)
	if !ok {
		return 0
	}
	n, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func putCounter(w state.Writer, key string, n uint64) error {
	return w.Put(key, []byte(strconv.FormatUint(n, 10)))
}

// adminAddr returns the subnet admin address, if one is set.
func adminAddr(r state.Reader) (types.Address, bool) {
	raw, ok := r.Get("admin")
	if !ok || len(raw) == 0 {
		return "", false
	}
	return types.Address(raw), true
}

func isAdmin(r state.Reader, addr types.Address) bool {
	admin, ok := adminAddr(r)
	return ok && admin == addr
}

func isMod(r state.Reader, addr types.Address) bool {
	raw, ok := r.Get("mod/" + addr)
	return ok && string(raw) == "1"
}

// flagOn reports a "1"-valued flag key. Unset is off.
func flagOn(r state.Reader, key string) bool {
	raw, ok := r.Get(key)
	return ok && string(raw) == "1"
}

// txEnabled reports the transaction-acceptance flag, enabled when
// unset.
func txEnabled(r state.Reader) bool {
	raw, ok := r.Get("txen")
	if !ok {
		return true
	}
	return string(raw) == "1"
}

// autoAddOn reports the self-service writer-admission flag.
func autoAddOn(r state.Reader) bool {
	raw, ok := r.Get("auto_add_writers")
	return ok && string(raw) == "on"
}
