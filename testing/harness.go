// Package subnettest provides test scaffolding for subnet nodes:
// deterministic identities, signed operation builders, and an
// in-process harness wired to the local log and ledger.
package subnettest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gowebpki/jcs"
	"go.uber.org/zap"

	"github.com/blockberries/subnet/contract"
	"github.com/blockberries/subnet/local"
	"github.com/blockberries/subnet/node"
	"github.com/blockberries/subnet/types"
	"github.com/blockberries/subnet/wallet"
)

// Harness is an in-process subnet node with scriptable collaborators.
// Identities are seed-derived so two harnesses built the same way
// share them, which determinism tests rely on.
type Harness struct {
	T      *testing.T
	Node   *node.Node
	Log    *local.MemoryLog
	Ledger *local.MemoryLedger
	Admin  *wallet.Wallet
	Cfg    node.Config
}

// SeedWallet derives the deterministic wallet for a one-byte seed.
func SeedWallet(t *testing.T, seed byte) *wallet.Wallet {
	t.Helper()
	w, err := wallet.FromSeed(strings.Repeat(fmt.Sprintf("%02x", seed), 32))
	if err != nil {
		t.Fatalf("seed wallet: %v", err)
	}
	return w
}

// New builds a harness around the given contract. The bootstrap
// identity is the seed-1 wallet, which the harness exposes as Admin.
func New(t *testing.T, c *contract.Contract) *Harness {
	t.Helper()

	admin := SeedWallet(t, 1)
	log := local.NewMemoryLog(admin.PublicKey())
	ledger := local.NewMemoryLedger("ledger-test")

	cfg := node.DefaultConfig()
	cfg.Network = "testnet"
	cfg.LedgerID = ledger.ID()
	cfg.PollInterval = node.Duration{Duration: time.Millisecond}
	cfg.PendingExpiry = node.Duration{Duration: time.Minute}

	n, err := node.New(cfg, log, ledger, admin, c, zap.NewNop())
	if err != nil {
		t.Fatalf("build node: %v", err)
	}
	return &Harness{T: t, Node: n, Log: log, Ledger: ledger, Admin: admin, Cfg: cfg}
}

// EmptyContract builds a contract with no registrations.
func EmptyContract(t *testing.T) *contract.Contract {
	t.Helper()
	c, err := contract.NewBuilder().Build()
	if err != nil {
		t.Fatalf("build contract: %v", err)
	}
	return c
}

// Op builds an unsigned operation from a JSON-able value.
func Op(t *testing.T, typ string, value map[string]any) types.Operation {
	t.Helper()
	raw, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("marshal op value: %v", err)
	}
	return types.Operation{Type: typ, Value: raw}
}

// SignOp builds a signature-authorized operation: it signs the
// canonical value plus a fresh nonce with the given wallet, embeds
// the signature under "sig", and records the digest as the
// operation's hash.
func SignOp(t *testing.T, w *wallet.Wallet, typ string, value map[string]any) types.Operation {
	t.Helper()

	raw, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("marshal op value: %v", err)
	}
	canon, err := jcs.Transform(raw)
	if err != nil {
		t.Fatalf("canonicalize op value: %v", err)
	}

	u := uuid.New()
	nonce := hex.EncodeToString(u[:])
	h := sha256.New()
	h.Write(canon)
	h.Write(u[:])
	digest := h.Sum(nil)

	sig, err := w.Sign(digest)
	if err != nil {
		t.Fatalf("sign op: %v", err)
	}

	signed := make(map[string]any, len(value)+1)
	for k, v := range value {
		signed[k] = v
	}
	signed["sig"] = sig
	full, err := json.Marshal(signed)
	if err != nil {
		t.Fatalf("marshal signed value: %v", err)
	}
	return types.Operation{
		Type:  typ,
		Value: full,
		Hash:  hex.EncodeToString(digest),
		Nonce: nonce,
	}
}

// Deliver injects entries with the given provenance and flushes them
// through apply.
func (h *Harness) Deliver(from types.Identity, ops ...types.Operation) error {
	for _, op := range ops {
		h.Log.Inject(from, op)
	}
	return h.Log.Flush(context.Background())
}

// MustDeliver is Deliver that fails the test on an apply fault.
func (h *Harness) MustDeliver(from types.Identity, ops ...types.Operation) {
	h.T.Helper()
	if err := h.Deliver(from, ops...); err != nil {
		h.T.Fatalf("deliver: %v", err)
	}
}

// Get reads a committed view key.
func (h *Harness) Get(key string) ([]byte, bool) {
	return h.Node.View().Get(key)
}

// GetString reads a committed view key as a string, empty when
// unset.
func (h *Harness) GetString(key string) string {
	v, _ := h.Get(key)
	return string(v)
}

// Bootstrap returns the subnet's bootstrap identity.
func (h *Harness) Bootstrap() types.Identity { return h.Log.Bootstrap() }

// BootstrapAdmin delivers the bootstrap addAdmin for the harness
// admin wallet.
func (h *Harness) BootstrapAdmin() {
	h.T.Helper()
	h.MustDeliver(h.Bootstrap(), Op(h.T, "addAdmin", map[string]any{
		"key": h.Admin.Address(),
	}))
	if got := h.GetString("admin"); got != h.Admin.Address() {
		h.T.Fatalf("admin not set: %q", got)
	}
}

// AdminOp builds an admin-signed operation.
func (h *Harness) AdminOp(typ string, value map[string]any) types.Operation {
	return SignOp(h.T, h.Admin, typ, value)
}
