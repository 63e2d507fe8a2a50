package node_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/blockberries/subnet/example/token"
	"github.com/blockberries/subnet/node"
	subnettest "github.com/blockberries/subnet/testing"
	"github.com/blockberries/subnet/types"
)

func TestConfigDefaults(t *testing.T) {
	cfg := node.DefaultConfig()
	if cfg.Network != "mainnet" || cfg.LedgerID != "settlement" {
		t.Fatalf("unexpected identifiers: %+v", cfg)
	}
	if cfg.MaxHeightAhead != 10 || cfg.MaxTxPayload != 64*1024 {
		t.Fatalf("unexpected bounds: %+v", cfg)
	}
	if cfg.PendingExpiry.Duration != 10*time.Minute {
		t.Fatalf("pending expiry = %v", cfg.PendingExpiry.Duration)
	}
}

func TestConfigLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subnet.toml")
	doc := `
network = "testnet"
max_height_ahead = 3
pending_expiry = "90s"
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := node.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Network != "testnet" {
		t.Fatalf("network = %q", cfg.Network)
	}
	if cfg.MaxHeightAhead != 3 {
		t.Fatalf("max height ahead = %d", cfg.MaxHeightAhead)
	}
	if cfg.PendingExpiry.Duration != 90*time.Second {
		t.Fatalf("pending expiry = %v", cfg.PendingExpiry.Duration)
	}
	// Untouched keys keep their defaults.
	if cfg.LedgerID != "settlement" || cfg.MaxMessageLength != 2000 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestConfigEnvOverrides(t *testing.T) {
	t.Setenv("SUBNET_NETWORK", "devnet")
	t.Setenv("SUBNET_MAX_HEIGHT_AHEAD", "7")
	t.Setenv("SUBNET_PENDING_EXPIRY", "45s")

	cfg, err := node.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Network != "devnet" || cfg.MaxHeightAhead != 7 {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.PendingExpiry.Duration != 45*time.Second {
		t.Fatalf("pending expiry = %v", cfg.PendingExpiry.Duration)
	}

	t.Setenv("SUBNET_MAX_HEIGHT_AHEAD", "not a number")
	if _, err := node.Load(""); err == nil {
		t.Fatalf("malformed env accepted")
	}
}

func TestGetHorizons(t *testing.T) {
	h := subnettest.New(t, subnettest.EmptyContract(t))
	h.BootstrapAdmin()
	ctx := context.Background()

	// An injected but unflushed entry is ahead of the confirmed view.
	h.Log.Inject(h.Bootstrap(), h.AdminOp("setChatStatus", map[string]any{"enabled": 1}))

	v, found, err := h.Node.Get(ctx, "chat_status", types.HorizonConfirmed)
	if err != nil {
		t.Fatalf("Get confirmed: %v", err)
	}
	if found {
		t.Fatalf("confirmed read saw an unflushed entry: %q", v)
	}

	v, found, err = h.Node.Get(ctx, "chat_status", types.HorizonTip)
	if err != nil {
		t.Fatalf("Get tip: %v", err)
	}
	if !found || string(v) != "1" {
		t.Fatalf("tip read = %q, %v", v, found)
	}

	if _, _, err := h.Node.Get(ctx, "chat_status", types.Horizon(99)); err == nil {
		t.Fatalf("unknown horizon accepted")
	}
}

func buildToken(t *testing.T) *subnettest.Harness {
	t.Helper()
	c, err := token.New()
	if err != nil {
		t.Fatalf("build contract: %v", err)
	}
	return subnettest.New(t, c)
}

func TestSimulatePreviewsWithoutCommit(t *testing.T) {
	h := buildToken(t)
	h.BootstrapAdmin()
	ctx := context.Background()
	bob := subnettest.SeedWallet(t, 2)

	h.MustDeliver(h.Bootstrap(), h.AdminOp("feature", map[string]any{
		"key":   "airdrop",
		"value": map[string]any{"addresses": []string{h.Admin.Address()}, "amount": "100"},
	}))

	d := types.Dispatch{
		Type:  "transfer",
		Value: json.RawMessage(`{"to":"` + bob.Address() + `","amount":"40"}`),
	}
	sub, err := h.Node.PrepareTx(ctx, d)
	if err != nil {
		t.Fatalf("PrepareTx: %v", err)
	}

	rec, reason, err := h.Node.Simulate(ctx, sub)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if reason != "" {
		t.Fatalf("simulation dropped: %q", reason)
	}
	if rec == nil || rec.ErrKind != "" || len(rec.Result) == 0 {
		t.Fatalf("unexpected record: %+v", rec)
	}

	// Nothing committed: no index, balances untouched.
	if got := h.GetString("txl"); got != "" {
		t.Fatalf("simulation committed: txl = %q", got)
	}
	if got := h.GetString("tkn/" + h.Admin.Address()); got != "100" {
		t.Fatalf("simulation moved funds: %q", got)
	}

	// A business rule violation previews as data.
	d.Value = json.RawMessage(`{"to":"` + bob.Address() + `","amount":"100000"}`)
	sub, err = h.Node.PrepareTx(ctx, d)
	if err != nil {
		t.Fatalf("PrepareTx: %v", err)
	}
	rec, reason, err = h.Node.Simulate(ctx, sub)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if reason != "" {
		t.Fatalf("simulation dropped: %q", reason)
	}
	if rec.ErrKind != "insufficient_funds" {
		t.Fatalf("ErrKind = %q", rec.ErrKind)
	}
}

func TestSimulateBoundsWholePayload(t *testing.T) {
	h := buildToken(t)
	h.BootstrapAdmin()
	ctx := context.Background()

	// The dispatch value alone stays under the payload bound; the
	// encoded payload around it does not. Apply would drop this at
	// the size gate, so simulation must too.
	pad := strings.Repeat("x", h.Cfg.MaxTxPayload-40)
	d := types.Dispatch{
		Type:  "transfer",
		Value: json.RawMessage(`{"pad":"` + pad + `"}`),
	}
	sub, err := h.Node.PrepareTx(ctx, d)
	if err != nil {
		t.Fatalf("PrepareTx: %v", err)
	}
	rec, reason, err := h.Node.Simulate(ctx, sub)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if rec != nil || reason == "" {
		t.Fatalf("oversize payload simulated: %+v, %q", rec, reason)
	}
}

func TestSimulateUnknownDispatch(t *testing.T) {
	h := buildToken(t)
	h.BootstrapAdmin()
	ctx := context.Background()

	sub, err := h.Node.PrepareTx(ctx, types.Dispatch{Type: "nope", Value: json.RawMessage(`{}`)})
	if err != nil {
		t.Fatalf("PrepareTx: %v", err)
	}
	rec, reason, err := h.Node.Simulate(ctx, sub)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if reason == "" || rec != nil {
		t.Fatalf("unknown dispatch not reported: %+v, %q", rec, reason)
	}
}

func TestOpsListsRegistrations(t *testing.T) {
	h := buildToken(t)

	ops := h.Node.Ops()
	if len(ops) != 3 {
		t.Fatalf("registrations = %d, want 3", len(ops))
	}
	// Sorted by type: airdrop, burn, transfer.
	if ops[0].Type != "airdrop" || !ops[0].Feature {
		t.Fatalf("ops[0] = %+v", ops[0])
	}
	if ops[1].Type != "burn" || ops[1].Feature || ops[1].Schema != "" {
		t.Fatalf("ops[1] = %+v", ops[1])
	}
	if ops[2].Type != "transfer" || ops[2].Schema != token.TransferSchema {
		t.Fatalf("ops[2] = %+v", ops[2])
	}
}

func TestBackgroundTasksFlush(t *testing.T) {
	h := subnettest.New(t, subnettest.EmptyContract(t))
	h.BootstrapAdmin()

	h.Log.Inject(h.Bootstrap(), h.AdminOp("setChatStatus", map[string]any{"enabled": 1}))

	h.Node.Start()
	defer h.Node.Stop()

	deadline := time.After(5 * time.Second)
	for {
		if got := h.GetString("chat_status"); got == "1" {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("background flush never applied the entry")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
