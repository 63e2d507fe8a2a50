package subnettest

import (
	"testing"

	"github.com/blockberries/subnet/contract"
	"github.com/blockberries/subnet/types"
)

// Scripted is one log entry with provenance, for replaying the same
// sequence against multiple nodes.
type Scripted struct {
	From types.Identity
	Op   types.Operation
}

// VerifyDeterminism delivers the same ordered entries to two
// independently built nodes and requires byte-identical view
// fingerprints. The contract factory runs once per node so the nodes
// share no state.
func VerifyDeterminism(t *testing.T, build func(t *testing.T) *contract.Contract, script []Scripted) {
	t.Helper()

	a := New(t, build(t))
	b := New(t, build(t))
	for _, s := range script {
		if err := a.Deliver(s.From, s.Op); err != nil {
			t.Fatalf("deliver to first node: %v", err)
		}
		if err := b.Deliver(s.From, s.Op); err != nil {
			t.Fatalf("deliver to second node: %v", err)
		}
	}

	fa, fb := a.Node.Fingerprint(), b.Node.Fingerprint()
	if fa != fb {
		t.Fatalf("replicas diverged:\n  a = %s\n  b = %s", fa, fb)
	}
}

// VerifyReplay delivers the script once, snapshots the fingerprint,
// redelivers the identical entries, and requires the state to be
// unchanged: every signed action applies at most once.
func VerifyReplay(t *testing.T, build func(t *testing.T) *contract.Contract, script []Scripted) {
	t.Helper()

	h := New(t, build(t))
	for _, s := range script {
		if err := h.Deliver(s.From, s.Op); err != nil {
			t.Fatalf("deliver: %v", err)
		}
	}
	before := h.Node.Fingerprint()

	for _, s := range script {
		if err := h.Deliver(s.From, s.Op); err != nil {
			t.Fatalf("redeliver: %v", err)
		}
	}
	if after := h.Node.Fingerprint(); after != before {
		t.Fatalf("replay changed state:\n  before = %s\n  after  = %s", before, after)
	}
}
