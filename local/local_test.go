package local

import (
	"context"
	"errors"
	"testing"

	"github.com/blockberries/cramberry/pkg/cramberry"

	"github.com/blockberries/subnet/settle"
	"github.com/blockberries/subnet/types"
)

type recordingApplier struct {
	batches [][]types.LogEntry
	fail    bool
}

func (a *recordingApplier) ApplyEntries(ctx context.Context, entries []types.LogEntry) error {
	if a.fail {
		return errors.New("apply fault")
	}
	cp := make([]types.LogEntry, len(entries))
	copy(cp, entries)
	a.batches = append(a.batches, cp)
	return nil
}

func TestLogAppendRequiresWriter(t *testing.T) {
	l := NewMemoryLog("boot")
	ctx := context.Background()

	if err := l.Append(ctx, types.Operation{Type: "msg"}); err != nil {
		t.Fatalf("bootstrap append: %v", err)
	}

	l.SetIdentity("stranger")
	if err := l.Append(ctx, types.Operation{Type: "msg"}); err == nil {
		t.Fatalf("append by non-writer must fail")
	}

	if err := l.AddWriter(ctx, "stranger", false); err != nil {
		t.Fatalf("AddWriter: %v", err)
	}
	if err := l.Append(ctx, types.Operation{Type: "msg"}); err != nil {
		t.Fatalf("append after admission: %v", err)
	}

	admitted, indexer := l.HasWriter("stranger")
	if !admitted || indexer {
		t.Fatalf("HasWriter = %v, %v; want true, false", admitted, indexer)
	}
}

func TestLogFlushDeliversInOrderOnce(t *testing.T) {
	l := NewMemoryLog("boot")
	a := &recordingApplier{}
	l.SetApplier(a)
	ctx := context.Background()

	l.Inject("boot", types.Operation{Type: "a"})
	l.Inject("w2", types.Operation{Type: "b"})
	if err := l.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := l.Flush(ctx); err != nil {
		t.Fatalf("empty Flush: %v", err)
	}

	if len(a.batches) != 1 {
		t.Fatalf("batches = %d, want 1", len(a.batches))
	}
	got := a.batches[0]
	if len(got) != 2 || got[0].Op.Type != "a" || got[1].Op.Type != "b" {
		t.Fatalf("unexpected delivery: %+v", got)
	}
	if got[0].Seq != 0 || got[1].Seq != 1 {
		t.Fatalf("bad sequence numbers: %d, %d", got[0].Seq, got[1].Seq)
	}
	if got[1].From != "w2" {
		t.Fatalf("provenance = %q", got[1].From)
	}
	if l.Tip() != 2 || l.Confirmed() != 2 {
		t.Fatalf("horizons = %d/%d, want 2/2", l.Tip(), l.Confirmed())
	}
}

func TestLogFlushRedeliversAfterFault(t *testing.T) {
	l := NewMemoryLog("boot")
	a := &recordingApplier{fail: true}
	l.SetApplier(a)
	ctx := context.Background()

	l.Inject("boot", types.Operation{Type: "a"})
	if err := l.Flush(ctx); err == nil {
		t.Fatalf("flush must surface the apply fault")
	}
	if l.Confirmed() != 0 {
		t.Fatalf("confirmed advanced past a fault: %d", l.Confirmed())
	}

	a.fail = false
	if err := l.Flush(ctx); err != nil {
		t.Fatalf("retry flush: %v", err)
	}
	if len(a.batches) != 1 || len(a.batches[0]) != 1 {
		t.Fatalf("entry not redelivered exactly once: %+v", a.batches)
	}
	if l.Confirmed() != 1 {
		t.Fatalf("confirmed = %d, want 1", l.Confirmed())
	}
}

func TestLedgerSettleBroadcasts(t *testing.T) {
	l := NewMemoryLedger("ledger-1")
	ctx := context.Background()

	sub := types.TxSubmission{
		TxID:      "aa11",
		Requester: "req-identity",
		Dispatch:  types.Dispatch{Type: "transfer", Value: []byte(`{"x":1}`)},
	}
	raw, err := cramberry.Marshal(&sub)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := l.Broadcast(ctx, raw); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}

	h, err := l.Settle("subnet-1", "validator-1")
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if got, _ := l.ConfirmedHeight(ctx); got != h {
		t.Fatalf("confirmed = %d, want %d", got, h)
	}

	rawEnt, err := l.EntryAt(ctx, h, "aa11")
	if err != nil {
		t.Fatalf("EntryAt: %v", err)
	}
	var ent types.SettlementEntry
	if err := cramberry.Unmarshal(rawEnt, &ent); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if ent.Kind != settle.KindTransaction || ent.TxID != "aa11" ||
		ent.Subnet != "subnet-1" || ent.Ledger != "ledger-1" || ent.Validator != "validator-1" {
		t.Fatalf("unexpected entry: %+v", ent)
	}
	wantCH, _ := settle.ContentHash(sub.Dispatch)
	if ent.ContentHash != wantCH {
		t.Fatalf("content hash = %q, want %q", ent.ContentHash, wantCH)
	}

	if _, err := l.EntryAt(ctx, h, "missing"); err == nil {
		t.Fatalf("missing entry must error")
	}
	if _, err := l.EntryAt(ctx, h+1, "aa11"); err == nil {
		t.Fatalf("wrong height must error")
	}
}

func TestLedgerIdentityAddressing(t *testing.T) {
	l := NewMemoryLedger("ledger-1")
	addr, err := l.AddressOf("id-1")
	if err != nil || addr != "id-1" {
		t.Fatalf("AddressOf = %q, %v", addr, err)
	}
	id, err := l.IdentityOf("addr-1")
	if err != nil || id != "addr-1" {
		t.Fatalf("IdentityOf = %q, %v", id, err)
	}
}
