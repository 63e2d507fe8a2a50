package settle

import (
	"context"
	"errors"
	"time"

	"github.com/blockberries/cramberry/pkg/cramberry"

	"github.com/blockberries/subnet"
	"github.com/blockberries/subnet/types"
)

// KindTransaction is the settlement entry kind admitting subnet
// effects. Other kinds (fee records, ledger housekeeping) never do.
const KindTransaction = "transaction"

// Validator cross-validates applied "tx" operations against the
// external settlement ledger.
type Validator struct {
	// Client reads the external ledger.
	Client subnet.SettlementClient

	// Subnet is the local subnet identifier (the log's bootstrap key).
	Subnet string

	// Ledger is the external ledger identifier transactions must
	// reference.
	Ledger string

	// MaxEntrySize bounds a fetched settlement entry in bytes.
	MaxEntrySize int

	// MaxHeightAhead bounds how far past the confirmed horizon a
	// referenced height may lie. Heights beyond it are dropped
	// immediately instead of awaited.
	MaxHeightAhead uint64

	// PollInterval is the wait between confirmed-height polls while
	// waiting for a referenced height.
	PollInterval time.Duration
}

// CrossValidate checks a tx payload against the external ledger. A
// non-empty reason means the operation must be dropped as a
// deterministic no-op; a non-nil error is a fault (ledger unreachable
// or apply cancelled) and aborts the batch so the entry can be
// retried.
//
// Waiting for the referenced height is the one sanctioned suspension
// point inside apply; the MaxHeightAhead guard bounds it.
func (v *Validator) CrossValidate(ctx context.Context, p *types.TxPayload) (string, error) {
	confirmed, err := v.Client.ConfirmedHeight(ctx)
	if err != nil {
		return "", subnet.NewFault("tx", "read confirmed height", err)
	}
	if p.Height > confirmed+v.MaxHeightAhead {
		return "referenced height beyond stall guard", nil
	}

	for confirmed < p.Height {
		select {
		case <-ctx.Done():
			return "", subnet.NewFault("tx", "apply cancelled while awaiting settlement height", ctx.Err())
		case <-time.After(v.PollInterval):
		}
		confirmed, err = v.Client.ConfirmedHeight(ctx)
		if err != nil {
			return "", subnet.NewFault("tx", "read confirmed height", err)
		}
	}

	raw, err := v.Client.EntryAt(ctx, p.Height, p.TxID)
	if err != nil {
		if errors.Is(err, subnet.ErrNoEntry) {
			return "no settlement entry at referenced height", nil
		}
		return "", subnet.NewFault("tx", "fetch settlement entry", err)
	}
	if len(raw) == 0 {
		return "no settlement entry at referenced height", nil
	}
	if len(raw) > v.MaxEntrySize {
		return "settlement entry exceeds size bound", nil
	}

	var ent types.SettlementEntry
	if err := cramberry.Unmarshal(raw, &ent); err != nil {
		return "malformed settlement entry", nil
	}
	return v.check(ctx, p, &ent)
}

func (v *Validator) check(ctx context.Context, p *types.TxPayload, ent *types.SettlementEntry) (string, error) {
	if ent.Kind != KindTransaction {
		return "settlement entry is not a transaction record", nil
	}
	if ent.TxID != p.TxID {
		return "settlement entry txid mismatch", nil
	}
	if ent.Subnet != v.Subnet {
		return "settlement entry subnet mismatch", nil
	}
	if ent.Ledger != v.Ledger {
		return "settlement entry ledger mismatch", nil
	}

	ch, err := ContentHash(p.Dispatch)
	if err != nil {
		return "dispatch payload not canonicalizable", nil
	}
	if ent.ContentHash != ch {
		return "content hash mismatch", nil
	}

	reqAddr, err := v.Client.AddressOf(ent.Requester)
	if err != nil || reqAddr != p.Requester {
		return "requester address mismatch", nil
	}
	valAddr, err := v.Client.AddressOf(ent.Validator)
	if err != nil || valAddr != p.Validator {
		return "validator address mismatch", nil
	}
	return "", nil
}
