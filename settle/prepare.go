package settle

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/blockberries/cramberry/pkg/cramberry"
	"github.com/google/uuid"

	"github.com/blockberries/subnet"
	"github.com/blockberries/subnet/types"
)

// Preparer drives the client side of the settlement state machine:
// prepare a dispatch, derive and sign its transaction id, broadcast
// it to the external ledger, and park it in the pool for the
// observer.
type Preparer struct {
	Client subnet.SettlementClient
	Wallet subnet.Wallet
	Pool   *Pool

	// Network, Subnet, and Ledger identify where the transaction
	// settles and which subnet its effects land on.
	Network string
	Subnet  string
	Ledger  string
}

// Prepare builds a signed submission for a dispatch: computes the
// content hash, derives the transaction id from the ledger's current
// sequence proof and a fresh nonce, and signs the id with the local
// wallet.
func (p *Preparer) Prepare(ctx context.Context, d types.Dispatch) (*types.TxSubmission, error) {
	ch, err := ContentHash(d)
	if err != nil {
		return nil, err
	}
	proof, err := p.Client.SequenceProof(ctx)
	if err != nil {
		return nil, fmt.Errorf("settle: read sequence proof: %w", err)
	}

	requester := p.Wallet.Address()
	nonce := uuid.NewString()
	txid, err := DeriveTxID(p.Network, proof, requester, ch, p.Subnet, p.Ledger, nonce)
	if err != nil {
		return nil, err
	}

	sig, err := SignTxID(p.Wallet, txid)
	if err != nil {
		return nil, err
	}
	return &types.TxSubmission{
		TxID:      txid,
		Requester: requester,
		Dispatch:  d,
		Nonce:     nonce,
		Proof:     proof,
		Sig:       sig,
	}, nil
}

// SignTxID signs the raw bytes of a hex transaction id. Exposed so a
// surrogate signer can produce the signature for a submission it did
// not prepare.
func SignTxID(w subnet.Wallet, txid string) (string, error) {
	raw, err := hex.DecodeString(txid)
	if err != nil {
		return "", fmt.Errorf("settle: decode txid: %w", err)
	}
	return w.Sign(raw)
}

// VerifySubmission checks a submission's internal consistency: the
// transaction id must re-derive from the submission's own fields and
// the signature must verify against the requester address.
func VerifySubmission(w subnet.Wallet, network, subnetID, ledgerID string, sub *types.TxSubmission) error {
	ch, err := ContentHash(sub.Dispatch)
	if err != nil {
		return err
	}
	txid, err := DeriveTxID(network, sub.Proof, sub.Requester, ch, subnetID, ledgerID, sub.Nonce)
	if err != nil {
		return err
	}
	if txid != sub.TxID {
		return fmt.Errorf("settle: txid does not derive from submission")
	}
	raw, err := hex.DecodeString(sub.TxID)
	if err != nil {
		return fmt.Errorf("settle: decode txid: %w", err)
	}
	if !w.Verify(sub.Sig, raw, sub.Requester) {
		return fmt.Errorf("settle: signature does not verify against requester")
	}
	return nil
}

// Broadcast submits a prepared transaction to the settlement ledger
// and parks it in the pool for the observer to promote once settled.
func (p *Preparer) Broadcast(ctx context.Context, sub *types.TxSubmission) error {
	payload, err := cramberry.Marshal(sub)
	if err != nil {
		return fmt.Errorf("settle: marshal submission: %w", err)
	}
	if err := p.Client.Broadcast(ctx, payload); err != nil {
		return fmt.Errorf("settle: broadcast: %w", err)
	}
	p.Pool.Insert(types.PendingTx{
		TxID:      sub.TxID,
		CreatedAt: types.TimeToTimestamp(time.Now()),
		Command:   *sub,
	})
	return nil
}
