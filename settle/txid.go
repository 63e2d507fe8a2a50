// Package settle implements the transaction settlement protocol: the
// deterministic transaction id, the client-side prepare/sign/broadcast
// flow, apply-time cross-validation against the external settlement
// ledger, and the pending pool with its confirmation observer.
package settle

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/blockberries/cramberry/pkg/cramberry"
	"github.com/gowebpki/jcs"

	"github.com/blockberries/subnet/types"
)

// txPreimage is the canonical input to transaction id derivation. The
// field set pins a transaction to one network, one subnet, one ledger,
// one requester, and one content hash at one point in ledger history.
type txPreimage struct {
	Network     string `cramberry:"1"`
	Proof       string `cramberry:"2"`
	Requester   string `cramberry:"3"`
	ContentHash string `cramberry:"4"`
	Subnet      string `cramberry:"5"`
	Ledger      string `cramberry:"6"`
	Nonce       string `cramberry:"7"`
}

// DeriveTxID computes the deterministic transaction id: the hex
// sha256 of the canonically serialized preimage. Any party holding
// the same inputs derives the same id.
func DeriveTxID(network, proof string, requester types.Identity, contentHash, subnetID, ledgerID, nonce string) (string, error) {
	raw, err := cramberry.Marshal(&txPreimage{
		Network:     network,
		Proof:       proof,
		Requester:   requester,
		ContentHash: contentHash,
		Subnet:      subnetID,
		Ledger:      ledgerID,
		Nonce:       nonce,
	})
	if err != nil {
		return "", fmt.Errorf("settle: marshal txid preimage: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// ContentHash computes the hex sha256 of the canonical JSON form of a
// dispatch. The settlement ledger records this hash; apply-time
// cross-validation recomputes it from the local payload.
func ContentHash(d types.Dispatch) (string, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("settle: marshal dispatch: %w", err)
	}
	canon, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("settle: canonicalize dispatch: %w", err)
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}
