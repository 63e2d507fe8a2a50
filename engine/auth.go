package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/gowebpki/jcs"

	"github.com/blockberries/subnet/types"
)

// signedDigest recomputes the digest a signer committed to: the
// sha256 of the canonical JSON of the operation value minus its "sig"
// field, followed by the raw nonce bytes.
func signedDigest(value []byte, nonce string) ([]byte, bool) {
	var m map[string]any
	if err := json.Unmarshal(value, &m); err != nil {
		return nil, false
	}
	delete(m, "sig")
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, false
	}
	canon, err := jcs.Transform(raw)
	if err != nil {
		return nil, false
	}
	rawNonce, err := hex.DecodeString(nonce)
	if err != nil || len(rawNonce) == 0 {
		return nil, false
	}

	h := sha256.New()
	h.Write(canon)
	h.Write(rawNonce)
	return h.Sum(nil), true
}

// authorize verifies a signature-authorized operation against the
// required signer: the digest must recompute from the value and
// nonce, the operation's recorded hash must match it, the signature
// must verify against the signer's address, and the hash must not
// already be applied. Any failure means drop.
func (e *Engine) authorize(env *Env, sig string, signer types.Address) bool {
	if sig == "" || signer == "" {
		return false
	}
	digest, ok := signedDigest(env.Op.Value, env.Op.Nonce)
	if !ok {
		return false
	}
	if env.Op.Hash == "" || env.Op.Hash != hex.EncodeToString(digest) {
		return false
	}
	if !e.verify(sig, digest, signer) {
		return false
	}
	if _, seen := env.Batch.Get("sh/" + env.Op.Hash); seen {
		return false
	}
	return true
}

// markApplied records the dedup hash in the same batch the authorize
// check read from, making the pair check-then-set atomic per pass.
func markApplied(env *Env) error {
	return env.Batch.Put("sh/"+env.Op.Hash, []byte("1"))
}
