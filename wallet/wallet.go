// Package wallet implements ed25519 identity keys for subnet
// participants. Public keys double as addresses: the address of a
// participant is its 64-character hex public key.
package wallet

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Wallet holds one ed25519 keypair.
type Wallet struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// New generates a fresh keypair.
func New() (*Wallet, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("wallet: generate key: %w", err)
	}
	return &Wallet{priv: priv, pub: pub}, nil
}

// FromSeed derives a deterministic keypair from a 32-byte hex seed.
func FromSeed(seedHex string) (*Wallet, error) {
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("wallet: decode seed: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("wallet: seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &Wallet{priv: priv, pub: priv.Public().(ed25519.PublicKey)}, nil
}

// Sign signs msg and returns the hex signature.
func (w *Wallet) Sign(msg []byte) (string, error) {
	return hex.EncodeToString(ed25519.Sign(w.priv, msg)), nil
}

// Verify checks a hex signature over msg against the given address
// (a hex-encoded ed25519 public key). Malformed signatures and
// addresses verify as false.
func (w *Wallet) Verify(sig string, msg []byte, address string) bool {
	return Verify(sig, msg, address)
}

// PublicKey returns the hex-encoded public key.
func (w *Wallet) PublicKey() string { return hex.EncodeToString(w.pub) }

// Address returns the participant address, which is the public key.
func (w *Wallet) Address() string { return w.PublicKey() }

// Verify checks a hex ed25519 signature without a keypair in hand.
func Verify(sig string, msg []byte, address string) bool {
	rawSig, err := hex.DecodeString(sig)
	if err != nil || len(rawSig) != ed25519.SignatureSize {
		return false
	}
	rawPub, err := hex.DecodeString(address)
	if err != nil || len(rawPub) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(rawPub), msg, rawSig)
}
