// Package types defines the core data types of a subnet node.
//
// These are plain Go structs with cramberry struct tags for
// deterministic binary serialization on the log and transport
// boundaries, and json tags for the signed-payload encoding.
// Transport concerns (gRPC codec registration) are handled in the
// transport packages.
package types

import "encoding/json"

// Identity is a hex-encoded public key admitted to the replicated log.
type Identity = string

// Address is an identity in its ledger address encoding. For
// identity-addressed subnets it is the 64-character hex public key.
type Address = string

// Operation is the unit recorded in the replicated log. Immutable
// once appended.
//
// Type selects the handler. Key carries the target identity for
// self-service membership admission. Value is the operation's JSON payload,
// including the claimed address and signature for signature-authorized
// types. Hash is the hex digest of the canonical payload plus Nonce;
// it doubles as the replay-protection record key.
type Operation struct {
	Type  string `cramberry:"1" json:"type"`
	Key   string `cramberry:"2" json:"key,omitempty"`
	Value []byte `cramberry:"3" json:"value,omitempty"`
	Hash  string `cramberry:"4" json:"hash,omitempty"`
	Nonce string `cramberry:"5" json:"nonce,omitempty"`
}

// LogEntry is an Operation plus provenance: the identity of the
// writer that authored it and its position in the total order.
// Every replica consumes the same entries in the same order.
type LogEntry struct {
	From Identity  `cramberry:"1" json:"from"`
	Seq  uint64    `cramberry:"2" json:"seq"`
	Op   Operation `cramberry:"3" json:"op"`
}

// Dispatch is a contract invocation: a registered operation type and
// its JSON argument value.
type Dispatch struct {
	Type  string          `cramberry:"1" json:"type"`
	Value json.RawMessage `cramberry:"2" json:"value"`
}
