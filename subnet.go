// Package subnet defines the boundary between a subnet node's
// deterministic core and its external collaborators.
//
// A subnet is one independently-operated replicated state machine:
// writers append signed operations to a shared, causally-ordered log,
// and every node replays that log into an identical key-value view.
// The core in this module (the apply/dispatch engine, the operation
// handler registry, the contract execution framework, and the
// transaction settlement protocol) consumes the collaborator
// interfaces declared here. The replication transport, durable log
// storage, and the settlement ledger's own consensus live behind them.
package subnet

import (
	"context"

	"github.com/blockberries/subnet/types"
)

// ReplicatedLog is the ordered multi-writer log the subnet replays.
//
// The core never orders entries itself: the log delivers them in the
// same total order on every replica, and the core's only obligation is
// that applying them is deterministic. Membership mutations are invoked
// exclusively from within apply, so they stay deterministic too.
type ReplicatedLog interface {
	// Append records an operation authored by the local writer.
	// The entry becomes visible to every replica once replicated.
	Append(ctx context.Context, op types.Operation) error

	// AddWriter admits an identity to the log's membership set.
	// An indexer additionally helps order the log.
	AddWriter(ctx context.Context, key string, indexer bool) error

	// RemoveWriter revokes a previously admitted identity.
	RemoveWriter(ctx context.Context, key string) error

	// Bootstrap returns the hex-encoded identity that created the
	// subnet. It doubles as the subnet identifier.
	Bootstrap() string
}

// Applier consumes ordered log entries. The log calls it with one
// group of entries at a time; the group's mutations commit atomically.
//
// Implementations MUST be deterministic: the resulting state may
// depend only on prior state and the entries themselves, never on
// wall-clock time, randomness, or delivery timing.
type Applier interface {
	ApplyEntries(ctx context.Context, entries []types.LogEntry) error
}

// SettlementClient is the client-observable interface of the external
// settlement ledger. The subnet trusts the ledger's confirmed entries
// but does not implement its consensus.
type SettlementClient interface {
	// SequenceProof returns the ledger's current sequence proof
	// (an opaque recency token bound into transaction ids).
	SequenceProof(ctx context.Context) (string, error)

	// ConfirmedHeight returns the latest height the ledger has
	// confirmed.
	ConfirmedHeight(ctx context.Context) (uint64, error)

	// EntryAt fetches the raw settlement entry recorded at exactly
	// the given height under the given transaction id. A missing
	// entry is an error wrapping ErrNoEntry; any other error means
	// the ledger could not be read.
	EntryAt(ctx context.Context, height uint64, txid string) ([]byte, error)

	// Broadcast submits a payload for settlement. The ledger will
	// later expose a settlement entry referencing it at some height.
	Broadcast(ctx context.Context, payload []byte) error

	// AddressOf translates a hex-encoded identity into the ledger's
	// address encoding.
	AddressOf(identity string) (string, error)

	// IdentityOf translates a ledger address back into a
	// hex-encoded identity, when the encoding permits it.
	IdentityOf(address string) (string, error)
}

// Wallet provides signing for the local node and signature
// verification for any address. Key generation and custody are the
// wallet provider's concern.
type Wallet interface {
	// Sign signs the message and returns the hex-encoded signature.
	Sign(msg []byte) (string, error)

	// Verify reports whether sig is a valid hex-encoded signature
	// over msg by the holder of the given address.
	Verify(sig string, msg []byte, address string) bool

	// PublicKey returns the hex-encoded public key of the local
	// identity.
	PublicKey() string

	// Address returns the address form of the local identity.
	Address() string
}
