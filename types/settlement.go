package types

// TxPayload is the value of a "tx" log operation: a settled
// transaction carrying the external ledger height it was confirmed at
// together with the original dispatch and the identities that
// originated and validated it.
type TxPayload struct {
	TxID      string   `cramberry:"1" json:"txid"`
	Height    uint64   `cramberry:"2" json:"height"`
	Requester Address  `cramberry:"3" json:"requester"`
	Validator Address  `cramberry:"4" json:"validator"`
	Dispatch  Dispatch `cramberry:"5" json:"dispatch"`
}

// SettlementEntry is the decoded form of an external-ledger entry
// referenced by a subnet transaction. Apply-time cross-validation
// compares it field for field against the local operation.
type SettlementEntry struct {
	// Kind distinguishes transaction entries from other settlement
	// record types. Only "transaction" entries admit subnet effects.
	Kind        string  `cramberry:"1" json:"kind"`
	TxID        string  `cramberry:"2" json:"txid"`
	Subnet      string  `cramberry:"3" json:"subnet"`
	Ledger      string  `cramberry:"4" json:"ledger"`
	ContentHash string   `cramberry:"5" json:"contentHash"`
	Requester   Identity `cramberry:"6" json:"requester"`
	Validator   Identity `cramberry:"7" json:"validator"`
}

// TxSubmission is a prepared, signed transaction handed to the node
// for broadcast to the settlement ledger. Sig is the requester's
// signature over the transaction id; it may be supplied by a third
// party (surrogate signing).
type TxSubmission struct {
	TxID      string   `cramberry:"1" json:"txid"`
	Requester Address  `cramberry:"2" json:"requester"`
	Validator Address  `cramberry:"3" json:"validator"`
	Dispatch  Dispatch `cramberry:"4" json:"dispatch"`
	Nonce     string   `cramberry:"5" json:"nonce"`
	Proof     string   `cramberry:"6" json:"proof"`
	Sig       string   `cramberry:"7" json:"sig"`
}

// PendingTx is a locally-originated transaction awaiting settlement
// confirmation. Held only in the transaction pool; never persisted
// to the deterministic view.
type PendingTx struct {
	TxID      string    `cramberry:"1" json:"txid"`
	CreatedAt Timestamp `cramberry:"2" json:"createdAt"`
	Command   TxSubmission `cramberry:"3" json:"command"`
}
