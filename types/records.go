package types

import "encoding/json"

// TxRecord is the indexed result of a settled transaction. Written
// exactly once per confirmed transaction id, under both the global
// and the per-requester sequence.
type TxRecord struct {
	TxID      string          `cramberry:"1" json:"txid"`
	Height    uint64          `cramberry:"2" json:"height"`
	Requester Address         `cramberry:"3" json:"requester"`
	Validator Address         `cramberry:"4" json:"validator"`
	Dispatch  Dispatch        `cramberry:"5" json:"dispatch"`
	Result    json.RawMessage `cramberry:"6" json:"result,omitempty"`
	// ErrKind and ErrMessage carry a business rule violation as data,
	// so callers can inspect why a transaction had no effect.
	ErrKind    string `cramberry:"7" json:"errKind,omitempty"`
	ErrMessage string `cramberry:"8" json:"errMessage,omitempty"`
}

// MsgRecord is a stored chat message. Deletion blanks Msg and
// Attachments but keeps the record and its indexes.
type MsgRecord struct {
	Address     Address  `cramberry:"1" json:"address"`
	Msg         string   `cramberry:"2" json:"msg"`
	Attachments []string `cramberry:"3" json:"attachments,omitempty"`
	Deleted     bool     `cramberry:"4" json:"deleted,omitempty"`
	Pinned      bool     `cramberry:"5" json:"pinned,omitempty"`
}

// MuteMeta records who muted an address and at which log position.
type MuteMeta struct {
	By  Address `cramberry:"1" json:"by"`
	Seq uint64  `cramberry:"2" json:"seq"`
}
