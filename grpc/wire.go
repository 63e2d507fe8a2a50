package subnetgrpc

import "github.com/blockberries/subnet/types"

// Transport wrapper types for the RPC boundaries. Domain types nest
// directly; these exist only where a method signature doesn't map to
// a single domain struct.

// SubmitTxRequest carries a prepared, signed submission.
type SubmitTxRequest struct {
	Submission types.TxSubmission `cramberry:"1"`
}

// SubmitTxResponse is the (empty) SubmitTx result.
type SubmitTxResponse struct{}

// SimulateRequest carries a submission to preview.
type SimulateRequest struct {
	Submission types.TxSubmission `cramberry:"1"`
}

// SimulateResponse reports the previewed outcome. DropReason is
// non-empty when the transaction would be dropped instead of indexed.
type SimulateResponse struct {
	Record     *types.TxRecord `cramberry:"1"`
	DropReason string          `cramberry:"2"`
}

// GetRequest reads one view key at a horizon.
type GetRequest struct {
	Key     string        `cramberry:"1"`
	Horizon types.Horizon `cramberry:"2"`
}

// GetResponse carries the value, if the key exists.
type GetResponse struct {
	Value []byte `cramberry:"1"`
	Found bool   `cramberry:"2"`
}

// OpsRequest is the (empty) request for the contract registry.
type OpsRequest struct{}

// OpDescriptor describes one registered contract dispatch type.
type OpDescriptor struct {
	Type    string `cramberry:"1"`
	Schema  string `cramberry:"2"`
	Feature bool   `cramberry:"3"`
}

// OpsResponse lists the contract's registered dispatch types.
type OpsResponse struct {
	Ops []OpDescriptor `cramberry:"1"`
}
