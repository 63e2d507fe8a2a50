package engine

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/blockberries/cramberry/pkg/cramberry"

	"github.com/blockberries/subnet"
	"github.com/blockberries/subnet/contract"
	"github.com/blockberries/subnet/state"
	"github.com/blockberries/subnet/types"
)

// applyTx admits a settled transaction's effects into the view. The
// operation must survive the size and schema bounds, the settlement
// ledger cross-validation, the acceptance flag, and the idempotence
// check before contract logic runs. Every failure short of a contract
// fault drops the operation deterministically.
func (e *Engine) applyTx(ctx context.Context, env *Env) error {
	if e.cfg.MaxTxPayload > 0 && len(env.Op.Value) > e.cfg.MaxTxPayload {
		return e.drop(env, "payload exceeds size bound")
	}
	if !e.schemas.tx.OKRaw(env.Op.Value) {
		return e.drop(env, "malformed value")
	}
	var p types.TxPayload
	if err := json.Unmarshal(env.Op.Value, &p); err != nil {
		return e.drop(env, "undecodable value")
	}

	reason, err := e.txv.CrossValidate(ctx, &p)
	if err != nil {
		return err
	}
	if reason != "" {
		return e.drop(env, reason)
	}

	_, reason, err = e.executeTx(&p, env.Batch)
	if err != nil {
		return err
	}
	if reason != "" {
		return e.drop(env, reason)
	}
	return nil
}

// executeTx runs acceptance, contract execution, and indexing for a
// cross-validated transaction against the given batch. Shared by
// apply and simulation. A non-empty reason means the transaction is
// dropped without indexing; a business error from the contract is
// indexed as data on the record.
func (e *Engine) executeTx(p *types.TxPayload, batch *state.Batch) (*types.TxRecord, string, error) {
	if !txEnabled(batch) {
		return nil, "transactions disabled", nil
	}
	if _, ok := batch.Get("tx/" + p.TxID); ok {
		return nil, "transaction already indexed", nil
	}

	ec := contract.ExecContext{
		Address:          p.Requester,
		ValidatorAddress: p.Validator,
		TxID:             p.TxID,
		Op:               p.Dispatch.Type,
		Value:            p.Dispatch.Value,
	}
	res := e.contract.Execute(ec, state.Guard(batch))
	if f := res.Fault(); f != nil {
		if _, ok := subnet.IsFault(f); ok {
			return nil, "", f
		}
		return nil, "", subnet.NewFault(p.Dispatch.Type, "contract execution", f)
	}
	if res.Unknown() {
		return nil, "unknown contract operation", nil
	}

	rec := &types.TxRecord{
		TxID:      p.TxID,
		Height:    p.Height,
		Requester: p.Requester,
		Validator: p.Validator,
		Dispatch:  p.Dispatch,
	}
	if berr := res.Err(); berr != nil {
		rec.ErrKind, rec.ErrMessage = berr.Kind, berr.Message
	} else if res.Value() != nil {
		out, err := json.Marshal(res.Value())
		if err != nil {
			return nil, "", subnet.NewFault(p.Dispatch.Type, "marshal contract result", err)
		}
		rec.Result = out
	}

	raw, err := cramberry.Marshal(rec)
	if err != nil {
		return nil, "", subnet.NewFault(OpTx, "marshal transaction record", err)
	}
	if err := batch.Put("tx/"+p.TxID, raw); err != nil {
		return nil, "", err
	}

	n := counter(batch, "txl")
	if err := batch.Put("txi/"+strconv.FormatUint(n, 10), []byte(p.TxID)); err != nil {
		return nil, "", err
	}
	if err := putCounter(batch, "txl", n+1); err != nil {
		return nil, "", err
	}
	ukey := "utxl/" + p.Requester
	m := counter(batch, ukey)
	if err := batch.Put("utxi/"+p.Requester+"/"+strconv.FormatUint(m, 10), []byte(p.TxID)); err != nil {
		return nil, "", err
	}
	if err := putCounter(batch, ukey, m+1); err != nil {
		return nil, "", err
	}
	return rec, "", nil
}

// SimulateTx previews a transaction's acceptance and contract outcome
// against an ephemeral overlay of the current view. Settlement
// cross-validation is skipped (an unsettled transaction has no ledger
// entry yet); everything from the acceptance flag onward runs the
// apply-time path. Nothing commits.
func (e *Engine) SimulateTx(p *types.TxPayload) (*types.TxRecord, string, error) {
	if e.cfg.MaxTxPayload > 0 {
		// Bound the bytes apply would see: the encoded payload, not
		// just the dispatch value.
		enc, err := json.Marshal(p)
		if err != nil {
			return nil, "", subnet.NewFault(OpTx, "marshal transaction payload", err)
		}
		if len(enc) > e.cfg.MaxTxPayload {
			return nil, "payload exceeds size bound", nil
		}
	}
	overlay := state.NewBatch(e.store)
	return e.executeTx(p, overlay)
}
