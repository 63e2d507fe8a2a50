package engine

import (
	"context"
	"encoding/json"

	"github.com/blockberries/subnet"
	"github.com/blockberries/subnet/contract"
	"github.com/blockberries/subnet/state"
)

// applyFeature invokes a contract feature hook on the admin's
// signature. Features are fire-and-forget: they run for their state
// effects only, and an unregistered feature key is a deterministic
// no-op. Only a contract fault aborts.
func (e *Engine) applyFeature(ctx context.Context, env *Env) error {
	if !e.schemas.feature.OKRaw(env.Op.Value) {
		return e.drop(env, "malformed value")
	}
	var v struct {
		Key   string          `json:"key"`
		Value json.RawMessage `json:"value"`
		Sig   string          `json:"sig"`
	}
	if err := json.Unmarshal(env.Op.Value, &v); err != nil {
		return e.drop(env, "undecodable value")
	}

	admin, ok := adminAddr(env.Batch)
	if !ok {
		return e.drop(env, "no admin set")
	}
	if !e.authorize(env, v.Sig, admin) {
		return e.drop(env, "unauthorized")
	}

	registered, feature := e.contract.Types(v.Key)
	if !registered || !feature {
		return e.drop(env, "unknown feature key")
	}

	ec := contract.ExecContext{
		Address: admin,
		Op:      v.Key,
		Value:   v.Value,
	}
	res := e.contract.Execute(ec, state.Guard(env.Batch))
	if f := res.Fault(); f != nil {
		return subnet.NewFault(env.Op.Type, "feature execution", f)
	}
	return markApplied(env)
}
