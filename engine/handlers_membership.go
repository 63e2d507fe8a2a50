package engine

import (
	"context"
	"encoding/json"

	"github.com/blockberries/subnet"
)

// Membership mirror values under wrt/<identity>.
const (
	memberWriter  = "w"
	memberIndexer = "i"
)

func (e *Engine) applyAddWriter(ctx context.Context, env *Env) error {
	return e.admitMember(ctx, env, false)
}

func (e *Engine) applyAddIndexer(ctx context.Context, env *Env) error {
	return e.admitMember(ctx, env, true)
}

// admitMember admits an identity to the log membership set on the
// admin's signature and mirrors the admission under wrt/ so handlers
// can read membership deterministically.
func (e *Engine) admitMember(ctx context.Context, env *Env, indexer bool) error {
	if !e.schemas.member.OKRaw(env.Op.Value) {
		return e.drop(env, "malformed value")
	}
	var v struct {
		Key string `json:"key"`
		Sig string `json:"sig"`
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
	if _, ok := env.Batch.Get("wrt/" + v.Key); ok {
		return e.drop(env, "identity already admitted")
	}

	if err := e.log.AddWriter(ctx, v.Key, indexer); err != nil {
		return subnet.NewFault(env.Op.Type, "log membership add", err)
	}
	role := memberWriter
	if indexer {
		role = memberIndexer
	}
	if err := env.Batch.Put("wrt/"+v.Key, []byte(role)); err != nil {
		return err
	}
	return markApplied(env)
}

// applyRemoveWriter revokes an identity. The admin may additionally
// ban it, which blocks later self-service re-admission.
func (e *Engine) applyRemoveWriter(ctx context.Context, env *Env) error {
	if !e.schemas.removeWriter.OKRaw(env.Op.Value) {
		return e.drop(env, "malformed value")
	}
	var v struct {
		Key string `json:"key"`
		Ban bool   `json:"ban"`
		Sig string `json:"sig"`
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
	if _, ok := env.Batch.Get("wrt/" + v.Key); !ok {
		return e.drop(env, "identity not admitted")
	}

	if err := e.log.RemoveWriter(ctx, v.Key); err != nil {
		return subnet.NewFault(env.Op.Type, "log membership remove", err)
	}
	if err := env.Batch.Del("wrt/" + v.Key); err != nil {
		return err
	}
	if v.Ban {
		if err := env.Batch.Put("ban/"+v.Key, []byte("1")); err != nil {
			return err
		}
	}
	return markApplied(env)
}

// applyAutoAddWriter is self-service admission: no signature, gated
// on the auto_add_writers flag and the ban list. The target identity
// travels in the operation's key field; admitted as a plain writer,
// never an indexer.
func (e *Engine) applyAutoAddWriter(ctx context.Context, env *Env) error {
	key := env.Op.Key
	if key == "" {
		return e.drop(env, "missing key")
	}

	if !autoAddOn(env.Batch) {
		return e.drop(env, "auto add disabled")
	}
	if _, banned := env.Batch.Get("ban/" + key); banned {
		return e.drop(env, "identity banned")
	}
	if _, ok := env.Batch.Get("wrt/" + key); ok {
		return e.drop(env, "identity already admitted")
	}

	if err := e.log.AddWriter(ctx, key, false); err != nil {
		return subnet.NewFault(env.Op.Type, "log membership add", err)
	}
	return env.Batch.Put("wrt/"+key, []byte(memberWriter))
}
