package engine

import (
	"context"
	"encoding/json"
)

type flagValue struct {
	Enabled int    `json:"enabled"`
	Sig     string `json:"sig"`
}

type targetStatusValue struct {
	Key    string `json:"key"`
	Status int    `json:"status"`
	Sig    string `json:"sig"`
}

// applyAddAdmin sets the subnet admin. Authorized purely by
// provenance: the entry must come from the log's bootstrap identity.
// The admin_set marker makes the grant one-shot; relinquishing the
// role later does not reopen it.
func (e *Engine) applyAddAdmin(ctx context.Context, env *Env) error {
	if !e.schemas.addAdmin.OKRaw(env.Op.Value) {
		return e.drop(env, "malformed value")
	}
	if env.From != e.bootstrap {
		return e.drop(env, "not authored by bootstrap identity")
	}
	if _, ok := env.Batch.Get("admin_set"); ok {
		return e.drop(env, "admin already set")
	}

	var v struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal(env.Op.Value, &v); err != nil {
		return e.drop(env, "undecodable value")
	}
	if err := env.Batch.Put("admin_set", []byte("1")); err != nil {
		return err
	}
	return env.Batch.Put("admin", []byte(v.Key))
}

// applyUpdateAdmin transfers or relinquishes the admin role. Only the
// current admin signs it; an empty key clears the role.
func (e *Engine) applyUpdateAdmin(ctx context.Context, env *Env) error {
	if !e.schemas.updateAdmin.OKRaw(env.Op.Value) {
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

	if v.Key == "" {
		if err := env.Batch.Del("admin"); err != nil {
			return err
		}
	} else {
		if err := env.Batch.Put("admin", []byte(v.Key)); err != nil {
			return err
		}
	}
	return markApplied(env)
}

// adminFlag applies an admin-signed on/off toggle to a flag key.
func (e *Engine) adminFlag(env *Env, key, on, off string) error {
	if !e.schemas.flag.OKRaw(env.Op.Value) {
		return e.drop(env, "malformed value")
	}
	var v flagValue
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

	val := off
	if v.Enabled == 1 {
		val = on
	}
	if err := env.Batch.Put(key, []byte(val)); err != nil {
		return err
	}
	return markApplied(env)
}

func (e *Engine) applySetChatStatus(ctx context.Context, env *Env) error {
	return e.adminFlag(env, "chat_status", "1", "0")
}

func (e *Engine) applySetAutoAddWriters(ctx context.Context, env *Env) error {
	return e.adminFlag(env, "auto_add_writers", "on", "off")
}

func (e *Engine) applyEnableWhitelist(ctx context.Context, env *Env) error {
	return e.adminFlag(env, "wlst", "1", "0")
}

func (e *Engine) applyEnableTransactions(ctx context.Context, env *Env) error {
	return e.adminFlag(env, "txen", "1", "0")
}

// adminTargetFlag applies an admin-signed per-address flag (moderator
// role, whitelist membership). Status 1 sets the key, 0 clears it.
func (e *Engine) adminTargetFlag(env *Env, prefix string) error {
	if !e.schemas.targetStatus.OKRaw(env.Op.Value) {
		return e.drop(env, "malformed value")
	}
	var v targetStatusValue
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

	key := prefix + v.Key
	if v.Status == 1 {
		if err := env.Batch.Put(key, []byte("1")); err != nil {
			return err
		}
	} else {
		if err := env.Batch.Del(key); err != nil {
			return err
		}
	}
	return markApplied(env)
}

func (e *Engine) applySetMod(ctx context.Context, env *Env) error {
	return e.adminTargetFlag(env, "mod/")
}

func (e *Engine) applySetWhitelistStatus(ctx context.Context, env *Env) error {
	return e.adminTargetFlag(env, "wl/")
}
