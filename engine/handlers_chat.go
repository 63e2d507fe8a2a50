package engine

import (
	"context"
	"encoding/json"
	"strconv"
	"unicode/utf8"

	"github.com/blockberries/cramberry/pkg/cramberry"

	"github.com/blockberries/subnet"
	"github.com/blockberries/subnet/contract"
	"github.com/blockberries/subnet/state"
	"github.com/blockberries/subnet/types"
)

// applyMuteStatus sets or clears a mute. The admin may mute anyone;
// a moderator may mute only targets that are neither moderators nor
// the admin.
func (e *Engine) applyMuteStatus(ctx context.Context, env *Env) error {
	if !e.schemas.mute.OKRaw(env.Op.Value) {
		return e.drop(env, "malformed value")
	}
	var v struct {
		Key    string `json:"key"`
		Status int    `json:"status"`
		By     string `json:"by"`
		Sig    string `json:"sig"`
	}
	if err := json.Unmarshal(env.Op.Value, &v); err != nil {
		return e.drop(env, "undecodable value")
	}

	if !e.authorize(env, v.Sig, v.By) {
		return e.drop(env, "unauthorized")
	}
	if !isAdmin(env.Batch, v.By) {
		if !isMod(env.Batch, v.By) {
			return e.drop(env, "actor is not admin or moderator")
		}
		if isMod(env.Batch, v.Key) || isAdmin(env.Batch, v.Key) {
			return e.drop(env, "moderator cannot mute moderator or admin")
		}
	}

	key := "mtd/" + v.Key
	if v.Status == 1 {
		raw, err := cramberry.Marshal(&types.MuteMeta{By: v.By, Seq: env.Seq})
		if err != nil {
			return subnet.NewFault(env.Op.Type, "marshal mute metadata", err)
		}
		if err := env.Batch.Put(key, raw); err != nil {
			return err
		}
	} else {
		if err := env.Batch.Del(key); err != nil {
			return err
		}
	}
	return markApplied(env)
}

// applySetNick binds a unique nickname to an address. The address
// itself may set its own nick; a moderator or the admin may set one
// for another address unless that target is itself a moderator or
// the admin. The prior nickname, if any, is released in the same
// batch.
func (e *Engine) applySetNick(ctx context.Context, env *Env) error {
	if !e.schemas.nick.OKRaw(env.Op.Value) {
		return e.drop(env, "malformed value")
	}
	var v struct {
		Key  string `json:"key"`
		Nick string `json:"nick"`
		By   string `json:"by"`
		Sig  string `json:"sig"`
	}
	if err := json.Unmarshal(env.Op.Value, &v); err != nil {
		return e.drop(env, "undecodable value")
	}

	actor := v.By
	if actor == "" {
		actor = v.Key
	}
	if !e.authorize(env, v.Sig, actor) {
		return e.drop(env, "unauthorized")
	}
	if actor != v.Key {
		if !isAdmin(env.Batch, actor) && !isMod(env.Batch, actor) {
			return e.drop(env, "actor may not rename others")
		}
		if isAdmin(env.Batch, v.Key) || isMod(env.Batch, v.Key) {
			return e.drop(env, "target outranks actor")
		}
	}

	if utf8.RuneCountInString(v.Nick) > e.cfg.MaxNickLength {
		return e.drop(env, "nickname too long")
	}
	if owner, taken := env.Batch.Get("kcin/" + v.Nick); taken && string(owner) != v.Key {
		return e.drop(env, "nickname taken")
	}

	if old, had := env.Batch.Get("nick/" + v.Key); had {
		if err := env.Batch.Del("kcin/" + string(old)); err != nil {
			return err
		}
	}
	if err := env.Batch.Put("nick/"+v.Key, []byte(v.Nick)); err != nil {
		return err
	}
	if err := env.Batch.Put("kcin/"+v.Nick, []byte(v.Key)); err != nil {
		return err
	}
	return markApplied(env)
}

// applyMsg appends a chat message. Core acceptance checks run first
// (signature, chat enabled, mute, whitelist, size); the contract's
// message pre-check runs last and can still reject, but never widen,
// acceptance.
func (e *Engine) applyMsg(ctx context.Context, env *Env) error {
	if !e.schemas.msg.OKRaw(env.Op.Value) {
		return e.drop(env, "malformed value")
	}
	var v struct {
		Address     string   `json:"address"`
		Msg         string   `json:"msg"`
		Attachments []string `json:"attachments"`
		Sig         string   `json:"sig"`
	}
	if err := json.Unmarshal(env.Op.Value, &v); err != nil {
		return e.drop(env, "undecodable value")
	}

	if !e.authorize(env, v.Sig, v.Address) {
		return e.drop(env, "unauthorized")
	}
	if !flagOn(env.Batch, "chat_status") {
		return e.drop(env, "chat disabled")
	}
	if _, muted := env.Batch.Get("mtd/" + v.Address); muted {
		return e.drop(env, "author muted")
	}
	if flagOn(env.Batch, "wlst") && !flagOn(env.Batch, "wl/"+v.Address) {
		return e.drop(env, "author not whitelisted")
	}
	if utf8.RuneCountInString(v.Msg) > e.cfg.MaxMessageLength {
		return e.drop(env, "message too long")
	}

	ec := contract.ExecContext{
		Address: v.Address,
		Op:      contract.TypeMessage,
		Value:   env.Op.Value,
	}
	accept, res := e.contract.CheckMessage(ec, state.Guard(env.Batch))
	if f := res.Fault(); f != nil {
		return subnet.NewFault(env.Op.Type, "message pre-check", f)
	}
	if !accept {
		return e.drop(env, "rejected by contract pre-check")
	}

	rec, err := cramberry.Marshal(&types.MsgRecord{
		Address:     v.Address,
		Msg:         v.Msg,
		Attachments: v.Attachments,
	})
	if err != nil {
		return subnet.NewFault(env.Op.Type, "marshal message record", err)
	}

	n := counter(env.Batch, "msgl")
	if err := env.Batch.Put("msg/"+strconv.FormatUint(n, 10), rec); err != nil {
		return err
	}
	if err := putCounter(env.Batch, "msgl", n+1); err != nil {
		return err
	}
	ukey := "umsgl/" + v.Address
	m := counter(env.Batch, ukey)
	if err := env.Batch.Put("umsg/"+v.Address+"/"+strconv.FormatUint(m, 10), []byte(strconv.FormatUint(n, 10))); err != nil {
		return err
	}
	if err := putCounter(env.Batch, ukey, m+1); err != nil {
		return err
	}
	return markApplied(env)
}

// loadMsg reads and decodes a stored message record by sequence.
func loadMsg(env *Env, id uint64) (*types.MsgRecord, string, error) {
	raw, ok := env.Batch.Get("msg/" + strconv.FormatUint(id, 10))
	if !ok {
		return nil, "no such message", nil
	}
	var rec types.MsgRecord
	if err := cramberry.Unmarshal(raw, &rec); err != nil {
		return nil, "", subnet.NewFault(env.Op.Type, "decode message record", err)
	}
	return &rec, "", nil
}

func storeMsg(env *Env, id uint64, rec *types.MsgRecord) error {
	raw, err := cramberry.Marshal(rec)
	if err != nil {
		return subnet.NewFault(env.Op.Type, "marshal message record", err)
	}
	return env.Batch.Put("msg/"+strconv.FormatUint(id, 10), raw)
}

type msgRefValue struct {
	ID  uint64 `json:"id"`
	By  string `json:"by"`
	Sig string `json:"sig"`
}

// applyDeleteMessage blanks a message's text and attachments but
// keeps the record and its indexes. The admin, the author, or a
// moderator (not against the admin's messages) may delete.
func (e *Engine) applyDeleteMessage(ctx context.Context, env *Env) error {
	if !e.schemas.msgRef.OKRaw(env.Op.Value) {
		return e.drop(env, "malformed value")
	}
	var v msgRefValue
	if err := json.Unmarshal(env.Op.Value, &v); err != nil {
		return e.drop(env, "undecodable value")
	}
	if !e.authorize(env, v.Sig, v.By) {
		return e.drop(env, "unauthorized")
	}

	rec, reason, err := loadMsg(env, v.ID)
	if err != nil {
		return err
	}
	if reason != "" {
		return e.drop(env, reason)
	}

	allowed := isAdmin(env.Batch, v.By) ||
		v.By == rec.Address ||
		(isMod(env.Batch, v.By) && !isAdmin(env.Batch, rec.Address))
	if !allowed {
		return e.drop(env, "actor may not delete this message")
	}
	if rec.Deleted {
		return e.drop(env, "message already deleted")
	}

	rec.Msg = ""
	rec.Attachments = nil
	rec.Deleted = true
	if err := storeMsg(env, v.ID, rec); err != nil {
		return err
	}

	d := counter(env.Batch, "delml")
	if err := env.Batch.Put("delm/"+strconv.FormatUint(d, 10), []byte(strconv.FormatUint(v.ID, 10))); err != nil {
		return err
	}
	if err := putCounter(env.Batch, "delml", d+1); err != nil {
		return err
	}
	return markApplied(env)
}

func (e *Engine) applyPinMessage(ctx context.Context, env *Env) error {
	return e.setPinned(env, true)
}

func (e *Engine) applyUnpinMessage(ctx context.Context, env *Env) error {
	return e.setPinned(env, false)
}

// setPinned toggles a message's pinned flag. Admin or moderator only.
// Pinning appends to the pin index; unpinning leaves the index
// untouched so it stays append-only.
func (e *Engine) setPinned(env *Env, pinned bool) error {
	if !e.schemas.msgRef.OKRaw(env.Op.Value) {
		return e.drop(env, "malformed value")
	}
	var v msgRefValue
	if err := json.Unmarshal(env.Op.Value, &v); err != nil {
		return e.drop(env, "undecodable value")
	}
	if !e.authorize(env, v.Sig, v.By) {
		return e.drop(env, "unauthorized")
	}
	if !isAdmin(env.Batch, v.By) && !isMod(env.Batch, v.By) {
		return e.drop(env, "actor is not admin or moderator")
	}

	rec, reason, err := loadMsg(env, v.ID)
	if err != nil {
		return err
	}
	if reason != "" {
		return e.drop(env, reason)
	}
	if rec.Pinned == pinned {
		return e.drop(env, "pin state unchanged")
	}

	rec.Pinned = pinned
	if err := storeMsg(env, v.ID, rec); err != nil {
		return err
	}
	if pinned {
		p := counter(env.Batch, "pnl")
		if err := env.Batch.Put("pni/"+strconv.FormatUint(p, 10), []byte(strconv.FormatUint(v.ID, 10))); err != nil {
			return err
		}
		if err := putCounter(env.Batch, "pnl", p+1); err != nil {
			return err
		}
	}
	return markApplied(env)
}
