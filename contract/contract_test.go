package contract

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/blockberries/subnet/state"
)

const transferSchema = `{
	"type": "object",
	"required": ["to", "amount"],
	"properties": {
		"to": {"type": "string", "format": "bitcoin-address"},
		"amount": {"type": "string", "format": "numeric-string"}
	},
	"additionalProperties": false
}`

func buildContract(t *testing.T) *Contract {
	t.Helper()

	b := NewBuilder()
	if err := b.AddFunction("transfer", func(ec ExecContext, st state.Writer) (any, error) {
		if err := st.Put("bal/"+string(ec.Address), []byte("0")); err != nil {
			return nil, err
		}
		return map[string]string{"status": "ok"}, nil
	}); err != nil {
		t.Fatalf("AddFunction: %v", err)
	}
	if err := b.AddSchema("transfer", transferSchema); err != nil {
		t.Fatalf("AddSchema: %v", err)
	}
	if err := b.AddFunction("reject", func(ec ExecContext, st state.Writer) (any, error) {
		return nil, Assertf("insufficient funds")
	}); err != nil {
		t.Fatalf("AddFunction: %v", err)
	}
	if err := b.AddFunction("boom", func(ec ExecContext, st state.Writer) (any, error) {
		return nil, errors.New("nil map write")
	}); err != nil {
		t.Fatalf("AddFunction: %v", err)
	}
	if err := b.AddFeature("ping", func(ec ExecContext, st state.Writer) (any, error) {
		return "ignored", st.Put("pinged", []byte("1"))
	}); err != nil {
		t.Fatalf("AddFeature: %v", err)
	}
	if err := b.SetMessageHandler(func(ec ExecContext, st state.Writer) (bool, error) {
		var m struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(ec.Value, &m); err != nil {
			return false, nil
		}
		return m.Msg != "spam", nil
	}); err != nil {
		t.Fatalf("SetMessageHandler: %v", err)
	}

	c, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return c
}

func TestExecuteFunction(t *testing.T) {
	c := buildContract(t)
	st := state.NewBatch(state.NewMemoryStore())

	res := c.Execute(ExecContext{
		Address: "a1",
		Op:      "transfer",
		Value:   json.RawMessage(`{"to": "` + addr64(t) + `", "amount": "10"}`),
	}, st)
	if !res.Ok() {
		t.Fatalf("expected ok, got err=%v fault=%v", res.Err(), res.Fault())
	}
	if _, ok := st.Get("bal/a1"); !ok {
		t.Fatalf("expected function write to be visible in batch")
	}
}

func TestExecuteSchemaViolation(t *testing.T) {
	c := buildContract(t)
	st := state.NewBatch(state.NewMemoryStore())

	res := c.Execute(ExecContext{
		Op:    "transfer",
		Value: json.RawMessage(`{"to": 5, "amount": "10"}`),
	}, st)
	if !res.Failed() || res.Err() == nil {
		t.Fatalf("expected business error, got %+v", res)
	}
	if res.Err().Kind != KindInvalidSchema {
		t.Fatalf("kind = %q, want %q", res.Err().Kind, KindInvalidSchema)
	}
	if _, ok := st.Get("bal/"); ok {
		t.Fatalf("guarded function must not have run")
	}
}

func TestExecuteBusinessError(t *testing.T) {
	c := buildContract(t)
	st := state.NewBatch(state.NewMemoryStore())

	res := c.Execute(ExecContext{Op: "reject", Value: json.RawMessage(`{}`)}, st)
	if res.Fault() != nil {
		t.Fatalf("business error must not fault: %v", res.Fault())
	}
	if res.Err() == nil || res.Err().Kind != KindAssert {
		t.Fatalf("expected assert business error, got %+v", res)
	}
}

func TestExecuteFault(t *testing.T) {
	c := buildContract(t)
	st := state.NewBatch(state.NewMemoryStore())

	res := c.Execute(ExecContext{Op: "boom", Value: json.RawMessage(`{}`)}, st)
	if res.Fault() == nil {
		t.Fatalf("expected fault, got %+v", res)
	}
}

func TestExecuteUnknown(t *testing.T) {
	c := buildContract(t)
	st := state.NewBatch(state.NewMemoryStore())

	res := c.Execute(ExecContext{Op: "nope", Value: json.RawMessage(`{}`)}, st)
	if !res.Unknown() {
		t.Fatalf("expected unknown operation, got %+v", res)
	}
}

func TestExecuteFeature(t *testing.T) {
	c := buildContract(t)
	st := state.NewBatch(state.NewMemoryStore())

	res := c.Execute(ExecContext{Op: "ping", Value: json.RawMessage(`{}`)}, st)
	if !res.Ok() {
		t.Fatalf("feature must succeed: %+v", res)
	}
	if res.Value() != nil {
		t.Fatalf("feature return value must be discarded, got %v", res.Value())
	}
	if _, ok := st.Get("pinged"); !ok {
		t.Fatalf("feature state effect missing")
	}
}

func TestCheckMessage(t *testing.T) {
	c := buildContract(t)
	st := state.NewBatch(state.NewMemoryStore())

	ok, res := c.CheckMessage(ExecContext{Op: TypeMessage, Value: json.RawMessage(`{"msg": "hi"}`)}, st)
	if !ok || res.Fault() != nil {
		t.Fatalf("expected accept, got ok=%v res=%+v", ok, res)
	}
	ok, _ = c.CheckMessage(ExecContext{Op: TypeMessage, Value: json.RawMessage(`{"msg": "spam"}`)}, st)
	if ok {
		t.Fatalf("expected reject")
	}
}

func TestBuilderRejectsDuplicates(t *testing.T) {
	b := NewBuilder()
	fn := func(ec ExecContext, st state.Writer) (any, error) { return nil, nil }

	if err := b.AddFunction("x", fn); err != nil {
		t.Fatalf("AddFunction: %v", err)
	}
	if err := b.AddFunction("x", fn); err == nil {
		t.Fatalf("duplicate function registration must fail")
	}
	if err := b.AddFeature("x", fn); err == nil {
		t.Fatalf("feature over existing function must fail")
	}
	if err := b.AddSchema("y", `{"type": "object"}`); err == nil {
		t.Fatalf("schema without function must fail")
	}
	if err := b.AddFunction(TypeMessage, fn); err == nil {
		t.Fatalf("registering the message type as function must fail")
	}
}

func TestGuardedWriterBlocksReservedKeys(t *testing.T) {
	b := NewBuilder()
	if err := b.AddFunction("sneaky", func(ec ExecContext, st state.Writer) (any, error) {
		return nil, st.Put("admin", []byte("me"))
	}); err != nil {
		t.Fatalf("AddFunction: %v", err)
	}
	c, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	batch := state.NewBatch(state.NewMemoryStore())
	res := c.Execute(ExecContext{Op: "sneaky", Value: json.RawMessage(`{}`)}, state.Guard(batch))
	if res.Fault() == nil || !errors.Is(res.Fault(), state.ErrReservedKey) {
		t.Fatalf("reserved-key write must fault, got %+v", res)
	}
}

// addr64 returns a 64-hex address accepted by the bitcoin-address
// format fallback.
func addr64(t *testing.T) string {
	t.Helper()
	out := make([]byte, 64)
	for i := range out {
		out[i] = 'a'
	}
	return string(out)
}
