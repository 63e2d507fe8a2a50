package token

import (
	"encoding/json"
	"testing"

	"github.com/blockberries/subnet/contract"
	"github.com/blockberries/subnet/state"
)

const (
	alice = "1111111111111111111111111111111111111111111111111111111111111111"
	bob   = "2222222222222222222222222222222222222222222222222222222222222222"
)

func newContract(t *testing.T) *contract.Contract {
	t.Helper()
	c, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func execute(t *testing.T, c *contract.Contract, st *state.Batch, addr, op string, value string) contract.Result {
	t.Helper()
	return c.Execute(contract.ExecContext{
		Address: addr,
		Op:      op,
		Value:   json.RawMessage(value),
	}, st)
}

func fund(t *testing.T, st *state.Batch, addr string, amount string) {
	t.Helper()
	if err := st.Put("tkn/"+addr, []byte(amount)); err != nil {
		t.Fatalf("fund: %v", err)
	}
}

func TestTransfer(t *testing.T) {
	c := newContract(t)
	st := state.NewBatch(state.NewMemoryStore())
	fund(t, st, alice, "100")

	res := execute(t, c, st, alice, "transfer", `{"to": "`+bob+`", "amount": "30"}`)
	if !res.Ok() {
		t.Fatalf("transfer failed: %+v", res)
	}
	if got, _ := st.Get("tkn/" + alice); string(got) != "70" {
		t.Fatalf("sender balance = %q, want 70", got)
	}
	if got, _ := st.Get("tkn/" + bob); string(got) != "30" {
		t.Fatalf("receiver balance = %q, want 30", got)
	}
}

func TestTransferInsufficientFunds(t *testing.T) {
	c := newContract(t)
	st := state.NewBatch(state.NewMemoryStore())
	fund(t, st, alice, "10")

	res := execute(t, c, st, alice, "transfer", `{"to": "`+bob+`", "amount": "30"}`)
	if res.Fault() != nil {
		t.Fatalf("business failure must not fault: %v", res.Fault())
	}
	if res.Err() == nil || res.Err().Kind != "insufficient_funds" {
		t.Fatalf("expected insufficient_funds, got %+v", res)
	}
	if got, _ := st.Get("tkn/" + alice); string(got) != "10" {
		t.Fatalf("failed transfer must not move funds, balance = %q", got)
	}
}

func TestTransferSchemaRejectsShape(t *testing.T) {
	c := newContract(t)
	st := state.NewBatch(state.NewMemoryStore())
	fund(t, st, alice, "100")

	for _, bad := range []string{
		`{"to": "` + bob + `"}`,
		`{"to": "` + bob + `", "amount": "007"}`,
		`{"to": "not an address", "amount": "5"}`,
		`{"to": "` + bob + `", "amount": 5}`,
	} {
		res := execute(t, c, st, alice, "transfer", bad)
		if res.Err() == nil || res.Err().Kind != contract.KindInvalidSchema {
			t.Fatalf("value %s: expected schema violation, got %+v", bad, res)
		}
	}
}

func TestBurn(t *testing.T) {
	c := newContract(t)
	st := state.NewBatch(state.NewMemoryStore())
	fund(t, st, alice, "50")

	res := execute(t, c, st, alice, "burn", `{"amount": "50"}`)
	if !res.Ok() {
		t.Fatalf("burn failed: %+v", res)
	}
	if _, ok := st.Get("tkn/" + alice); ok {
		t.Fatalf("zero balance must clear the key")
	}
}

func TestAirdropFeature(t *testing.T) {
	c := newContract(t)
	st := state.NewBatch(state.NewMemoryStore())

	res := execute(t, c, st, "admin-addr", "airdrop",
		`{"addresses": ["`+alice+`", "`+bob+`"], "amount": "7"}`)
	if !res.Ok() {
		t.Fatalf("airdrop failed: %+v", res)
	}
	if got, _ := st.Get("tkn/" + alice); string(got) != "7" {
		t.Fatalf("alice balance = %q, want 7", got)
	}
	if got, _ := st.Get("tkn/" + bob); string(got) != "7" {
		t.Fatalf("bob balance = %q, want 7", got)
	}
}

func TestHoldersOnlyMessages(t *testing.T) {
	c := newContract(t)
	st := state.NewBatch(state.NewMemoryStore())
	fund(t, st, alice, "1")

	ok, res := c.CheckMessage(contract.ExecContext{Address: alice, Op: contract.TypeMessage}, st)
	if !ok || res.Fault() != nil {
		t.Fatalf("holder must be allowed to post: %+v", res)
	}
	ok, _ = c.CheckMessage(contract.ExecContext{Address: bob, Op: contract.TypeMessage}, st)
	if ok {
		t.Fatalf("non-holder must be rejected")
	}
}
