// Package token is a demo contract exercising the full registration
// surface: a schema-guarded transfer, a bare burn function, an
// airdrop feature, and a holders-only message pre-check.
//
// Balances live under tkn/<address> as decimal strings. All
// arithmetic is uint64; anything that would wrap is a business error,
// not a fault.
package token

import (
	"encoding/json"
	"strconv"

	"github.com/blockberries/subnet/contract"
	"github.com/blockberries/subnet/state"
	"github.com/blockberries/subnet/types"
)

// TransferSchema guards the transfer dispatch value.
const TransferSchema = `{
	"type": "object",
	"required": ["to", "amount"],
	"properties": {
		"to": {"type": "string", "format": "bitcoin-address"},
		"amount": {"type": "string", "format": "numeric-string"}
	},
	"additionalProperties": false
}`

// New builds the token contract.
func New() (*contract.Contract, error) {
	b := contract.NewBuilder()
	if err := b.AddFunction("transfer", transfer); err != nil {
		return nil, err
	}
	if err := b.AddSchema("transfer", TransferSchema); err != nil {
		return nil, err
	}
	if err := b.AddFunction("burn", burn); err != nil {
		return nil, err
	}
	if err := b.AddFeature("airdrop", airdrop); err != nil {
		return nil, err
	}
	if err := b.SetMessageHandler(holdersOnly); err != nil {
		return nil, err
	}
	return b.Build()
}

func balKey(addr types.Address) string { return "tkn/" + addr }

func balance(st state.Writer, addr types.Address) uint64 {
	raw, ok := st.Get(balKey(addr))
	if !ok {
		return 0
	}
	n, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func setBalance(st state.Writer, addr types.Address, n uint64) error {
	if n == 0 {
		return st.Del(balKey(addr))
	}
	return st.Put(balKey(addr), []byte(strconv.FormatUint(n, 10)))
}

// transfer moves tokens from the requester to the target address.
// Schema-guarded, so to/amount shape violations never reach it.
func transfer(ec contract.ExecContext, st state.Writer) (any, error) {
	var v struct {
		To     types.Address `json:"to"`
		Amount string        `json:"amount"`
	}
	if err := json.Unmarshal(ec.Value, &v); err != nil {
		return nil, err
	}
	amt, err := strconv.ParseUint(v.Amount, 10, 64)
	if err != nil {
		return nil, contract.Errf("bad_amount", "amount %q out of range", v.Amount)
	}
	if v.To == ec.Address {
		return nil, contract.Errf("self_transfer", "cannot transfer to self")
	}

	from := balance(st, ec.Address)
	if from < amt {
		return nil, contract.Errf("insufficient_funds", "balance %d < %d", from, amt)
	}
	to := balance(st, v.To)
	if to+amt < to {
		return nil, contract.Errf("overflow", "target balance would overflow")
	}

	if err := setBalance(st, ec.Address, from-amt); err != nil {
		return nil, err
	}
	if err := setBalance(st, v.To, to+amt); err != nil {
		return nil, err
	}
	return map[string]string{
		"from":   ec.Address,
		"to":     v.To,
		"amount": v.Amount,
	}, nil
}

// burn destroys tokens held by the requester. A bare function: shape
// errors are its own business.
func burn(ec contract.ExecContext, st state.Writer) (any, error) {
	var v struct {
		Amount string `json:"amount"`
	}
	if err := json.Unmarshal(ec.Value, &v); err != nil {
		return nil, contract.Assertf("undecodable burn value")
	}
	amt, err := strconv.ParseUint(v.Amount, 10, 64)
	if err != nil {
		return nil, contract.Errf("bad_amount", "amount %q out of range", v.Amount)
	}

	have := balance(st, ec.Address)
	if have < amt {
		return nil, contract.Errf("insufficient_funds", "balance %d < %d", have, amt)
	}
	if err := setBalance(st, ec.Address, have-amt); err != nil {
		return nil, err
	}
	return map[string]uint64{"remaining": have - amt}, nil
}

// airdrop credits a fixed amount to each listed address. Admin-fired
// feature; its return value is discarded.
func airdrop(ec contract.ExecContext, st state.Writer) (any, error) {
	var v struct {
		Addresses []types.Address `json:"addresses"`
		Amount    string          `json:"amount"`
	}
	if err := json.Unmarshal(ec.Value, &v); err != nil {
		return nil, contract.Assertf("undecodable airdrop value")
	}
	amt, err := strconv.ParseUint(v.Amount, 10, 64)
	if err != nil {
		return nil, contract.Errf("bad_amount", "amount %q out of range", v.Amount)
	}

	for _, addr := range v.Addresses {
		have := balance(st, addr)
		if have+amt < have {
			continue
		}
		if err := setBalance(st, addr, have+amt); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// holdersOnly gates chat on token holdings: only an address with a
// positive balance may post.
func holdersOnly(ec contract.ExecContext, st state.Writer) (bool, error) {
	return balance(st, ec.Address) > 0, nil
}
