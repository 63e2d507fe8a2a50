// Package contract implements the pluggable execution framework a
// subnet embeds domain logic with. Operators register plain Go
// functions, JSON-Schema-guarded functions, fire-and-forget features,
// and an optional message pre-check on a Builder, then freeze the
// registry into an immutable Contract the apply loop invokes.
//
// Contract logic is deterministic by construction: it sees only the
// invocation context and the state writer it is handed, and its
// outcome is a Result, never a raw error. A BusinessError returned
// from a registered function is recorded as data; any other error is
// a fault and aborts processing.
package contract

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/blockberries/subnet/schema"
	"github.com/blockberries/subnet/state"
	"github.com/blockberries/subnet/types"
)

// TypeMessage is the operation type routed to the message pre-check.
const TypeMessage = "msg"

// ExecContext carries the per-invocation facts contract logic may
// depend on. It is immutable for the duration of the call.
type ExecContext struct {
	// Address is the settlement-ledger address of the account the
	// invocation acts for: the requester of a transaction, or the
	// author of a message.
	Address types.Address

	// ValidatorAddress is the address of the validator that settled
	// the transaction. Empty outside transaction execution.
	ValidatorAddress types.Address

	// TxID identifies the settled transaction being executed. Empty
	// outside transaction execution.
	TxID string

	// Op is the dispatch type being executed.
	Op string

	// Value is the raw dispatch value.
	Value json.RawMessage
}

// Func is domain logic registered for one dispatch type. The returned
// value is recorded alongside the transaction; a *BusinessError return
// is recorded as a negative outcome, any other error is a fault.
type Func func(ec ExecContext, st state.Writer) (any, error)

// MessageFunc is the chat pre-check. Returning false rejects the
// message without recording anything.
type MessageFunc func(ec ExecContext, st state.Writer) (bool, error)

// Builder accumulates registrations. Each dispatch type binds to
// exactly one of: a function, a schema-guarded function, or a
// feature. Builders are not safe for concurrent use.
type Builder struct {
	fns      map[string]Func
	schemas  map[string]*schema.Validator
	docs     map[string]string
	features map[string]Func
	message  MessageFunc
}

// NewBuilder creates an empty registry builder.
func NewBuilder() *Builder {
	return &Builder{
		fns:      make(map[string]Func),
		schemas:  make(map[string]*schema.Validator),
		docs:     make(map[string]string),
		features: make(map[string]Func),
	}
}

// AddFunction registers fn for the given dispatch type.
func (b *Builder) AddFunction(typ string, fn Func) error {
	if err := b.checkType(typ); err != nil {
		return err
	}
	if fn == nil {
		return fmt.Errorf("contract: nil function for type %q", typ)
	}
	b.fns[typ] = fn
	return nil
}

// AddSchema attaches a JSON Schema guard to an already-registered
// function. The dispatch value must validate against the schema
// before the function runs; on violation the function is skipped and
// an invalid_schema business error is recorded.
func (b *Builder) AddSchema(typ, doc string) error {
	if _, ok := b.fns[typ]; !ok {
		return fmt.Errorf("contract: schema for unregistered function type %q", typ)
	}
	if _, ok := b.schemas[typ]; ok {
		return fmt.Errorf("contract: duplicate schema for type %q", typ)
	}
	v, err := schema.Compile(typ, doc)
	if err != nil {
		return fmt.Errorf("contract: schema for type %q: %w", typ, err)
	}
	b.schemas[typ] = v
	b.docs[typ] = doc
	return nil
}

// AddFeature registers a fire-and-forget hook for the given dispatch
// type. Features run for their state effects only; their return value
// is discarded and nothing is recorded about the invocation.
func (b *Builder) AddFeature(typ string, fn Func) error {
	if err := b.checkType(typ); err != nil {
		return err
	}
	if fn == nil {
		return fmt.Errorf("contract: nil feature for type %q", typ)
	}
	b.features[typ] = fn
	return nil
}

// SetMessageHandler registers the chat pre-check. At most one may be
// set.
func (b *Builder) SetMessageHandler(fn MessageFunc) error {
	if b.message != nil {
		return fmt.Errorf("contract: message handler already set")
	}
	if fn == nil {
		return fmt.Errorf("contract: nil message handler")
	}
	b.message = fn
	return nil
}

func (b *Builder) checkType(typ string) error {
	if typ == "" {
		return fmt.Errorf("contract: empty dispatch type")
	}
	if typ == TypeMessage {
		return fmt.Errorf("contract: type %q is bound to the message handler", typ)
	}
	if _, ok := b.fns[typ]; ok {
		return fmt.Errorf("contract: type %q already registered as function", typ)
	}
	if _, ok := b.features[typ]; ok {
		return fmt.Errorf("contract: type %q already registered as feature", typ)
	}
	return nil
}

// Build freezes the registry. The builder must not be used after a
// successful Build.
func (b *Builder) Build() (*Contract, error) {
	for typ := range b.schemas {
		if _, ok := b.fns[typ]; !ok {
			return nil, fmt.Errorf("contract: schema without function for type %q", typ)
		}
	}
	c := &Contract{
		fns:      b.fns,
		schemas:  b.schemas,
		docs:     b.docs,
		features: b.features,
		message:  b.message,
	}
	b.fns, b.schemas, b.docs, b.features, b.message = nil, nil, nil, nil, nil
	return c, nil
}

// Contract is a frozen dispatch registry. Safe for concurrent use;
// determinism across replicas is the registrant's responsibility.
type Contract struct {
	fns      map[string]Func
	schemas  map[string]*schema.Validator
	docs     map[string]string
	features map[string]Func
	message  MessageFunc
}

// Registration describes one registered dispatch type.
type Registration struct {
	// Type is the dispatch type string.
	Type string
	// Schema is the guarding JSON Schema document, empty for
	// unguarded functions and features.
	Schema string
	// Feature marks fire-and-forget registrations.
	Feature bool
}

// Registrations lists the registered dispatch types, sorted by type.
func (c *Contract) Registrations() []Registration {
	out := make([]Registration, 0, len(c.fns)+len(c.features))
	for typ := range c.fns {
		out = append(out, Registration{Type: typ, Schema: c.docs[typ]})
	}
	for typ := range c.features {
		out = append(out, Registration{Type: typ, Feature: true})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// Types returns whether typ has any registration, and whether that
// registration is a feature.
func (c *Contract) Types(typ string) (registered, feature bool) {
	if _, ok := c.features[typ]; ok {
		return true, true
	}
	_, ok := c.fns[typ]
	return ok, false
}

// HasMessageHandler reports whether a chat pre-check is registered.
func (c *Contract) HasMessageHandler() bool { return c.message != nil }

// CheckMessage runs the chat pre-check for a message operation. With
// no handler registered it accepts. A non-business error from the
// handler is a fault.
func (c *Contract) CheckMessage(ec ExecContext, st state.Writer) (bool, Result) {
	if c.message == nil {
		return true, OK(nil)
	}
	accept, err := c.message(ec, st)
	if err != nil {
		return false, resultFrom(ec.Op, err)
	}
	if !accept {
		return false, OK(nil)
	}
	return true, OK(nil)
}

// Execute invokes the registration for ec.Op. Features run for effect
// only and always yield OK(nil) unless they fault. Schema-guarded
// functions validate ec.Value first and yield an invalid_schema
// business error on violation.
func (c *Contract) Execute(ec ExecContext, st state.Writer) Result {
	if fn, ok := c.features[ec.Op]; ok {
		if _, err := fn(ec, st); err != nil {
			return resultFrom(ec.Op, err)
		}
		return OK(nil)
	}

	fn, ok := c.fns[ec.Op]
	if !ok {
		return UnknownOp()
	}
	if v, ok := c.schemas[ec.Op]; ok {
		if !v.OKRaw(ec.Value) {
			return Violation(Errf(KindInvalidSchema, "value does not match schema for %q", ec.Op))
		}
	}
	out, err := fn(ec, st)
	if err != nil {
		return resultFrom(ec.Op, err)
	}
	return OK(out)
}
