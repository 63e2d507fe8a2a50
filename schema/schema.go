// Package schema implements the per-operation-type validation layer:
// declarative JSON Schema documents compiled once at startup into
// validators, plus the domain checks (hex identifiers, numeric
// strings, ledger address formats) the schemas reference as formats.
//
// Validation is pure and stateless. A failed validation reports
// false; it never panics. Callers treat false as "drop this
// operation silently".
package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// FormatHex is the schema format name for even-length hex strings.
const FormatHex = "hex"

// FormatAddress is the schema format name for settlement ledger
// addresses.
const FormatAddress = "bitcoin-address"

// FormatNumericString is the schema format name for unsigned decimal
// number strings.
const FormatNumericString = "numeric-string"

// Validator wraps a compiled schema for one operation type.
type Validator struct {
	name string
	s    *jsonschema.Schema
}

// Compile compiles a JSON Schema document under the given name.
// The domain formats (hex, bitcoin-address, numeric-string) are
// available to the document.
func Compile(name, doc string) (*Validator, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	c.AssertFormat = true
	c.Formats = map[string]func(interface{}) bool{
		FormatHex:           formatHex,
		FormatAddress:       formatAddress,
		FormatNumericString: formatNumericString,
	}

	url := fmt.Sprintf("schema:///%s.json", name)
	if err := c.AddResource(url, strings.NewReader(doc)); err != nil {
		return nil, fmt.Errorf("schema %s: load: %w", name, err)
	}
	s, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("schema %s: compile: %w", name, err)
	}
	return &Validator{name: name, s: s}, nil
}

// MustCompile is Compile that panics on error. For package-level
// schema constants, where a compile failure is a programming bug.
func MustCompile(name, doc string) *Validator {
	v, err := Compile(name, doc)
	if err != nil {
		panic(err)
	}
	return v
}

// Name returns the operation type the validator was compiled for.
func (v *Validator) Name() string { return v.name }

// OK reports whether the decoded JSON value satisfies the schema.
func (v *Validator) OK(value any) bool {
	return v.s.Validate(value) == nil
}

// OKRaw decodes raw JSON and validates it. Undecodable input
// fails validation.
func (v *Validator) OKRaw(raw []byte) bool {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return false
	}
	return v.OK(value)
}

func formatHex(v interface{}) bool {
	s, ok := v.(string)
	if !ok {
		return true // non-strings are rejected by type checks, not formats
	}
	return IsHex(s)
}

func formatAddress(v interface{}) bool {
	s, ok := v.(string)
	if !ok {
		return true
	}
	return IsAddress(s)
}

func formatNumericString(v interface{}) bool {
	s, ok := v.(string)
	if !ok {
		return true
	}
	return IsNumericString(s)
}
