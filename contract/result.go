package contract

import (
	"errors"
	"fmt"
)

// Business error kinds produced by the framework itself. Contract
// authors may use their own kinds freely.
const (
	// KindAssert is the generic negative business result.
	KindAssert = "assert"
	// KindInvalidSchema reports a dispatch value that failed the
	// type's registered schema.
	KindInvalidSchema = "invalid_schema"
)

// BusinessError is a typed negative business result: data, not a
// fault. Returning one from contract logic records why an invocation
// had no effect; it never aborts log processing.
type BusinessError struct {
	Kind    string
	Message string
}

func (e *BusinessError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Errf creates a BusinessError with the given kind.
func Errf(kind, format string, args ...any) *BusinessError {
	return &BusinessError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Assertf creates a BusinessError of the generic assert kind.
func Assertf(format string, args ...any) *BusinessError {
	return Errf(KindAssert, format, args...)
}

type resultKind uint8

const (
	resultOK resultKind = iota
	resultBusiness
	resultUnknown
	resultFault
)

// Result is the outcome of one contract invocation. Exactly one of
// four shapes: a success value, a typed business error, an unknown
// operation type, or a fault. Only a fault propagates as a Go error
// and aborts log processing; the rest are data.
type Result struct {
	kind  resultKind
	value any
	berr  *BusinessError
	fault error
}

// OK wraps a success value ("no opinion" is OK(nil)).
func OK(v any) Result { return Result{kind: resultOK, value: v} }

// Violation wraps a typed negative business result.
func Violation(err *BusinessError) Result {
	return Result{kind: resultBusiness, berr: err}
}

// UnknownOp reports that no function, schema, or feature is
// registered for the operation type.
func UnknownOp() Result { return Result{kind: resultUnknown} }

// Faulted wraps a programming fault.
func Faulted(err error) Result { return Result{kind: resultFault, fault: err} }

// Ok reports a successful invocation.
func (r Result) Ok() bool { return r.kind == resultOK }

// Failed reports a business error or unknown operation. Faults are
// not "failures" in this sense; check Fault separately.
func (r Result) Failed() bool {
	return r.kind == resultBusiness || r.kind == resultUnknown
}

// Unknown reports an unknown operation type.
func (r Result) Unknown() bool { return r.kind == resultUnknown }

// Value returns the success value, if any.
func (r Result) Value() any { return r.value }

// Err returns the business error, or nil.
func (r Result) Err() *BusinessError { return r.berr }

// Fault returns the fault, or nil.
func (r Result) Fault() error { return r.fault }

// resultFrom classifies an error returned by contract logic: a
// BusinessError stays data; anything else is a fault.
func resultFrom(op string, err error) Result {
	var berr *BusinessError
	if errors.As(err, &berr) {
		return Violation(berr)
	}
	return Faulted(err)
}
