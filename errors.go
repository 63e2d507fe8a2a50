package subnet

import (
	"errors"
	"fmt"
)

// ErrNoEntry reports that a settlement ledger holds no entry at the
// requested height for the requested transaction id.
// SettlementClient implementations wrap it so callers can tell an
// absent entry from an unreachable ledger.
var ErrNoEntry = errors.New("no settlement entry")

// FaultError signals a programming fault inside contract logic or a
// handler — not adversarial input. It is the one error kind that
// aborts processing of the current log entry group instead of
// degrading to a deterministic no-op.
//
// Malformed, unauthorized, or stale operations never produce a
// FaultError; they are dropped silently so replicas cannot diverge.
type FaultError struct {
	Op     string // operation type being applied
	Reason string
	Err    error // underlying cause, if any
}

func (e *FaultError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("FAULT applying %q: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("FAULT applying %q: %s", e.Op, e.Reason)
}

func (e *FaultError) Unwrap() error { return e.Err }

// NewFault creates a new FaultError.
func NewFault(op, reason string, err error) *FaultError {
	return &FaultError{Op: op, Reason: reason, Err: err}
}

// IsFault checks whether an error is a FaultError and returns it.
func IsFault(err error) (*FaultError, bool) {
	var f *FaultError
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
