package tracer

import (
	"errors"
	"fmt"
)

// Kind classifies a tracing failure.
type Kind string

const (
	// KindInvalidInput means the claim or its entries are malformed.
	KindInvalidInput Kind = "invalid_input"
	// KindDataUnavailable means the ledger could not supply the data the trace needs.
	KindDataUnavailable Kind = "data_unavailable"
	// KindOrderingConflict means the entries cannot be totally ordered.
	KindOrderingConflict Kind = "ordering_conflict"
	// KindArithmeticInvariant means the result broke 0 <= traceable <= initial.
	KindArithmeticInvariant Kind = "arithmetic_invariant_violation"
	// KindRangeExceeded means the day-by-day walk would exceed the configured bound.
	KindRangeExceeded Kind = "range_exceeded"
)

// Error is returned by Trace and by the code that gathers its inputs.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Unavailable wraps a ledger failure as a KindDataUnavailable error.
func Unavailable(msg string, err error) *Error {
	return &Error{Kind: KindDataUnavailable, Msg: msg, Err: err}
}

// KindOf returns the Kind of err, or "" when err is not a tracing error.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return ""
}
