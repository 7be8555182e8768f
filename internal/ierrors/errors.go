// Package ierrors defines the interpreter's error taxonomy: the kinds of
// failure an interpreted program can trigger (as opposed to a bug in the
// interpreter itself, which panics).
package ierrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies a category of interpreter-level failure. Kinds are not
// Go error types on their own; they're attached to an *Error below so a
// caller can still switch on KindOf(err) after the error has been wrapped with
// extra context by an intermediate layer (layout cache, MIR cache, ...).
type Kind int

const (
	// OutOfBounds is any memory access whose range exceeds its allocation,
	// including access to a tombstoned (freed) allocation.
	OutOfBounds Kind = iota

	// InvalidBool is a boolean byte that isn't 0 or 1.
	InvalidBool

	// ReadPointerAsBytes is reading bytes at an offset that actually holds
	// a relocation (a pointer), via an integer-typed read.
	ReadPointerAsBytes

	// ReadBytesAsPointer is the inverse: reading a pointer at an offset
	// that has no relocation entry.
	ReadBytesAsPointer

	// DivisionByZero is integer division or remainder by zero.
	DivisionByZero

	// Unimplemented marks a recognised IR shape this tier doesn't yet
	// evaluate (float literals, strings, Resume, trait objects, ...).
	Unimplemented

	// Unsupported marks a shape this interpreter will never support at
	// this tier (foreign ABIs, function-pointer trait dispatch).
	Unsupported
)

func (k Kind) String() string {
	switch k {
	case OutOfBounds:
		return "OutOfBounds"
	case InvalidBool:
		return "InvalidBool"
	case ReadPointerAsBytes:
		return "ReadPointerAsBytes"
	case ReadBytesAsPointer:
		return "ReadBytesAsPointer"
	case DivisionByZero:
		return "DivisionByZero"
	case Unimplemented:
		return "Unimplemented"
	case Unsupported:
		return "Unsupported"
	default:
		return "UnknownKind"
	}
}

// Error is the error type returned by every memory primitive, operand/
// lvalue evaluator, terminator evaluator, and assignment evaluator. The
// main loop surfaces the first one it sees and stops; there is no local
// recovery.
type Error struct {
	kind Kind
	err  error
}

// New builds an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{kind: kind, err: errors.Errorf(format, args...)}
}

// Wrap attaches a kind to an error from a lower layer (e.g. a sqlite
// lookup failure surfacing through the MIR cache), preserving it as the
// cause so errors.Cause still finds the original failure.
func Wrap(kind Kind, err error, context string) *Error {
	return &Error{kind: kind, err: errors.Wrap(err, context)}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.kind, e.err)
}

// Cause exposes the wrapped error for errors.Cause. *Error has no Unwrap
// method, so errors.Is and errors.As do not look inside it.
func (e *Error) Cause() error { return e.err }

// KindOf reports the error's taxonomy slot. Callers match on this instead
// of on a concrete Go type, describing a category of failure rather than
// a Go type.
func KindOf(err error) (Kind, bool) {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.kind, true
	}
	return 0, false
}

// Is reports whether the first *Error found in err's Unwrap chain has the
// given Kind; a Kind carried by an *Error nested inside it is not checked.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
