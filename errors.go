package rigid

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the errors returned by a Space.
type ErrorKind uint8

const (
	// InvalidHandle is returned for a stale or unknown body, shape or constraint id.
	// The call fails, the space stays valid.
	InvalidHandle ErrorKind = iota + 1
	// InvalidGeometry is returned when a shape or body is created with degenerate parameters.
	InvalidGeometry
	// ReentrancyViolation is returned when the space is mutated while it is locked
	// by a step, a query or an each traversal. Use a post-step callback instead.
	ReentrancyViolation
	// CallbackFailure reports a collision handler, constraint hook or post-step
	// callback that panicked. It is never returned from Step, only reported.
	CallbackFailure
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidHandle:
		return "invalid handle"
	case InvalidGeometry:
		return "invalid geometry"
	case ReentrancyViolation:
		return "reentrancy violation"
	case CallbackFailure:
		return "callback failure"
	default:
		return fmt.Sprintf("ErrorKind(%d)", uint8(k))
	}
}

// Error is the error type of every fallible Space operation.
type Error struct {
	Kind ErrorKind
	// Op is the operation that failed, e.g. "AddShape".
	Op  string
	Err error
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrInvalidHandle   = &Error{Kind: InvalidHandle}
	ErrInvalidGeometry = &Error{Kind: InvalidGeometry}
	ErrReentrancy      = &Error{Kind: ReentrancyViolation}
	ErrCallbackFailure = &Error{Kind: CallbackFailure}
)

func (e *Error) Error() string {
	s := "rigid: "
	if e.Op != "" {
		s += e.Op + ": "
	}
	s += e.Kind.String()
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind ErrorKind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func errLocked(op string) *Error {
	return &Error{Kind: ReentrancyViolation, Op: op, Err: errors.New("space is locked, use a post-step callback")}
}
