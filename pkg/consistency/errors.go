package consistency

import (
	"errors"
	"fmt"
)

// Manager errors.
var (
	// ErrClosed is returned by operations on a closed Manager.
	ErrClosed = errors.New("consistency manager closed")

	// ErrNilListener is returned when a nil listener is passed.
	ErrNilListener = errors.New("nil listener")

	// ErrNotComparable is returned for listeners that are not pointers and so
	// can't be used as map keys safely.
	ErrNotComparable = errors.New("listener is not a pointer")
)

// Critical error sentinels, matched with errors.Is against a *CriticalError.
var (
	// ErrDeleteIDFailure means a delete was requested for a node without an
	// identifier.
	ErrDeleteIDFailure = errors.New("delete of a node without identifier")

	// ErrWrongMapClass means a node's Map returned a different concrete type.
	ErrWrongMapClass = errors.New("map returned a different node type")
)

// ErrorReason names a critical error.
type ErrorReason string

const (
	ReasonDeleteIDFailure ErrorReason = "DeleteIDFailure"
	ReasonWrongMapClass   ErrorReason = "WrongMapClass"
)

// CriticalError reports a misbehaving model. It never stops the pipeline:
// the instruction is skipped (DeleteIDFailure) or the offending branch is
// kept unchanged (WrongMapClass).
type CriticalError struct {
	Reason ErrorReason
	ID     string
	Detail string
}

func (e *CriticalError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s (id %q): %s", e.Reason, e.ID, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

// Unwrap returns the sentinel error for the reason.
func (e *CriticalError) Unwrap() error {
	switch e.Reason {
	case ReasonDeleteIDFailure:
		return ErrDeleteIDFailure
	case ReasonWrongMapClass:
		return ErrWrongMapClass
	default:
		return nil
	}
}
