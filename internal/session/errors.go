package session

import (
	"errors"
	"fmt"
)

var (
	ErrNoTransport        = errors.New("no transport")
	ErrInvalidDescription = errors.New("invalid session description")
	ErrInvalidCandidate   = errors.New("invalid ice candidate")
)

// Error records the engine operation that failed.
type Error struct {
	Op      string
	Err     error
	Details string
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op string, err error) *Error {
	return &Error{Op: op, Err: err}
}

func wrapError(op string, err error, details string) *Error {
	return &Error{Op: op, Err: err, Details: details}
}
