package api

import (
	"errors"
	"fmt"
)

// Failure kinds. Every error returned by Client wraps exactly one of them.
var (
	// ErrNetwork means the request could not be delivered or the backend
	// answered with a non-2xx status.
	ErrNetwork = errors.New("network failure")
	// ErrMalformedResponse means the body did not have the expected shape.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrValidation means the request was rejected before it was sent.
	ErrValidation = errors.New("validation failed")
)

// Error describes a failed backend operation.
type Error struct {
	Op     string // e.g. "create opset"
	Status int    // HTTP status, 0 when no response was received
	Kind   error  // one of ErrNetwork, ErrMalformedResponse, ErrValidation
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(op string, status int, kind, err error) *Error {
	return &Error{Op: op, Status: status, Kind: kind, Err: err}
}

// Validation returns an ErrValidation error for op.
func Validation(op, format string, args ...any) error {
	return newError(op, 0, ErrValidation, fmt.Errorf(format, args...))
}
