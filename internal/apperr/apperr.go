// Package apperr defines the error kinds surfaced by the ledger and reports.
// Match them with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrStorage    = errors.New("storage error")
)

// Error carries the operation and kind of a failure.
type Error struct {
	Op      string
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

func (e *Error) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	return e.Err != nil && errors.Is(e.Err, target)
}

// NotFound reports a missing student, subject or record.
func NotFound(op, format string, args ...any) error {
	return &Error{Op: op, Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation reports malformed caller input.
func Validation(op, format string, args ...any) error {
	return &Error{Op: op, Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// Invalid wraps a lower-level parse or check failure as a validation error.
func Invalid(op string, err error) error {
	return &Error{Op: op, Kind: ErrValidation, Message: "invalid input", Err: err}
}

// Conflict reports a write that clashes with existing state.
func Conflict(op, format string, args ...any) error {
	return &Error{Op: op, Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

// Storage wraps a persistence failure. Nil in, nil out.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Op: op, Kind: ErrStorage, Message: "storage failure", Err: err}
}

// Message is the caller-safe text of err. Storage failures never expose
// driver details.
func Message(err error) string {
	var ae *Error
	if !errors.As(err, &ae) {
		return "internal error"
	}
	if errors.Is(ae.Kind, ErrStorage) {
		return "storage failure"
	}
	if ae.Err != nil && errors.Is(ae.Kind, ErrValidation) {
		return ae.Err.Error()
	}
	return ae.Message
}
