// Package common defines the sentinel errors shared by the storage, service and
// transport layers. Callers wrap them with context and match with errors.Is.
package common

import "errors"

var (
	// Store and lookup errors.
	ErrNotFound = errors.New("not found")

	// Request validation (missing field, value outside a closed enumeration).
	ErrValidation = errors.New("validation error")

	// Missing or invalid credentials or token.
	ErrUnauthenticated = errors.New("unauthenticated")

	// Role not permitted for the operation.
	ErrForbidden = errors.New("forbidden")

	// Optional backend (object storage) not configured.
	ErrUnavailable = errors.New("unavailable")
)

// Error pairs one of the sentinels above with the message shown to API
// clients. errors.Is matches the sentinel.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

func NotFound(msg string) error        { return &Error{kind: ErrNotFound, msg: msg} }
func Validation(msg string) error      { return &Error{kind: ErrValidation, msg: msg} }
func Unauthenticated(msg string) error { return &Error{kind: ErrUnauthenticated, msg: msg} }
func Forbidden(msg string) error       { return &Error{kind: ErrForbidden, msg: msg} }
func Unavailable(msg string) error     { return &Error{kind: ErrUnavailable, msg: msg} }

// Message returns the client-facing text of err and whether it carries one.
func Message(err error) (string, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.msg, true
	}
	return "", false
}
