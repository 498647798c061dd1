// Package apperr defines the closed error taxonomy surfaced to API callers.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindInvalidState
	KindValidation
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindInvalidState:
		return "invalid_state"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	}
	return "unknown"
}

// Error is a domain error with a kind from the closed taxonomy.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Unauthorized(format string, args ...any) *Error { return newf(KindUnauthorized, format, args...) }
func Forbidden(format string, args ...any) *Error    { return newf(KindForbidden, format, args...) }
func NotFound(format string, args ...any) *Error     { return newf(KindNotFound, format, args...) }
func InvalidState(format string, args ...any) *Error { return newf(KindInvalidState, format, args...) }
func Validation(format string, args ...any) *Error   { return newf(KindValidation, format, args...) }
func Conflict(format string, args ...any) *Error     { return newf(KindConflict, format, args...) }

// KindOf unwraps err and reports its taxonomy kind, or KindUnknown for
// unexpected errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is matches errors of the same kind, so tests can compare against a
// representative error value.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}
