package domain

import (
	"errors"
	"fmt"
)

// Error kinds exposed to transports.
var (
	ErrNotFound         = errors.New("not found")
	ErrNotAvailable     = errors.New("not available")
	ErrValidation       = errors.New("validation error")
	ErrUnsupportedState = errors.New("unsupported state")
	ErrConflict         = errors.New("conflict")
)

// Internal reasons. They never change the kind a transport sees.
var (
	ErrNotOwner        = errors.New("acting user is not the item owner")
	ErrOwnItem         = errors.New("owner cannot book own item")
	ErrNotParticipant  = errors.New("viewer is neither booker nor owner")
	ErrAlreadyApproved = errors.New("booking already approved")
	ErrAlreadyDecided  = errors.New("booking already decided")
	ErrInvalidWindow   = errors.New("invalid booking window")
	ErrNotUsed         = errors.New("item was never used by author")
)

// Error is a business rule violation.
type Error struct {
	Kind    error
	Reason  error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Reason == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Reason}
}

func newError(kind, reason error, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

func NotFound(reason error, format string, args ...any) *Error {
	return newError(ErrNotFound, reason, format, args...)
}

func NotAvailable(reason error, format string, args ...any) *Error {
	return newError(ErrNotAvailable, reason, format, args...)
}

func Validation(format string, args ...any) *Error {
	return newError(ErrValidation, nil, format, args...)
}

func UnsupportedState(state string) *Error {
	return newError(ErrUnsupportedState, nil, "Unknown state: %s", state)
}

func Conflict(format string, args ...any) *Error {
	return newError(ErrConflict, nil, format, args...)
}

// KindOf returns the transport-level kind of err, or nil for unexpected errors.
func KindOf(err error) error {
	for _, kind := range []error{ErrNotFound, ErrNotAvailable, ErrValidation, ErrUnsupportedState, ErrConflict} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
