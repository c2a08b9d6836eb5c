package models

import (
	"errors"
	"fmt"
)

// ErrorKind discriminates the closed set of failure categories the service
// reports. Handlers match on the kind, not on concrete error values.
type ErrorKind int

const (
	KindUnexpected ErrorKind = iota
	KindValidation
	KindBusinessRule
	KindInvalidState
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindBusinessRule:
		return "business_rule"
	case KindInvalidState:
		return "invalid_state"
	case KindNotFound:
		return "not_found"
	default:
		return "unexpected"
	}
}

// Error is a kind-tagged domain error.
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func NewValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NewBusinessRuleError(format string, args ...any) *Error {
	return &Error{Kind: KindBusinessRule, Message: fmt.Sprintf(format, args...)}
}

func NewInvalidStateError(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// WrapUnexpected tags an infrastructure failure without leaking its detail
// into the caller-facing message.
func WrapUnexpected(msg string, cause error) *Error {
	return &Error{Kind: KindUnexpected, Message: msg, cause: cause}
}

// KindOf extracts the kind from an error chain. Anything that is not an
// *Error counts as unexpected.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnexpected
}

// Expected reports whether the error is a known business outcome rather than
// an infrastructure failure.
func Expected(err error) bool {
	return KindOf(err) != KindUnexpected
}
