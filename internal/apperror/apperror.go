// Package apperror carries request failures as values until the HTTP boundary,
// where Handler renders them once.
package apperror

import (
	"errors"
	"fmt"
)

type Kind int

const (
	Internal Kind = iota
	Validation
	Unauthorized
	NotFound
	BusinessRule
	RateLimited
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Unauthorized:
		return "unauthorized"
	case NotFound:
		return "not_found"
	case BusinessRule:
		return "business_rule"
	case RateLimited:
		return "rate_limited"
	default:
		return "internal"
	}
}

// Error is the tagged failure value returned by services and handlers.
// Fields holds per-field messages for Validation errors.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func NewValidation(message string, fields map[string]string) *Error {
	return &Error{Kind: Validation, Message: message, Fields: fields}
}

func NewUnauthorized(message string) *Error {
	return &Error{Kind: Unauthorized, Message: message}
}

func NewNotFound(message string) *Error {
	return &Error{Kind: NotFound, Message: message}
}

func NewBusinessRule(message string) *Error {
	return &Error{Kind: BusinessRule, Message: message}
}

func NewRateLimited(message string) *Error {
	return &Error{Kind: RateLimited, Message: message}
}

// Wrap marks err as an internal failure. The message is never shown to clients.
func Wrap(err error, message string) *Error {
	return &Error{Kind: Internal, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}
