// Package apperr defines the error kinds surfaced to callers of the chat core.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the caller.
type Kind string

const (
	KindNotFound        Kind = "not_found"
	KindQuotaExceeded   Kind = "quota_exceeded"
	KindProviderFailure Kind = "provider_failure"
	KindInvalid         Kind = "invalid"
	KindInternal        Kind = "internal"
)

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an Error of the given kind.
func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// NotFound reports an unknown persona, character, conversation or mood.
func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, fmt.Sprintf(format, args...), nil)
}

// QuotaExceeded reports a usage gate denial.
func QuotaExceeded(format string, args ...any) *Error {
	return New(KindQuotaExceeded, fmt.Sprintf(format, args...), nil)
}

// Invalid reports a malformed request.
func Invalid(format string, args ...any) *Error {
	return New(KindInvalid, fmt.Sprintf(format, args...), nil)
}

// ProviderFailure wraps an error returned by an external model provider.
func ProviderFailure(message string, err error) *Error {
	return New(KindProviderFailure, message, err)
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
