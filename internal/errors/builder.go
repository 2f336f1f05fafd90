package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// InternalError is the concrete error type produced by the builder. It keeps
// the user-facing hint and reportable details separate from the wrapped cause
// so handlers can render a safe response without leaking internals.
type InternalError struct {
	cause   error
	hint    string
	details map[string]interface{}
}

func (e *InternalError) Error() string {
	return e.cause.Error()
}

func (e *InternalError) Unwrap() error {
	return e.cause
}

// ErrorBuilder accumulates context before the error is marked and returned.
type ErrorBuilder struct {
	err     error
	hint    string
	details map[string]interface{}
}

// NewError starts a builder from a new error message.
func NewError(msg string) *ErrorBuilder {
	return &ErrorBuilder{err: errors.New(msg)}
}

// NewErrorf starts a builder from a formatted error message.
func NewErrorf(format string, args ...interface{}) *ErrorBuilder {
	return &ErrorBuilder{err: errors.Newf(format, args...)}
}

// WithError starts a builder wrapping an existing error.
func WithError(err error) *ErrorBuilder {
	if err == nil {
		err = errors.New("unknown error")
	}
	return &ErrorBuilder{err: err}
}

// WithHint attaches a user-presentable hint.
func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.hint = hint
	return b
}

// WithHintf attaches a formatted user-presentable hint.
func (b *ErrorBuilder) WithHintf(format string, args ...interface{}) *ErrorBuilder {
	b.hint = fmt.Sprintf(format, args...)
	return b
}

// WithReportableDetails attaches structured details that are safe to surface
// in API responses and logs.
func (b *ErrorBuilder) WithReportableDetails(details map[string]interface{}) *ErrorBuilder {
	b.details = details
	return b
}

// Mark finalizes the builder, tagging the error with the given sentinel.
func (b *ErrorBuilder) Mark(mark error) error {
	err := b.err
	if mark != nil {
		err = errors.Mark(err, mark)
	}
	return &InternalError{
		cause:   err,
		hint:    b.hint,
		details: b.details,
	}
}

// Hint returns the first hint found in the error chain, if any.
func Hint(err error) string {
	for err != nil {
		if ie, ok := err.(*InternalError); ok && ie.hint != "" {
			return ie.hint
		}
		err = errors.Unwrap(err)
	}
	return ""
}

// Details returns the first reportable details found in the error chain.
func Details(err error) map[string]interface{} {
	for err != nil {
		if ie, ok := err.(*InternalError); ok && ie.details != nil {
			return ie.details
		}
		err = errors.Unwrap(err)
	}
	return nil
}
