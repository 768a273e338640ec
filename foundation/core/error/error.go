// File: error.go
// Title: Core Error Implementation
// Description: Implements the main Error type with a code, severity, operation and
//              details. Keeps compatibility with Go's standard error interface
//              (Unwrap, errors.Is, errors.As) while carrying enough structure for
//              transports to map failures onto wire error codes.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with contextual errors
// - 2026-10-19 v0.2.0: Copy-on-write decorators, code based Is, stack traces removed

package error

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Error represents a structured error with context, codes, and metadata
type Error struct {
	message   string
	cause     error
	code      Code
	severity  Severity
	timestamp time.Time
	operation string
	details   map[string]interface{}
}

// New creates a new Error with the given message
func New(message string) *Error {
	return &Error{
		message:   message,
		code:      CodeUnknown,
		severity:  SeverityMedium,
		timestamp: time.Now(),
	}
}

// Newf creates a new Error with a formatted message
func Newf(format string, args ...interface{}) *Error {
	return New(fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with additional context. Code, severity and
// details of a wrapped *Error are inherited.
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}

	wrapped := &Error{
		message:   message,
		cause:     err,
		code:      CodeUnknown,
		severity:  SeverityMedium,
		timestamp: time.Now(),
	}

	var inner *Error
	if errors.As(err, &inner) {
		wrapped.code = inner.code
		wrapped.severity = inner.severity
		wrapped.operation = inner.operation
		wrapped.details = copyDetails(inner.details)
	}
	return wrapped
}

// Error implements the standard error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s", e.message, e.cause.Error())
	}
	return e.message
}

// Unwrap returns the underlying cause for error unwrapping
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same code. Errors without a
// code only match themselves.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e == t {
		return true
	}
	if t.code == CodeUnknown || e.code == CodeUnknown {
		return false
	}
	return e.code == t.code
}

// clone returns a shallow copy with its own details map. Decorators work on
// copies so package-level sentinels are never modified.
func (e *Error) clone() *Error {
	c := *e
	c.details = copyDetails(e.details)
	return &c
}

// WithCode returns a copy of the error with the given code. The severity is
// derived from the code.
func (e *Error) WithCode(code Code) *Error {
	c := e.clone()
	c.code = code
	c.severity = GetSeverityFromCode(code)
	return c
}

// WithSeverity returns a copy of the error with the given severity
func (e *Error) WithSeverity(severity Severity) *Error {
	c := e.clone()
	c.severity = severity
	return c
}

// WithDetail returns a copy of the error with an additional detail
func (e *Error) WithDetail(key string, value interface{}) *Error {
	c := e.clone()
	if c.details == nil {
		c.details = make(map[string]interface{})
	}
	c.details[key] = value
	return c
}

// WithOperation returns a copy of the error tagged with the failing operation
func (e *Error) WithOperation(operation string) *Error {
	c := e.clone()
	c.operation = operation
	return c
}

// WithCause returns a copy of the error wrapping cause
func (e *Error) WithCause(cause error) *Error {
	c := e.clone()
	c.cause = cause
	return c
}

// Code returns the error code
func (e *Error) Code() Code {
	return e.code
}

// Severity returns the error severity
func (e *Error) Severity() Severity {
	return e.severity
}

// Message returns the message without the cause chain
func (e *Error) Message() string {
	return e.message
}

// Operation returns the operation that failed, if set
func (e *Error) Operation() string {
	return e.operation
}

// Timestamp returns when the error was created
func (e *Error) Timestamp() time.Time {
	return e.timestamp
}

// Details returns a copy of the error details
func (e *Error) Details() map[string]interface{} {
	return copyDetails(e.details)
}

// String returns a detailed, single-line representation for logs
func (e *Error) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s", e.code, e.Error())
	if e.operation != "" {
		fmt.Fprintf(&sb, " (operation: %s)", e.operation)
	}
	if len(e.details) > 0 {
		keys := make([]string, 0, len(e.details))
		for k := range e.details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, " %s=%v", k, e.details[k])
		}
	}
	return sb.String()
}

// MarshalJSON implements json.Marshaler
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Code      Code                   `json:"code"`
		Message   string                 `json:"message"`
		Severity  string                 `json:"severity"`
		Operation string                 `json:"operation,omitempty"`
		Details   map[string]interface{} `json:"details,omitempty"`
		Timestamp time.Time              `json:"timestamp"`
	}{
		Code:      e.code,
		Message:   e.Error(),
		Severity:  e.severity.String(),
		Operation: e.operation,
		Details:   e.details,
		Timestamp: e.timestamp,
	})
}

// HasCode reports whether err or any error in its chain carries code
func HasCode(err error, code Code) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// GetCode returns the code of the first *Error in the chain, or CodeUnknown
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	return CodeUnknown
}

// GetSeverity returns the severity of the first *Error in the chain
func GetSeverity(err error) Severity {
	var e *Error
	if errors.As(err, &e) {
		return e.severity
	}
	return SeverityMedium
}

func copyDetails(in map[string]interface{}) map[string]interface{} {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
