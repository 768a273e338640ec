// File: codes.go
// Title: Error Code Definitions
// Description: Standardized error codes for consistent error classification
//              across rechenwerk packages and transports.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with core error codes
// - 2026-10-19 v0.2.0: Calculator and routing codes

package error

// Code represents a structured error code for categorizing errors
type Code string

const (
	// Generic codes
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL"
	CodeNotFound     Code = "NOT_FOUND"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeTimeout      Code = "TIMEOUT"

	// Storage
	CodeDatabaseError    Code = "DATABASE_ERROR"
	CodeConnectionFailed Code = "CONNECTION_FAILED"

	// Service and network
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeConfigurationError   Code = "CONFIGURATION_ERROR"

	// Calculator
	CodeUnsupportedType   Code = "UNSUPPORTED_TYPE"
	CodeDivideByZero      Code = "DIVIDE_BY_ZERO"
	CodeMagnitudeExceeded Code = "MAGNITUDE_EXCEEDED"

	// Call routing
	CodeUnknownOperation Code = "UNKNOWN_OPERATION"
)

// String returns the string representation of the code
func (c Code) String() string {
	return string(c)
}

// IsCalculatorError reports whether the code belongs to the arithmetic engine
// or its argument conversion.
func (c Code) IsCalculatorError() bool {
	switch c {
	case CodeInvalidInput, CodeUnsupportedType, CodeDivideByZero, CodeMagnitudeExceeded:
		return true
	}
	return false
}

// IsClientError reports whether the caller can fix the error by changing the request
func (c Code) IsClientError() bool {
	return c.IsCalculatorError() || c == CodeUnknownOperation || c == CodeNotFound
}
