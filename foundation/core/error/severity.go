// File: severity.go
// Title: Error Severity Levels
// Description: Severity classification used for logging decisions.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19

package error

// Severity represents the severity level of an error
type Severity int

const (
	// SeverityLow indicates a rejected request that left the system unchanged
	SeverityLow Severity = iota

	// SeverityMedium indicates an error that affects functionality but has workarounds
	SeverityMedium

	// SeverityHigh indicates a failing dependency such as storage or the model backend
	SeverityHigh

	// SeverityCritical indicates the process cannot continue
	SeverityCritical
)

// String returns the string representation of the severity level
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ShouldAlert returns true if this severity level should trigger alerts
func (s Severity) ShouldAlert() bool {
	return s >= SeverityHigh
}

// GetSeverityFromCode determines appropriate severity level based on error code
func GetSeverityFromCode(code Code) Severity {
	switch code {
	case CodeInternal:
		return SeverityCritical
	case CodeDatabaseError, CodeConnectionFailed, CodeServiceUnavailable, CodeConfigurationError:
		return SeverityHigh
	case CodeTimeout, CodeExternalServiceError:
		return SeverityMedium
	case CodeInvalidInput, CodeUnsupportedType, CodeDivideByZero, CodeMagnitudeExceeded,
		CodeUnknownOperation, CodeNotFound:
		return SeverityLow
	default:
		return SeverityMedium
	}
}
