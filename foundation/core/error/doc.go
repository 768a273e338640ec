// Package error provides structured errors for the rechenwerk platform.
//
// Package: error
// Title: rechenwerk Error Handling
// Description: Structured errors carrying a machine-readable code, a severity,
//              the failing operation and free-form details. Errors compare by
//              code with errors.Is, so package-level sentinels can be matched
//              against wrapped or decorated instances.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with contextual errors and codes
// - 2026-10-19 v0.2.0: Calculator codes, code-based errors.Is matching
//
// Usage:
//
//	import mdwerror "github.com/msto63/rechenwerk/foundation/core/error"
//
//	err := mdwerror.New("division by zero").
//		WithCode(mdwerror.CodeDivideByZero).
//		WithOperation("divide")
//
//	if mdwerror.HasCode(err, mdwerror.CodeDivideByZero) {
//		// handle
//	}
package error
