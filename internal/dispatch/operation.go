// ============================================================================
// meinRECHENWERK - Lokaler KI-Rechner
// ============================================================================
//
// Package:     dispatch
// Description: Typed calculator operations and tool call routing
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package dispatch

import (
	"strings"

	mdwerror "github.com/msto63/rechenwerk/foundation/core/error"
)

// Operation identifies one calculator operation
type Operation int

const (
	OpUnknown Operation = iota
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpPercent
	OpPercentAdd
	OpPercentSubtract
	OpGetTotal
	OpClear
	OpClearAll
)

var operationNames = map[Operation]string{
	OpAdd:             "add",
	OpSubtract:        "subtract",
	OpMultiply:        "multiply",
	OpDivide:          "divide",
	OpPercent:         "percent",
	OpPercentAdd:      "percent_add",
	OpPercentSubtract: "percent_subtract",
	OpGetTotal:        "get_total",
	OpClear:           "clear",
	OpClearAll:        "clear_all",
}

var operationsByName = func() map[string]Operation {
	m := make(map[string]Operation, len(operationNames)+1)
	for op, name := range operationNames {
		m[name] = op
	}
	// Spelling used by older model outputs
	m["percent_substract"] = OpPercentSubtract
	return m
}()

// ErrUnknownOperation is returned for call names outside the operation set
var ErrUnknownOperation = mdwerror.New("unknown operation").
	WithCode(mdwerror.CodeUnknownOperation)

// Operations returns every operation in declaration order
func Operations() []Operation {
	return []Operation{
		OpAdd, OpSubtract, OpMultiply, OpDivide,
		OpPercent, OpPercentAdd, OpPercentSubtract,
		OpGetTotal, OpClear, OpClearAll,
	}
}

// ParseOperation maps a wire name such as "percent_add" to its operation
func ParseOperation(name string) (Operation, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if op, ok := operationsByName[key]; ok {
		return op, nil
	}
	return OpUnknown, ErrUnknownOperation.WithDetail("name", name)
}

// String returns the wire name
func (o Operation) String() string {
	if name, ok := operationNames[o]; ok {
		return name
	}
	return "unknown"
}

// NeedsOperand reports whether the operation takes a number
func (o Operation) NeedsOperand() bool {
	switch o {
	case OpAdd, OpSubtract, OpMultiply, OpDivide, OpPercent, OpPercentAdd, OpPercentSubtract:
		return true
	default:
		return false
	}
}

// Mutates reports whether the operation can change the total
func (o Operation) Mutates() bool {
	return o != OpGetTotal && o != OpUnknown
}

// MarshalText implements encoding.TextMarshaler
func (o Operation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (o *Operation) UnmarshalText(text []byte) error {
	op, err := ParseOperation(string(text))
	if err != nil {
		return err
	}
	*o = op
	return nil
}
