// ============================================================================
// meinRECHENWERK - Lokaler KI-Rechner
// ============================================================================
//
// Package:     accumulator
// Description: Conversion of loosely typed operands into exact decimals
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package accumulator

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// decimalLiteral matches plain decimal literals with an optional exponent.
// Hex, binary, underscores, NaN and Infinity are rejected.
var decimalLiteral = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// ToDecimal converts an operand into an exact decimal.
//
// Integers, *big.Int and decimal.Decimal convert losslessly. Floats convert
// through their shortest round-trip string, so 0.1 becomes exactly 0.1.
// Strings and json.Number are parsed as decimal literals; anything that is not
// a literal fails with ErrInvalidInput. Other kinds (bool, nil, maps, slices,
// structs) fail with ErrUnsupportedType. Values whose exponent lies outside
// ±MaxExponent fail with ErrInvalidInput.
func ToDecimal(v any) (decimal.Decimal, error) {
	d, err := toDecimal(v)
	if err != nil {
		return decimal.Zero, err
	}
	return inRange(d)
}

// MaxExponent bounds the decimal exponent of an operand. Arithmetic on
// decimals rescales coefficients to a common exponent, so an unbounded
// exponent would mean an unbounded power of ten.
const MaxExponent = 1_000_000

func inRange(d decimal.Decimal) (decimal.Decimal, error) {
	if d.IsZero() {
		return decimal.Zero, nil
	}
	if exp := d.Exponent(); exp > MaxExponent || exp < -MaxExponent {
		return decimal.Zero, ErrInvalidInput.
			WithCause(fmt.Errorf("exponent %d outside ±%d", exp, MaxExponent)).
			WithDetail("exponent", exp)
	}
	return d, nil
}

// intDigits returns the number of digits left of the decimal point that
// |d| would need, so 10^(n-1) <= |d| < 10^n. d must not be zero.
func intDigits(d decimal.Decimal) int64 {
	c := d.Coefficient()
	return int64(d.Exponent()) + int64(len(c.Abs(c).Text(10)))
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case *decimal.Decimal:
		if x == nil {
			return decimal.Zero, unsupported(v)
		}
		return *x, nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int8:
		return decimal.NewFromInt(int64(x)), nil
	case int16:
		return decimal.NewFromInt(int64(x)), nil
	case int32:
		return decimal.NewFromInt(int64(x)), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case uint:
		return fromUint64(uint64(x)), nil
	case uint8:
		return fromUint64(uint64(x)), nil
	case uint16:
		return fromUint64(uint64(x)), nil
	case uint32:
		return fromUint64(uint64(x)), nil
	case uint64:
		return fromUint64(x), nil
	case *big.Int:
		if x == nil {
			return decimal.Zero, unsupported(v)
		}
		return decimal.NewFromBigInt(x, 0), nil
	case float32:
		return fromFloat(float64(x), 32)
	case float64:
		return fromFloat(x, 64)
	case json.Number:
		return ParseDecimal(string(x))
	case string:
		return ParseDecimal(x)
	default:
		return decimal.Zero, unsupported(v)
	}
}

// ParseDecimal parses a decimal literal such as "10.5", "-3", ".25" or "1e3".
// Surrounding whitespace is ignored.
func ParseDecimal(s string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(s)
	if !decimalLiteral.MatchString(trimmed) {
		return decimal.Zero, ErrInvalidInput.WithCause(fmt.Errorf("invalid numeric string: %q", s)).
			WithDetail("value", s)
	}
	d, err := decimal.NewFromString(strings.TrimPrefix(trimmed, "+"))
	if err != nil {
		return decimal.Zero, ErrInvalidInput.WithCause(fmt.Errorf("invalid numeric string %q: %w", s, err)).
			WithDetail("value", s)
	}
	return inRange(d)
}

func fromUint64(u uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(u), 0)
}

func fromFloat(f float64, bits int) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, ErrInvalidInput.WithCause(fmt.Errorf("non-finite float: %v", f)).
			WithDetail("value", f)
	}
	return ParseDecimal(strconv.FormatFloat(f, 'g', -1, bits))
}

func unsupported(v any) error {
	return ErrUnsupportedType.WithCause(fmt.Errorf("unsupported value type: %T", v)).
		WithDetail("type", fmt.Sprintf("%T", v))
}
