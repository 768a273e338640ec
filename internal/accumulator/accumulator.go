// ============================================================================
// meinRECHENWERK - Lokaler KI-Rechner
// ============================================================================
//
// Package:     accumulator
// Description: Fixed-precision, magnitude-bounded running total with
//              single-use undo
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package accumulator

import (
	"fmt"

	"github.com/shopspring/decimal"

	mdwerror "github.com/msto63/rechenwerk/foundation/core/error"
)

var two = decimal.NewFromInt(2)

// Config holds accumulator configuration
type Config struct {
	// Precision is the number of fractional digits every total is rounded to
	Precision int
	// MaxMagnitude bounds the absolute value of the total, as a decimal literal
	MaxMagnitude string
}

// DefaultConfig returns default accumulator configuration
func DefaultConfig() Config {
	return Config{
		Precision:    2,
		MaxMagnitude: "1000",
	}
}

// Accumulator owns a running total and a one-slot undo buffer.
//
// An Accumulator is not safe for concurrent use; callers that share one must
// serialize access (see dispatch.Session).
type Accumulator struct {
	total        decimal.Decimal
	undo         decimal.Decimal
	hasUndo      bool
	precision    int32
	maxMagnitude decimal.Decimal
	// limitDigits is intDigits(maxMagnitude + 1)
	limitDigits  int64
}

// Snapshot is a read-only view of the accumulator state
type Snapshot struct {
	Total        decimal.Decimal
	Undo         *decimal.Decimal
	Precision    int
	MaxMagnitude decimal.Decimal
}

// New creates an accumulator with the given configuration. The total starts
// at zero with no undo available.
func New(cfg Config) (*Accumulator, error) {
	if cfg.Precision < 0 || cfg.Precision > maxPrecision {
		return nil, ErrInvalidInput.WithCause(fmt.Errorf("precision must be between 0 and %d, got %d", maxPrecision, cfg.Precision)).
			WithOperation("new")
	}

	limit, err := ParseDecimal(cfg.MaxMagnitude)
	if err != nil {
		return nil, mdwerror.Wrap(err, "max magnitude").WithOperation("new")
	}
	if limit.IsNegative() {
		return nil, ErrInvalidInput.WithCause(fmt.Errorf("max magnitude must not be negative, got %s", limit)).
			WithOperation("new")
	}

	a := &Accumulator{
		precision:    int32(cfg.Precision),
		maxMagnitude: limit,
		limitDigits:  intDigits(limit.Add(decimal.New(1, 0))),
	}
	a.total = a.zero()
	return a, nil
}

// NewDefault creates an accumulator with precision 2 and a bound of 1000
func NewDefault() *Accumulator {
	a, err := New(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return a
}

// maxPrecision keeps precision inside the int32 exponent range used by decimal
const maxPrecision = 1 << 16

// Add adds v to the total
func (a *Accumulator) Add(v any) (decimal.Decimal, error) {
	return a.apply("add", v, func(total, x decimal.Decimal) (decimal.Decimal, error) {
		return total.Add(x), nil
	})
}

// Subtract subtracts v from the total
func (a *Accumulator) Subtract(v any) (decimal.Decimal, error) {
	return a.apply("subtract", v, func(total, x decimal.Decimal) (decimal.Decimal, error) {
		return total.Sub(x), nil
	})
}

// Multiply multiplies the total by v
func (a *Accumulator) Multiply(v any) (decimal.Decimal, error) {
	return a.apply("multiply", v, func(total, x decimal.Decimal) (decimal.Decimal, error) {
		return total.Mul(x), nil
	})
}

// Divide divides the total by v. A zero divisor fails with ErrDivideByZero
// before anything is computed.
func (a *Accumulator) Divide(v any) (decimal.Decimal, error) {
	return a.apply("divide", v, func(total, x decimal.Decimal) (decimal.Decimal, error) {
		if x.IsZero() {
			return decimal.Zero, ErrDivideByZero.WithDetail("dividend", total.String())
		}
		return quoBank(total, x, a.precision), nil
	})
}

// Percent replaces the total with v percent of it
func (a *Accumulator) Percent(v any) (decimal.Decimal, error) {
	return a.apply("percent", v, func(total, x decimal.Decimal) (decimal.Decimal, error) {
		return percentOf(total, x), nil
	})
}

// PercentAdd adds v percent of the total to the total
func (a *Accumulator) PercentAdd(v any) (decimal.Decimal, error) {
	return a.apply("percent_add", v, func(total, x decimal.Decimal) (decimal.Decimal, error) {
		return total.Add(percentOf(total, x)), nil
	})
}

// PercentSubtract subtracts v percent of the total from the total
func (a *Accumulator) PercentSubtract(v any) (decimal.Decimal, error) {
	return a.apply("percent_subtract", v, func(total, x decimal.Decimal) (decimal.Decimal, error) {
		return total.Sub(percentOf(total, x)), nil
	})
}

// Clear restores the total from before the last committed operation and
// consumes the undo slot. Without a pending undo it is a no-op.
func (a *Accumulator) Clear() decimal.Decimal {
	if !a.hasUndo {
		return a.total
	}
	a.total = a.undo
	a.undo = decimal.Decimal{}
	a.hasUndo = false
	return a.total
}

// ClearAll resets the total to zero and drops any pending undo
func (a *Accumulator) ClearAll() decimal.Decimal {
	a.total = a.zero()
	a.undo = decimal.Decimal{}
	a.hasUndo = false
	return a.total
}

// Total returns the current total
func (a *Accumulator) Total() decimal.Decimal {
	return a.total
}

// HasUndo reports whether Clear would restore a previous total
func (a *Accumulator) HasUndo() bool {
	return a.hasUndo
}

// Precision returns the configured number of fractional digits
func (a *Accumulator) Precision() int {
	return int(a.precision)
}

// MaxMagnitude returns the configured bound on the absolute total
func (a *Accumulator) MaxMagnitude() decimal.Decimal {
	return a.maxMagnitude
}

// Format renders d with exactly Precision fractional digits
func (a *Accumulator) Format(d decimal.Decimal) string {
	return d.StringFixed(a.precision)
}

// Snapshot returns a copy of the current state
func (a *Accumulator) Snapshot() Snapshot {
	s := Snapshot{
		Total:        a.total,
		Precision:    int(a.precision),
		MaxMagnitude: a.maxMagnitude,
	}
	if a.hasUndo {
		undo := a.undo
		s.Undo = &undo
	}
	return s
}

// apply converts the operand, computes a candidate and commits it. Nothing is
// modified unless the candidate is committed.
func (a *Accumulator) apply(op string, v any, compute func(total, x decimal.Decimal) (decimal.Decimal, error)) (decimal.Decimal, error) {
	x, err := ToDecimal(v)
	if err != nil {
		return decimal.Zero, withOperation(err, op)
	}

	if floor, ok := magnitudeFloor(op, a.total, x); ok && floor >= a.limitDigits {
		return decimal.Zero, ErrMagnitudeExceeded.
			WithOperation(op).
			WithDetail("limit", a.maxMagnitude.String())
	}

	candidate, err := compute(a.total, x)
	if err != nil {
		return decimal.Zero, withOperation(err, op)
	}

	return a.commit(op, a.quantize(candidate))
}

// magnitudeFloor returns e with |candidate| >= 10^e when the digit counts of
// total and x alone prove it. Zero operands and cases where cancellation is
// possible report false and are left to the exact computation.
func magnitudeFloor(op string, total, x decimal.Decimal) (int64, bool) {
	if x.IsZero() {
		return 0, false
	}
	dx := intDigits(x)
	if total.IsZero() {
		if op == "add" || op == "subtract" {
			return dx - 1, true
		}
		return 0, false
	}
	dt := intDigits(total)

	switch op {
	case "add", "subtract":
		// |x| >= 10|total|, so |total ± x| >= 0.9|x|
		if dx >= dt+2 {
			return dx - 2, true
		}
	case "multiply":
		return dt + dx - 2, true
	case "percent":
		return dt + dx - 4, true
	case "percent_add", "percent_subtract":
		// |x| >= 1000, so |100 ± x| >= 0.9|x|
		if dx >= 4 {
			return dt + dx - 5, true
		}
	case "divide":
		return dt - dx - 1, true
	}
	return 0, false
}

// commit checks the magnitude bound and only then records the undo value
func (a *Accumulator) commit(op string, candidate decimal.Decimal) (decimal.Decimal, error) {
	if candidate.Abs().GreaterThan(a.maxMagnitude) {
		return decimal.Zero, ErrMagnitudeExceeded.
			WithOperation(op).
			WithDetail("candidate", a.Format(candidate)).
			WithDetail("limit", a.maxMagnitude.String())
	}

	a.undo = a.total
	a.hasUndo = true
	a.total = candidate
	return a.total, nil
}

func (a *Accumulator) quantize(d decimal.Decimal) decimal.Decimal {
	return Quantize(d, int(a.precision))
}

func (a *Accumulator) zero() decimal.Decimal {
	return Quantize(decimal.Zero, int(a.precision))
}

func withOperation(err error, op string) error {
	if e, ok := err.(*mdwerror.Error); ok {
		return e.WithOperation(op)
	}
	return err
}
