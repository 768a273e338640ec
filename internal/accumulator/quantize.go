package accumulator

import (
	"github.com/shopspring/decimal"
)

// Quantize rounds d to places fractional digits using round-half-to-even
func Quantize(d decimal.Decimal, places int) decimal.Decimal {
	return d.RoundBank(int32(places))
}

// percentOf returns total * pct / 100, exactly
func percentOf(total, pct decimal.Decimal) decimal.Decimal {
	return total.Mul(pct).Shift(-2)
}

// quoBank returns n / d rounded half-to-even at places fractional digits.
// QuoRem yields the quotient truncated toward zero together with its exact
// remainder, so ties are detected without any intermediate rounding.
func quoBank(n, d decimal.Decimal, places int32) decimal.Decimal {
	q, r := n.QuoRem(d, places)
	if r.IsZero() {
		return q
	}

	unit := decimal.New(1, -places)
	cmp := r.Abs().Mul(two).Cmp(d.Abs().Mul(unit))
	if cmp < 0 || (cmp == 0 && isEven(q, places)) {
		return q
	}
	if n.Sign()*d.Sign() < 0 {
		return q.Sub(unit)
	}
	return q.Add(unit)
}

// isEven reports whether the last retained digit of q is even
func isEven(q decimal.Decimal, places int32) bool {
	digits := q.Shift(places).BigInt()
	return digits.Abs(digits).Bit(0) == 0
}
