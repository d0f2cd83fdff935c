// Package fixedpoint converts between the protocol's signed 8-decimal
// fixed-point representation (int64 in 1e-8 units, carried in every trade
// and order TLV) and exact decimal values.
package fixedpoint

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Decimals is the protocol-wide fixed-point scale.
const Decimals = 8

// ErrOutOfRange is returned when a value cannot fit in an int64 at 1e-8.
var ErrOutOfRange = errors.New("fixedpoint: value out of range")

var scale = decimal.New(1, Decimals)

// FromDecimal converts an exact decimal to fixed point, truncating any
// precision beyond 8 decimals toward zero.
func FromDecimal(d decimal.Decimal) (int64, error) {
	v := d.Mul(scale).Truncate(0)
	if !v.BigInt().IsInt64() {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, d)
	}
	return v.BigInt().Int64(), nil
}

// FromInt converts a whole number of units to fixed point. Overflows past
// ~92 billion units; callers with larger values go through FromDecimal.
func FromInt(n int64) int64 {
	return n * 100_000_000
}

// ToDecimal converts a fixed-point value back to an exact decimal.
func ToDecimal(v int64) decimal.Decimal {
	return decimal.New(v, -Decimals)
}

// Parse converts an exchange-style decimal string ("45000.00") to fixed
// point without ever passing through float64.
func Parse(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("fixedpoint: %w", err)
	}
	return FromDecimal(d)
}

// Format renders a fixed-point value as a decimal string with trailing
// zeros trimmed.
func Format(v int64) string {
	return ToDecimal(v).String()
}

// Mul multiplies two fixed-point values exactly and reports overflow.
func Mul(a, b int64) (int64, error) {
	r := ToDecimal(a).Mul(ToDecimal(b))
	return FromDecimal(r)
}
