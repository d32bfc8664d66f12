package domain

import (
	"github.com/shopspring/decimal"
)

// percentPrecision is the number of decimal places kept on reported percentages.
const percentPrecision = 2

var hundred = decimal.NewFromInt(100)

// SafeParse parses a string into a decimal, returning zero for invalid or empty input.
func SafeParse(value string) decimal.Decimal {
	if value == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// SafeDiv divides a by b, returning zero when b is zero.
func SafeDiv(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.Div(b)
}

// PercentOf returns part/whole × 100, or zero when whole is zero.
func PercentOf(part, whole decimal.Decimal) decimal.Decimal {
	return SafeDiv(part, whole).Mul(hundred)
}

// RoundPercent rounds a percentage to two decimal places.
func RoundPercent(p decimal.Decimal) decimal.Decimal {
	return p.Round(percentPrecision)
}

// DecimalPtr returns a pointer to d.
func DecimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

// DecimalOrZero dereferences d, treating nil as zero.
func DecimalOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
