// Package money holds the decimal rounding rules shared by pricing, taxes and billing.
package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// AmountScale is the number of decimals carried by monetary amounts.
	AmountScale int32 = 2
	// TaxValueScale is the number of decimals carried by tax rates.
	TaxValueScale int32 = 3
	// DiscountScale is the number of decimals carried by discount rates.
	DiscountScale int32 = 4
)

var (
	ErrRoundingNecessary = errors.New("rounding_necessary")
	ErrInvalidDecimal    = errors.New("invalid_decimal")
)

var hundred = decimal.NewFromInt(100)

// Ceil rounds toward positive infinity at the given scale.
func Ceil(d decimal.Decimal, scale int32) decimal.Decimal {
	return d.RoundCeil(scale)
}

// HalfUp rounds half away from zero at the given scale.
func HalfUp(d decimal.Decimal, scale int32) decimal.Decimal {
	return d.Round(scale)
}

// Exact returns d at the given scale, failing when digits would be lost.
func Exact(d decimal.Decimal, scale int32) (decimal.Decimal, error) {
	truncated := d.Truncate(scale)
	if !truncated.Equal(d) {
		return decimal.Zero, ErrRoundingNecessary
	}
	return truncated, nil
}

// Percent returns base × rate / 100 without rounding.
func Percent(base, rate decimal.Decimal) decimal.Decimal {
	return base.Mul(rate).Div(hundred)
}

// Places returns the number of significant fractional digits of d.
func Places(d decimal.Decimal) int32 {
	s := d.String()
	idx := strings.IndexByte(s, '.')
	if idx < 0 {
		return 0
	}
	return int32(len(s) - idx - 1)
}

// Parse reads a decimal from its string form.
func Parse(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, ErrInvalidDecimal
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, ErrInvalidDecimal
	}
	return d, nil
}

// Amount formats a monetary value with two decimals.
func Amount(d decimal.Decimal) string {
	return d.StringFixed(AmountScale)
}

// TaxValue formats a tax value: three decimals for rates, two for flat amounts.
func TaxValue(d decimal.Decimal, isRate bool) string {
	if isRate {
		return d.StringFixed(TaxValueScale)
	}
	return d.StringFixed(AmountScale)
}

// Discount formats a discount rate with four decimals.
func Discount(d decimal.Decimal) string {
	return d.StringFixed(DiscountScale)
}

// Sum adds every value.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
