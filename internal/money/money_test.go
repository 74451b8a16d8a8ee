package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCeilRoundsUp(t *testing.T) {
	d := decimal.RequireFromString("4.5252")
	assert.Equal(t, "4.53", Ceil(d, 2).StringFixed(2))

	d = decimal.RequireFromString("4.5200")
	assert.Equal(t, "4.52", Ceil(d, 2).StringFixed(2))
}

func TestHalfUp(t *testing.T) {
	assert.Equal(t, "1.13", HalfUp(decimal.RequireFromString("1.125"), 2).StringFixed(2))
	assert.Equal(t, "1.12", HalfUp(decimal.RequireFromString("1.1249"), 2).StringFixed(2))
}

func TestExact(t *testing.T) {
	got, err := Exact(decimal.RequireFromString("1.750"), 2)
	require.NoError(t, err)
	assert.Equal(t, "1.75", got.StringFixed(2))

	_, err = Exact(decimal.RequireFromString("1.755"), 2)
	assert.ErrorIs(t, err, ErrRoundingNecessary)
}

func TestPlacesIgnoresTrailingZeros(t *testing.T) {
	assert.Equal(t, int32(0), Places(decimal.RequireFromString("12")))
	assert.Equal(t, int32(1), Places(decimal.RequireFromString("1.50")))
	assert.Equal(t, int32(3), Places(decimal.RequireFromString("20.125")))
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "100.00", Amount(decimal.NewFromInt(100)))
	assert.Equal(t, "20.000", TaxValue(decimal.NewFromInt(20), true))
	assert.Equal(t, "5.00", TaxValue(decimal.NewFromInt(5), false))
	assert.Equal(t, "0.0000", Discount(decimal.Zero))
}

func TestParse(t *testing.T) {
	_, err := Parse("  ")
	assert.ErrorIs(t, err, ErrInvalidDecimal)

	_, err = Parse("abc")
	assert.ErrorIs(t, err, ErrInvalidDecimal)

	d, err := Parse("12.5")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("12.50")))
}
