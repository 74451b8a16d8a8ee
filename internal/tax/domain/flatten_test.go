package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestAsFlatArraySingleTax(t *testing.T) {
	isRate := true
	value := d("20.000")
	flat := AsFlatArray(Tax{Name: "VAT", IsRate: &isRate, Value: &value})

	require.Len(t, flat, 1)
	assert.Equal(t, "VAT", flat[0].Name)
	assert.True(t, flat[0].IsRate)
	assert.True(t, flat[0].Value.Equal(d("20")))
}

func TestAsFlatArrayGroupKeepsStoredOrder(t *testing.T) {
	group := Tax{
		Name:    "Canada",
		IsGroup: true,
		Components: []Component{
			{Name: "GST", IsRate: true, Value: d("5"), Position: 0},
			{Name: "QST", IsRate: true, Value: d("9.975"), Position: 1},
			{Name: "Eco fee", IsRate: false, Value: d("1.50"), Position: 2},
		},
	}

	flat := AsFlatArray(group)
	require.Len(t, flat, 3)
	assert.Equal(t, []string{"GST", "QST", "Eco fee"}, []string{flat[0].Name, flat[1].Name, flat[2].Name})
	assert.False(t, flat[2].IsRate)
}

func TestApplyRoundsEachLineBeforeSumming(t *testing.T) {
	lines, total := Apply([]FlatTax{
		{Name: "GST", IsRate: true, Value: d("5")},
		{Name: "QST", IsRate: true, Value: d("9.975")},
		{Name: "Eco fee", IsRate: false, Value: d("1.50")},
	}, d("10.05"))

	require.Len(t, lines, 3)
	assert.Equal(t, "0.50", lines[0].Total.StringFixed(2)) // 0.5025
	assert.Equal(t, "1.00", lines[1].Total.StringFixed(2)) // 1.0024875
	assert.Equal(t, "1.50", lines[2].Total.StringFixed(2))
	assert.Equal(t, "3.00", total.StringFixed(2))
}

func TestValidateValueBounds(t *testing.T) {
	_, errs := ValidateValue(true, "100.001")
	assert.True(t, errs.Has("value"))

	_, errs = ValidateValue(true, "20.1255")
	assert.True(t, errs.Has("value"))

	_, errs = ValidateValue(false, "1.005")
	assert.True(t, errs.Has("value"))

	_, errs = ValidateValue(false, "-1")
	assert.True(t, errs.Has("value"))

	v, errs := ValidateValue(true, "19.6")
	assert.Empty(t, errs)
	assert.True(t, v.Equal(d("19.6")))
}

func TestParseComponentsCollectsRows(t *testing.T) {
	yes := true
	_, errs := ParseComponents([]ComponentInput{
		{Name: "GST", IsRate: &yes, Value: "5"},
		{Name: "", IsRate: nil, Value: "x"},
	})

	assert.True(t, errs.Has("components.1.name"))
	assert.True(t, errs.Has("components.1.is_rate"))
	assert.True(t, errs.Has("components.1.value"))
	assert.False(t, errs.Has("components.0.name"))

	_, errs = ParseComponents(nil)
	assert.True(t, errs.Has("components"))
}
