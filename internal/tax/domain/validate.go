package domain

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/rentalops/internal/money"
	"github.com/smallbiznis/rentalops/internal/validation"
)

var hundred = decimal.NewFromInt(100)

// ValidateValue checks a rate (0 to 100, three decimals) or a flat amount
// (non-negative, two decimals). Field names are relative to the owning row.
func ValidateValue(isRate bool, raw string) (decimal.Decimal, validation.Errors) {
	var errs validation.Errors

	value, err := money.Parse(raw)
	if err != nil {
		errs.Add("value", validation.CodeInvalid, "value must be a decimal number")
		return decimal.Zero, errs
	}
	if value.IsNegative() {
		errs.Add("value", validation.CodeOutOfRange, "value cannot be negative")
		return decimal.Zero, errs
	}

	if isRate {
		if value.GreaterThan(hundred) {
			errs.Add("value", validation.CodeOutOfRange, "rate must be between 0 and 100")
		}
		if money.Places(value) > money.TaxValueScale {
			errs.Add("value", validation.CodeInvalid, "rate accepts at most 3 decimals")
		}
	} else if money.Places(value) > money.AmountScale {
		errs.Add("value", validation.CodeInvalid, "amount accepts at most 2 decimals")
	}

	if len(errs) > 0 {
		return decimal.Zero, errs
	}
	return value, nil
}

// ParseComponents converts group component inputs, reporting invalid rows under components.<i>.
func ParseComponents(inputs []ComponentInput) ([]Component, validation.Errors) {
	var errs validation.Errors
	if len(inputs) == 0 {
		errs.Add("components", validation.CodeRequired, "a tax group needs at least one component")
		return nil, errs
	}

	components := make([]Component, 0, len(inputs))
	for i, in := range inputs {
		var rowErrs validation.Errors

		name := strings.TrimSpace(in.Name)
		if name == "" {
			rowErrs.Add("name", validation.CodeRequired, "name is required")
		}
		isRate := in.IsRate != nil && *in.IsRate
		if in.IsRate == nil {
			rowErrs.Add("is_rate", validation.CodeRequired, "is_rate is required")
		}
		value, valueErrs := ValidateValue(isRate, in.Value)
		rowErrs = append(rowErrs, valueErrs...)

		if len(rowErrs) > 0 {
			errs.Merge(validation.Join("components", strconv.Itoa(i)), rowErrs)
			continue
		}
		components = append(components, Component{
			Name:     name,
			IsRate:   isRate,
			Value:    value,
			Position: i,
		})
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return components, nil
}
