package domain

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/rentalops/internal/money"
	"github.com/smallbiznis/rentalops/internal/validation"
)

var hundred = decimal.NewFromInt(100)

// ValidateName checks the rate's display name.
func ValidateName(name string) validation.Errors {
	var errs validation.Errors
	if strings.TrimSpace(name) == "" {
		errs.Add("name", validation.CodeRequired, "name is required")
	}
	return errs
}

// ParseTiers converts tier inputs, reporting every invalid row under tiers.<i>.
func ParseTiers(inputs []TierInput) ([]Tier, validation.Errors) {
	var errs validation.Errors
	tiers := make([]Tier, 0, len(inputs))
	seen := make(map[int]int, len(inputs))

	for i, in := range inputs {
		row := validation.Join("tiers", strconv.Itoa(i))
		var rowErrs validation.Errors

		if in.FromDay < 1 {
			rowErrs.Add("from_day", validation.CodeOutOfRange, "from_day must be at least 1")
		} else if prev, dup := seen[in.FromDay]; dup {
			rowErrs.Add("from_day", validation.CodeAlreadyExists, "from_day duplicates tier "+strconv.Itoa(prev))
		} else {
			seen[in.FromDay] = i
		}

		value, err := money.Parse(in.Value)
		if err != nil {
			rowErrs.Add("value", validation.CodeInvalid, "value must be a decimal number")
		} else {
			rowErrs.Merge("", validateTierValue(in.IsRate, value))
		}

		if len(rowErrs) > 0 {
			errs.Merge(row, rowErrs)
			continue
		}
		tiers = append(tiers, Tier{FromDay: in.FromDay, IsRate: in.IsRate, Value: value})
	}

	if len(errs) > 0 {
		return nil, errs
	}
	SortTiers(tiers)
	return tiers, nil
}

func validateTierValue(isRate bool, value decimal.Decimal) validation.Errors {
	var errs validation.Errors
	if value.IsNegative() {
		errs.Add("value", validation.CodeOutOfRange, "value cannot be negative")
		return errs
	}
	if isRate {
		if value.GreaterThan(hundred) {
			errs.Add("value", validation.CodeOutOfRange, "rate must be between 0 and 100")
		}
		if money.Places(value) > money.TaxValueScale {
			errs.Add("value", validation.CodeInvalid, "rate accepts at most 3 decimals")
		}
		return errs
	}
	if money.Places(value) > money.AmountScale {
		errs.Add("value", validation.CodeInvalid, "value accepts at most 2 decimals")
	}
	return errs
}

// SortTiers orders tiers by ascending FromDay.
func SortTiers(tiers []Tier) {
	sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].FromDay < tiers[j].FromDay })
}
