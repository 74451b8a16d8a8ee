package domain

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/rentalops/internal/money"
)

// AsFlatArray expands a group into its components in stored order; any other tax
// becomes a single entry.
func AsFlatArray(tax Tax) []FlatTax {
	if tax.IsGroup {
		out := make([]FlatTax, 0, len(tax.Components))
		for _, c := range tax.Components {
			out = append(out, FlatTax{Name: c.Name, IsRate: c.IsRate, Value: c.Value})
		}
		return out
	}

	flat := FlatTax{Name: tax.Name}
	if tax.IsRate != nil {
		flat.IsRate = *tax.IsRate
	}
	if tax.Value != nil {
		flat.Value = *tax.Value
	}
	return []FlatTax{flat}
}

// Apply computes each tax against base. Every contribution is rounded half-up to
// the cent before being summed.
func Apply(flat []FlatTax, base decimal.Decimal) ([]TaxLine, decimal.Decimal) {
	lines := make([]TaxLine, 0, len(flat))
	total := decimal.Zero
	for _, t := range flat {
		contribution := t.Value
		if t.IsRate {
			contribution = money.Percent(base, t.Value)
		}
		contribution = money.HalfUp(contribution, money.AmountScale)

		lines = append(lines, TaxLine{
			Name:   t.Name,
			IsRate: t.IsRate,
			Value:  t.Value,
			Total:  contribution,
		})
		total = total.Add(contribution)
	}
	return lines, total
}

func ToFlatTaxResponses(flat []FlatTax) []FlatTaxResponse {
	out := make([]FlatTaxResponse, 0, len(flat))
	for _, t := range flat {
		out = append(out, FlatTaxResponse{
			Name:   t.Name,
			IsRate: t.IsRate,
			Value:  money.TaxValue(t.Value, t.IsRate),
		})
	}
	return out
}

func ToTaxLineResponses(lines []TaxLine) []TaxLineResponse {
	out := make([]TaxLineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, TaxLineResponse{
			Name:   l.Name,
			IsRate: l.IsRate,
			Value:  money.TaxValue(l.Value, l.IsRate),
			Total:  money.Amount(l.Total),
		})
	}
	return out
}
