// Package pricing derives booking line totals and booking-level summaries.
package pricing

import (
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/rentalops/internal/money"
	taxdomain "github.com/smallbiznis/rentalops/internal/tax/domain"
)

// LineInput holds the frozen attributes a line total depends on.
type LineInput struct {
	UnitPrice            decimal.Decimal
	DegressiveRate       decimal.Decimal
	Quantity             int
	DiscountRate         decimal.Decimal
	IsDiscountable       bool
	Taxes                []taxdomain.FlatTax
	UnitReplacementPrice decimal.Decimal
}

// LineTotals are the derived amounts of a booking line.
type LineTotals struct {
	UnitPricePeriod       decimal.Decimal
	TotalWithoutDiscount  decimal.Decimal
	DiscountRate          decimal.Decimal
	TotalDiscount         decimal.Decimal
	TotalWithoutTaxes     decimal.Decimal
	TaxLines              []taxdomain.TaxLine
	TotalTaxes            decimal.Decimal
	TotalWithTaxes        decimal.Decimal
	TotalReplacementPrice decimal.Decimal
}

// ComputeLine prices one line.
func ComputeLine(in LineInput) LineTotals {
	quantity := decimal.NewFromInt(int64(in.Quantity))

	unitPricePeriod := money.HalfUp(in.UnitPrice.Mul(in.DegressiveRate), money.AmountScale)
	totalWithoutDiscount := unitPricePeriod.Mul(quantity)

	discountRate := decimal.Zero
	totalDiscount := decimal.Zero
	if in.IsDiscountable {
		discountRate = in.DiscountRate
		totalDiscount = money.HalfUp(money.Percent(totalWithoutDiscount, discountRate), money.AmountScale)
	}
	totalWithoutTaxes := totalWithoutDiscount.Sub(totalDiscount)

	taxLines, totalTaxes := taxdomain.Apply(in.Taxes, totalWithoutTaxes)

	return LineTotals{
		UnitPricePeriod:       unitPricePeriod,
		TotalWithoutDiscount:  totalWithoutDiscount,
		DiscountRate:          discountRate,
		TotalDiscount:         totalDiscount,
		TotalWithoutTaxes:     totalWithoutTaxes,
		TaxLines:              taxLines,
		TotalTaxes:            totalTaxes,
		TotalWithTaxes:        totalWithoutTaxes.Add(totalTaxes),
		TotalReplacementPrice: in.UnitReplacementPrice.Mul(quantity),
	}
}

// SummaryLine is a priced line as seen by Summarize.
type SummaryLine struct {
	CategoryID *snowflake.ID
	Quantity   int
	UnitPrice  decimal.Decimal
	Totals     LineTotals
}

type CategorySubtotal struct {
	CategoryID        *snowflake.ID
	Quantity          int
	TotalWithoutTaxes decimal.Decimal
}

type Summary struct {
	Categories            []CategorySubtotal
	DailyTotal            decimal.Decimal
	TotalWithoutDiscount  decimal.Decimal
	TotalDiscount         decimal.Decimal
	TotalWithoutTaxes     decimal.Decimal
	Taxes                 []taxdomain.TaxLine
	TotalTaxes            decimal.Decimal
	TotalWithTaxes        decimal.Decimal
	TotalReplacementPrice decimal.Decimal
}

// EffectiveDegressiveRate is the booking-wide multiplier implied by the summary.
func (s Summary) EffectiveDegressiveRate() decimal.Decimal {
	if s.DailyTotal.IsZero() {
		return decimal.Zero
	}
	return money.HalfUp(s.TotalWithoutDiscount.Div(s.DailyTotal), money.AmountScale)
}

type taxKey struct {
	name   string
	isRate bool
	value  string
}

// Summarize aggregates lines bottom-up. Categories and merged taxes keep the
// order in which they first appear.
func Summarize(lines []SummaryLine) Summary {
	summary := Summary{
		DailyTotal:            decimal.Zero,
		TotalWithoutDiscount:  decimal.Zero,
		TotalDiscount:         decimal.Zero,
		TotalWithoutTaxes:     decimal.Zero,
		TotalTaxes:            decimal.Zero,
		TotalWithTaxes:        decimal.Zero,
		TotalReplacementPrice: decimal.Zero,
	}

	categoryIndex := make(map[snowflake.ID]int)
	uncategorized := -1
	taxIndex := make(map[taxKey]int)

	for _, line := range lines {
		quantity := decimal.NewFromInt(int64(line.Quantity))
		summary.DailyTotal = summary.DailyTotal.Add(line.UnitPrice.Mul(quantity))
		summary.TotalWithoutDiscount = summary.TotalWithoutDiscount.Add(line.Totals.TotalWithoutDiscount)
		summary.TotalDiscount = summary.TotalDiscount.Add(line.Totals.TotalDiscount)
		summary.TotalWithoutTaxes = summary.TotalWithoutTaxes.Add(line.Totals.TotalWithoutTaxes)
		summary.TotalTaxes = summary.TotalTaxes.Add(line.Totals.TotalTaxes)
		summary.TotalWithTaxes = summary.TotalWithTaxes.Add(line.Totals.TotalWithTaxes)
		summary.TotalReplacementPrice = summary.TotalReplacementPrice.Add(line.Totals.TotalReplacementPrice)

		idx := -1
		if line.CategoryID == nil {
			if uncategorized < 0 {
				uncategorized = len(summary.Categories)
				summary.Categories = append(summary.Categories, CategorySubtotal{TotalWithoutTaxes: decimal.Zero})
			}
			idx = uncategorized
		} else {
			i, ok := categoryIndex[*line.CategoryID]
			if !ok {
				i = len(summary.Categories)
				categoryIndex[*line.CategoryID] = i
				id := *line.CategoryID
				summary.Categories = append(summary.Categories, CategorySubtotal{CategoryID: &id, TotalWithoutTaxes: decimal.Zero})
			}
			idx = i
		}
		summary.Categories[idx].Quantity += line.Quantity
		summary.Categories[idx].TotalWithoutTaxes = summary.Categories[idx].TotalWithoutTaxes.Add(line.Totals.TotalWithoutTaxes)

		for _, t := range line.Totals.TaxLines {
			key := taxKey{name: t.Name, isRate: t.IsRate, value: t.Value.String()}
			i, ok := taxIndex[key]
			if !ok {
				taxIndex[key] = len(summary.Taxes)
				summary.Taxes = append(summary.Taxes, t)
				continue
			}
			summary.Taxes[i].Total = summary.Taxes[i].Total.Add(t.Total)
		}
	}

	return summary
}
