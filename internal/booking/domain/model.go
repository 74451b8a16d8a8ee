package domain

import (
	"math"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/rentalops/internal/pricing"
	taxdomain "github.com/smallbiznis/rentalops/internal/tax/domain"
	"gorm.io/datatypes"
)

// Event is a booking: a dated rental of materials to a customer.
type Event struct {
	ID                       snowflake.ID    `gorm:"primaryKey"`
	Title                    string          `gorm:"type:varchar(191);not null"`
	Reference                *string         `gorm:"type:varchar(64)"`
	StartDate                time.Time       `gorm:"not null;index"`
	EndDate                  time.Time       `gorm:"not null"`
	IsBillable               bool            `gorm:"not null;default:true"`
	IsArchived               bool            `gorm:"not null;default:false"`
	IsDepartureInventoryDone bool            `gorm:"not null;default:false"`
	IsReturnInventoryDone    bool            `gorm:"not null;default:false"`
	DiscountRate             decimal.Decimal `gorm:"type:numeric(7,4);not null;default:0"`
	CreatedAt                time.Time       `gorm:"not null"`
	UpdatedAt                time.Time       `gorm:"not null"`
}

func (Event) TableName() string { return "events" }

// DurationDays counts the started days between start and end, at least one.
func (e Event) DurationDays() int {
	hours := e.EndDate.Sub(e.StartDate).Hours()
	days := int(math.Ceil(hours / 24))
	if days < 1 {
		return 1
	}
	return days
}

// IsEditable reports whether material lines may still change.
func (e Event) IsEditable(now time.Time) bool {
	if e.IsArchived || e.IsDepartureInventoryDone || e.IsReturnInventoryDone {
		return false
	}
	return !e.EndDate.Before(now)
}

// EventMaterial is a material line frozen at the moment it joined the booking.
type EventMaterial struct {
	ID                    snowflake.ID                           `gorm:"primaryKey"`
	EventID               snowflake.ID                           `gorm:"not null;index;uniqueIndex:ux_event_materials_material,priority:1"`
	MaterialID            *snowflake.ID                          `gorm:"uniqueIndex:ux_event_materials_material,priority:2"`
	Name                  string                                 `gorm:"type:varchar(191);not null"`
	Reference             string                                 `gorm:"type:varchar(64);not null"`
	CategoryID            *snowflake.ID                          `gorm:"index"`
	Quantity              int                                    `gorm:"not null"`
	UnitPrice             decimal.Decimal                        `gorm:"type:numeric(14,2);not null"`
	DegressiveRateID      *snowflake.ID                          `gorm:"index"`
	DegressiveRate        decimal.Decimal                        `gorm:"type:numeric(10,2);not null"`
	UnitPricePeriod       decimal.Decimal                        `gorm:"type:numeric(14,2);not null"`
	TotalWithoutDiscount  decimal.Decimal                        `gorm:"type:numeric(14,2);not null"`
	IsDiscountable        bool                                   `gorm:"not null"`
	DiscountRate          decimal.Decimal                        `gorm:"type:numeric(7,4);not null"`
	TotalDiscount         decimal.Decimal                        `gorm:"type:numeric(14,2);not null"`
	TotalWithoutTaxes     decimal.Decimal                        `gorm:"type:numeric(14,2);not null"`
	Taxes                 datatypes.JSONSlice[taxdomain.FlatTax] `gorm:"type:json"`
	TotalTaxes            decimal.Decimal                        `gorm:"type:numeric(14,2);not null"`
	TotalWithTaxes        decimal.Decimal                        `gorm:"type:numeric(14,2);not null"`
	UnitReplacementPrice  decimal.Decimal                        `gorm:"type:numeric(14,2);not null"`
	TotalReplacementPrice decimal.Decimal                        `gorm:"type:numeric(14,2);not null"`
	IsHiddenOnBill        bool                                   `gorm:"not null;default:false"`
	CreatedAt             time.Time                              `gorm:"not null"`
	UpdatedAt             time.Time                              `gorm:"not null"`
}

func (EventMaterial) TableName() string { return "event_materials" }

// Recompute refreshes every derived total from the line's frozen inputs.
func (l *EventMaterial) Recompute(eventDiscountRate decimal.Decimal) pricing.LineTotals {
	totals := pricing.ComputeLine(pricing.LineInput{
		UnitPrice:            l.UnitPrice,
		DegressiveRate:       l.DegressiveRate,
		Quantity:             l.Quantity,
		DiscountRate:         eventDiscountRate,
		IsDiscountable:       l.IsDiscountable,
		Taxes:                l.Taxes,
		UnitReplacementPrice: l.UnitReplacementPrice,
	})

	l.UnitPricePeriod = totals.UnitPricePeriod
	l.TotalWithoutDiscount = totals.TotalWithoutDiscount
	l.DiscountRate = totals.DiscountRate
	l.TotalDiscount = totals.TotalDiscount
	l.TotalWithoutTaxes = totals.TotalWithoutTaxes
	l.TotalTaxes = totals.TotalTaxes
	l.TotalWithTaxes = totals.TotalWithTaxes
	l.TotalReplacementPrice = totals.TotalReplacementPrice
	return totals
}

// SummaryLine exposes the stored totals for aggregation.
func (l EventMaterial) SummaryLine() pricing.SummaryLine {
	taxLines, _ := taxdomain.Apply(l.Taxes, l.TotalWithoutTaxes)
	return pricing.SummaryLine{
		CategoryID: l.CategoryID,
		Quantity:   l.Quantity,
		UnitPrice:  l.UnitPrice,
		Totals: pricing.LineTotals{
			UnitPricePeriod:       l.UnitPricePeriod,
			TotalWithoutDiscount:  l.TotalWithoutDiscount,
			DiscountRate:          l.DiscountRate,
			TotalDiscount:         l.TotalDiscount,
			TotalWithoutTaxes:     l.TotalWithoutTaxes,
			TaxLines:              taxLines,
			TotalTaxes:            l.TotalTaxes,
			TotalWithTaxes:        l.TotalWithTaxes,
			TotalReplacementPrice: l.TotalReplacementPrice,
		},
	}
}

// Summarize aggregates the stored lines of a booking.
func Summarize(lines []EventMaterial) pricing.Summary {
	summaryLines := make([]pricing.SummaryLine, 0, len(lines))
	for _, l := range lines {
		summaryLines = append(summaryLines, l.SummaryLine())
	}
	return pricing.Summarize(summaryLines)
}
