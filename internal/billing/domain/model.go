// Package domain contains the frozen billing documents issued for bookings.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	taxdomain "github.com/smallbiznis/rentalops/internal/tax/domain"
	"gorm.io/datatypes"
)

// Kind distinguishes numbered invoices from unnumbered estimates.
type Kind string

const (
	KindInvoice  Kind = "invoice"
	KindEstimate Kind = "estimate"
)

// Document is an invoice or an estimate. Every amount is copied from the booking
// at issue time and never recomputed.
type Document struct {
	ID                   snowflake.ID                           `gorm:"primaryKey"`
	Kind                 Kind                                   `gorm:"type:varchar(16);not null"`
	Number               *string                                `gorm:"type:varchar(64);uniqueIndex:ux_documents_number"`
	NumberYear           *int                                   `gorm:"uniqueIndex:ux_documents_sequence,priority:1"`
	NumberSequence       *int64                                 `gorm:"uniqueIndex:ux_documents_sequence,priority:2"`
	Date                 time.Time                              `gorm:"not null"`
	EventID              snowflake.ID                           `gorm:"not null;index"`
	BookingTitle         string                                 `gorm:"type:varchar(191);not null"`
	BookingStart         time.Time                              `gorm:"not null"`
	BookingEnd           time.Time                              `gorm:"not null"`
	DegressiveRate       decimal.Decimal                        `gorm:"type:numeric(10,2);not null"`
	DiscountRate         decimal.Decimal                        `gorm:"type:numeric(7,4);not null"`
	DailyTotal           decimal.Decimal                        `gorm:"type:numeric(14,2);not null"`
	TotalWithoutDiscount decimal.Decimal                        `gorm:"type:numeric(14,2);not null"`
	TotalDiscount        decimal.Decimal                        `gorm:"type:numeric(14,2);not null"`
	TotalWithoutTaxes    decimal.Decimal                        `gorm:"type:numeric(14,2);not null"`
	TotalTaxes           datatypes.JSONSlice[taxdomain.TaxLine] `gorm:"type:json"`
	TotalWithTaxes       decimal.Decimal                        `gorm:"type:numeric(14,2);not null"`
	TotalReplacement     decimal.Decimal                        `gorm:"type:numeric(14,2);not null"`
	Currency             string                                 `gorm:"type:varchar(3);not null"`
	AuthorID             *string                                `gorm:"type:varchar(64)"`
	CreatedAt            time.Time                              `gorm:"not null"`

	Lines []DocumentMaterial `gorm:"-"`
}

func (Document) TableName() string { return "documents" }

// TaxAmount sums the frozen tax lines.
func (d Document) TaxAmount() decimal.Decimal {
	total := decimal.Zero
	for _, t := range d.TotalTaxes {
		total = total.Add(t.Total)
	}
	return total
}

type DocumentMaterial struct {
	ID                    snowflake.ID                           `gorm:"primaryKey"`
	DocumentID            snowflake.ID                           `gorm:"not null;index"`
	MaterialID            *snowflake.ID                          `gorm:"index"`
	Name                  string                                 `gorm:"type:varchar(191);not null"`
	Reference             string                                 `gorm:"type:varchar(64);not null"`
	CategoryID            *snowflake.ID                          `gorm:"index"`
	Position              int                                    `gorm:"not null;default:0"`
	Quantity              int                                    `gorm:"not null"`
	UnitPrice             decimal.Decimal                        `gorm:"type:numeric(14,2);not null"`
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
}

func (DocumentMaterial) TableName() string { return "document_materials" }
