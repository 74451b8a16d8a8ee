package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Tax is either a single rate/amount or a group of components applied together.
// Groups store no rate or value of their own.
type Tax struct {
	ID        snowflake.ID     `gorm:"primaryKey"`
	Name      string           `gorm:"type:varchar(191);not null;uniqueIndex:ux_taxes_name"`
	IsGroup   bool             `gorm:"not null;default:false"`
	IsRate    *bool            `gorm:"column:is_rate"`
	Value     *decimal.Decimal `gorm:"type:numeric(10,3)"`
	CreatedAt time.Time        `gorm:"not null"`
	UpdatedAt time.Time        `gorm:"not null"`

	Components []Component `gorm:"-"`
}

func (Tax) TableName() string { return "taxes" }

type Component struct {
	ID       snowflake.ID    `gorm:"primaryKey"`
	TaxID    snowflake.ID    `gorm:"not null;index"`
	Name     string          `gorm:"type:varchar(191);not null"`
	IsRate   bool            `gorm:"not null"`
	Value    decimal.Decimal `gorm:"type:numeric(10,3);not null"`
	Position int             `gorm:"not null;default:0"`
}

func (Component) TableName() string { return "tax_components" }

// FlatTax is one applicable rate or amount, as frozen onto booking lines and documents.
type FlatTax struct {
	Name   string          `json:"name"`
	IsRate bool            `json:"is_rate"`
	Value  decimal.Decimal `json:"value"`
}

// TaxLine is a FlatTax with its computed contribution.
type TaxLine struct {
	Name   string          `json:"name"`
	IsRate bool            `json:"is_rate"`
	Value  decimal.Decimal `json:"value"`
	Total  decimal.Decimal `json:"total"`
}
