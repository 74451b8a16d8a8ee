package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
)

const maxReferenceLength = 64

type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// Material is a catalog entry rented out as a quantity or as serialized units.
type Material struct {
	ID                 snowflake.ID    `gorm:"primaryKey"`
	Name               string          `gorm:"type:varchar(191);not null"`
	Reference          string          `gorm:"type:varchar(64);not null;uniqueIndex:ux_materials_reference"`
	ParkID             snowflake.ID    `gorm:"not null;index"`
	CategoryID         *snowflake.ID   `gorm:"index"`
	IsUnitary          bool            `gorm:"not null;default:false"`
	StockQuantity      int             `gorm:"not null;default:0"`
	OutOfOrderQuantity int             `gorm:"not null;default:0"`
	RentalPrice        decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	ReplacementPrice   decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	DegressiveRateID   *snowflake.ID   `gorm:"index"`
	TaxID              *snowflake.ID   `gorm:"index"`
	IsDiscountable     bool            `gorm:"not null;default:true"`
	IsHiddenOnBill     bool            `gorm:"not null;default:false"`
	Status             Status          `gorm:"type:varchar(16);not null;default:'active'"`
	ArchivedAt         *time.Time
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time `gorm:"not null"`
}

func (Material) TableName() string { return "materials" }

// ReferenceOrSlug keeps an explicit reference and otherwise derives one from the name.
func ReferenceOrSlug(reference, name string) string {
	if ref := strings.TrimSpace(reference); ref != "" {
		return ref
	}
	ref := strings.ToUpper(slug.Make(name))
	if len(ref) > maxReferenceLength {
		ref = strings.TrimRight(ref[:maxReferenceLength], "-")
	}
	return ref
}

func (m *Material) IsArchived() bool {
	return m.Status == StatusArchived
}

// MaterialUnit is one serialized item of a unitary material.
type MaterialUnit struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	MaterialID snowflake.ID `gorm:"not null;uniqueIndex:ux_material_units_reference,priority:1"`
	ParkID     snowflake.ID `gorm:"not null;index"`
	Reference  string       `gorm:"type:varchar(64);not null;uniqueIndex:ux_material_units_reference,priority:2"`
	IsLost     bool         `gorm:"not null;default:false"`
	IsBroken   bool         `gorm:"not null;default:false"`
	State      string       `gorm:"type:varchar(64);not null"`
	CreatedAt  time.Time    `gorm:"not null"`
	UpdatedAt  time.Time    `gorm:"not null"`
}

func (MaterialUnit) TableName() string { return "material_units" }

// DeriveUnitQuantities returns the stock and out-of-order counts of a unitary material.
// Lost units leave the stock; broken units count in both.
func DeriveUnitQuantities(units []MaterialUnit) (stock, outOfOrder int) {
	for _, u := range units {
		if u.IsLost {
			continue
		}
		stock++
		if u.IsBroken {
			outOfOrder++
		}
	}
	return stock, outOfOrder
}
