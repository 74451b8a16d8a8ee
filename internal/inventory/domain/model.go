package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Inventory is a stock count of a park. While IsTmp it is a draft that can be
// edited; once terminated it is an immutable record.
//
// DraftParkID holds the park id while the inventory is a draft and is cleared on
// termination. Its unique index allows a single draft per park.
type Inventory struct {
	ID          snowflake.ID  `gorm:"primaryKey"`
	ParkID      snowflake.ID  `gorm:"not null;index"`
	DraftParkID *snowflake.ID `gorm:"uniqueIndex:ux_inventories_draft"`
	IsTmp       bool          `gorm:"not null"`
	Date        *time.Time    `gorm:"index"`
	AuthorID    *string       `gorm:"type:varchar(64)"`
	CreatedAt   time.Time     `gorm:"not null"`
	UpdatedAt   time.Time     `gorm:"not null"`
}

func (Inventory) TableName() string { return "inventories" }

// InventoryMaterial is the count of one material. Quantities stay null for
// unitary materials, whose units are counted one by one.
type InventoryMaterial struct {
	ID                         snowflake.ID `gorm:"primaryKey"`
	InventoryID                snowflake.ID `gorm:"not null;uniqueIndex:ux_inventory_materials_material,priority:1"`
	MaterialID                 snowflake.ID `gorm:"not null;uniqueIndex:ux_inventory_materials_material,priority:2"`
	Name                       string       `gorm:"type:varchar(191);not null"`
	Reference                  string       `gorm:"type:varchar(64);not null"`
	IsUnitary                  bool         `gorm:"not null"`
	IsNew                      bool         `gorm:"not null"`
	StockQuantityPrevious      *int
	StockQuantityCurrent       *int
	OutOfOrderQuantityPrevious *int
	OutOfOrderQuantityCurrent  *int

	Units []InventoryMaterialUnit `gorm:"-"`
}

func (InventoryMaterial) TableName() string { return "inventory_materials" }

type InventoryMaterialUnit struct {
	ID                  snowflake.ID `gorm:"primaryKey"`
	InventoryMaterialID snowflake.ID `gorm:"not null;index"`
	MaterialUnitID      snowflake.ID `gorm:"not null"`
	Reference           string       `gorm:"type:varchar(64);not null"`
	IsNew               bool         `gorm:"not null"`
	IsLostPrevious      *bool
	IsLostCurrent       bool `gorm:"not null"`
	IsBrokenPrevious    *bool
	IsBrokenCurrent     bool    `gorm:"not null"`
	StatePrevious       *string `gorm:"type:varchar(64)"`
	StateCurrent        string  `gorm:"type:varchar(64);not null"`
}

func (InventoryMaterialUnit) TableName() string { return "inventory_material_units" }
