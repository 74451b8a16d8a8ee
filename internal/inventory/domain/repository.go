package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/rentalops/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, inv *Inventory) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Inventory, error)
	FindDraft(ctx context.Context, db *gorm.DB, parkID snowflake.ID) (*Inventory, error)
	// ListFinalized returns up to limit finalized inventories of a park, newest
	// first, strictly after cursor when set.
	ListFinalized(ctx context.Context, db *gorm.DB, parkID snowflake.ID, after *pagination.Cursor, limit int) ([]Inventory, error)
	// Finalize closes a draft. It reports false when the inventory was no longer a draft.
	Finalize(ctx context.Context, db *gorm.DB, id snowflake.ID, date time.Time) (bool, error)
	Touch(ctx context.Context, db *gorm.DB, id snowflake.ID, updatedAt time.Time) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error

	ListMaterials(ctx context.Context, db *gorm.DB, inventoryID snowflake.ID) ([]InventoryMaterial, error)
	CreateMaterial(ctx context.Context, db *gorm.DB, row *InventoryMaterial) error
	UpdateMaterial(ctx context.Context, db *gorm.DB, row *InventoryMaterial) error
	DeleteMaterials(ctx context.Context, db *gorm.DB, ids []snowflake.ID) error
	ReplaceUnits(ctx context.Context, db *gorm.DB, rowID snowflake.ID, units []InventoryMaterialUnit) error
	UpdateUnit(ctx context.Context, db *gorm.DB, unit *InventoryMaterialUnit) error
}
