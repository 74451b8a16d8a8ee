package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	inventorydomain "github.com/smallbiznis/rentalops/internal/inventory/domain"
	"github.com/smallbiznis/rentalops/pkg/db/pagination"
	"gorm.io/gorm"
)

const inventoryColumns = `id, park_id, draft_park_id, is_tmp, date, author_id, created_at, updated_at`

type repository struct{}

func NewRepository() inventorydomain.Repository {
	return &repository{}
}

func (r *repository) Create(ctx context.Context, db *gorm.DB, inv *inventorydomain.Inventory) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO inventories (`+inventoryColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID,
		inv.ParkID,
		inv.DraftParkID,
		inv.IsTmp,
		inv.Date,
		inv.AuthorID,
		inv.CreatedAt,
		inv.UpdatedAt,
	).Error
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*inventorydomain.Inventory, error) {
	var inv inventorydomain.Inventory
	err := db.WithContext(ctx).Raw(
		`SELECT `+inventoryColumns+` FROM inventories WHERE id = ?`,
		id,
	).Scan(&inv).Error
	if err != nil {
		return nil, err
	}
	if inv.ID == 0 {
		return nil, nil
	}
	return &inv, nil
}

func (r *repository) FindDraft(ctx context.Context, db *gorm.DB, parkID snowflake.ID) (*inventorydomain.Inventory, error) {
	var inv inventorydomain.Inventory
	err := db.WithContext(ctx).Raw(
		`SELECT `+inventoryColumns+` FROM inventories WHERE draft_park_id = ?`,
		parkID,
	).Scan(&inv).Error
	if err != nil {
		return nil, err
	}
	if inv.ID == 0 {
		return nil, nil
	}
	return &inv, nil
}

func (r *repository) ListFinalized(ctx context.Context, db *gorm.DB, parkID snowflake.ID, after *pagination.Cursor, limit int) ([]inventorydomain.Inventory, error) {
	var items []inventorydomain.Inventory
	stmt := db.WithContext(ctx).
		Model(&inventorydomain.Inventory{}).
		Where("park_id = ? AND is_tmp = ?", parkID, false)
	if after != nil {
		afterID, err := snowflake.ParseString(after.ID)
		if err != nil {
			return nil, pagination.ErrInvalidPageToken
		}
		stmt = stmt.Where("(date < ? OR (date = ? AND id < ?))", after.At, after.At, afterID)
	}
	err := stmt.
		Order("date desc, id desc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) Finalize(ctx context.Context, db *gorm.DB, id snowflake.ID, date time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE inventories
		 SET is_tmp = ?, draft_park_id = NULL, date = ?, updated_at = ?
		 WHERE id = ? AND is_tmp = ?`,
		false,
		date,
		date,
		id,
		true,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) Touch(ctx context.Context, db *gorm.DB, id snowflake.ID, updatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE inventories SET updated_at = ? WHERE id = ?`,
		updatedAt,
		id,
	).Error
}

func (r *repository) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	err := db.WithContext(ctx).Exec(
		`DELETE FROM inventory_material_units
		 WHERE inventory_material_id IN (SELECT id FROM inventory_materials WHERE inventory_id = ?)`,
		id,
	).Error
	if err != nil {
		return err
	}
	if err := db.WithContext(ctx).Exec(`DELETE FROM inventory_materials WHERE inventory_id = ?`, id).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(`DELETE FROM inventories WHERE id = ?`, id).Error
}

func (r *repository) ListMaterials(ctx context.Context, db *gorm.DB, inventoryID snowflake.ID) ([]inventorydomain.InventoryMaterial, error) {
	var rows []inventorydomain.InventoryMaterial
	err := db.WithContext(ctx).
		Where("inventory_id = ?", inventoryID).
		Order("reference ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return rows, nil
	}

	ids := make([]snowflake.ID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	var units []inventorydomain.InventoryMaterialUnit
	err = db.WithContext(ctx).
		Where("inventory_material_id IN ?", ids).
		Order("reference ASC").
		Find(&units).Error
	if err != nil {
		return nil, err
	}

	index := make(map[snowflake.ID]int, len(rows))
	for i, row := range rows {
		index[row.ID] = i
	}
	for _, u := range units {
		i := index[u.InventoryMaterialID]
		rows[i].Units = append(rows[i].Units, u)
	}
	return rows, nil
}

func (r *repository) CreateMaterial(ctx context.Context, db *gorm.DB, row *inventorydomain.InventoryMaterial) error {
	return db.WithContext(ctx).Create(row).Error
}

func (r *repository) UpdateMaterial(ctx context.Context, db *gorm.DB, row *inventorydomain.InventoryMaterial) error {
	return db.WithContext(ctx).
		Model(row).
		Select("*").
		Omit("id", "inventory_id", "material_id").
		Updates(row).Error
}

func (r *repository) DeleteMaterials(ctx context.Context, db *gorm.DB, ids []snowflake.ID) error {
	if len(ids) == 0 {
		return nil
	}
	if err := db.WithContext(ctx).Exec(`DELETE FROM inventory_material_units WHERE inventory_material_id IN ?`, ids).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(`DELETE FROM inventory_materials WHERE id IN ?`, ids).Error
}

func (r *repository) ReplaceUnits(ctx context.Context, db *gorm.DB, rowID snowflake.ID, units []inventorydomain.InventoryMaterialUnit) error {
	if err := db.WithContext(ctx).Exec(`DELETE FROM inventory_material_units WHERE inventory_material_id = ?`, rowID).Error; err != nil {
		return err
	}
	if len(units) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&units).Error
}

func (r *repository) UpdateUnit(ctx context.Context, db *gorm.DB, unit *inventorydomain.InventoryMaterialUnit) error {
	return db.WithContext(ctx).
		Model(unit).
		Select("*").
		Omit("id", "inventory_material_id", "material_unit_id").
		Updates(unit).Error
}
