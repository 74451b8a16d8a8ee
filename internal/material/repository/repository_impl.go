package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	materialdomain "github.com/smallbiznis/rentalops/internal/material/domain"
	"github.com/smallbiznis/rentalops/pkg/db/option"
	"gorm.io/gorm"
)

const materialColumns = `id, name, reference, park_id, category_id, is_unitary, stock_quantity,
	out_of_order_quantity, rental_price, replacement_price, degressive_rate_id, tax_id,
	is_discountable, is_hidden_on_bill, status, archived_at, created_at, updated_at`

type repository struct{}

func NewRepository() materialdomain.Repository {
	return &repository{}
}

func (r *repository) Create(ctx context.Context, db *gorm.DB, m *materialdomain.Material) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO materials (`+materialColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID,
		m.Name,
		m.Reference,
		m.ParkID,
		m.CategoryID,
		m.IsUnitary,
		m.StockQuantity,
		m.OutOfOrderQuantity,
		m.RentalPrice,
		m.ReplacementPrice,
		m.DegressiveRateID,
		m.TaxID,
		m.IsDiscountable,
		m.IsHiddenOnBill,
		m.Status,
		m.ArchivedAt,
		m.CreatedAt,
		m.UpdatedAt,
	).Error
}

func (r *repository) CreateUnits(ctx context.Context, db *gorm.DB, units []materialdomain.MaterialUnit) error {
	if len(units) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&units).Error
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*materialdomain.Material, error) {
	var m materialdomain.Material
	err := db.WithContext(ctx).Raw(
		`SELECT `+materialColumns+` FROM materials WHERE id = ?`,
		id,
	).Scan(&m).Error
	if err != nil {
		return nil, err
	}
	if m.ID == 0 {
		return nil, nil
	}
	return &m, nil
}

func (r *repository) FindByReference(ctx context.Context, db *gorm.DB, reference string) (*materialdomain.Material, error) {
	var m materialdomain.Material
	err := db.WithContext(ctx).Raw(
		`SELECT `+materialColumns+` FROM materials WHERE reference = ?`,
		reference,
	).Scan(&m).Error
	if err != nil {
		return nil, err
	}
	if m.ID == 0 {
		return nil, nil
	}
	return &m, nil
}

func (r *repository) List(ctx context.Context, db *gorm.DB, filter materialdomain.ListFilter) ([]materialdomain.Material, error) {
	var items []materialdomain.Material
	stmt := db.WithContext(ctx).Model(&materialdomain.Material{})
	if filter.ParkID != 0 {
		stmt = stmt.Where("park_id = ?", filter.ParkID)
	}
	if !filter.IncludeArchived {
		stmt = stmt.Where("status = ?", materialdomain.StatusActive)
	}

	stmt = option.WithSortBy(option.WithQuerySortBy(filter.SortBy, filter.OrderBy, map[string]bool{
		"created_at": true,
		"name":       true,
		"reference":  true,
	})).Apply(stmt)

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ListUnits(ctx context.Context, db *gorm.DB, materialIDs []snowflake.ID) ([]materialdomain.MaterialUnit, error) {
	var units []materialdomain.MaterialUnit
	if len(materialIDs) == 0 {
		return units, nil
	}
	err := db.WithContext(ctx).Raw(
		`SELECT id, material_id, park_id, reference, is_lost, is_broken, state, created_at, updated_at
		 FROM material_units
		 WHERE material_id IN ?
		 ORDER BY material_id ASC, reference ASC`,
		materialIDs,
	).Scan(&units).Error
	if err != nil {
		return nil, err
	}
	return units, nil
}

func (r *repository) UpdateStatus(ctx context.Context, db *gorm.DB, m *materialdomain.Material) error {
	return db.WithContext(ctx).Exec(
		`UPDATE materials SET status = ?, archived_at = ?, updated_at = ? WHERE id = ?`,
		m.Status,
		m.ArchivedAt,
		m.UpdatedAt,
		m.ID,
	).Error
}

func (r *repository) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	if err := db.WithContext(ctx).Exec(`DELETE FROM material_units WHERE material_id = ?`, id).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(`DELETE FROM materials WHERE id = ?`, id).Error
}

func (r *repository) CountByDegressiveRate(ctx context.Context, db *gorm.DB, degressiveRateID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM materials WHERE degressive_rate_id = ?`,
		degressiveRateID,
	).Scan(&count).Error
	return count, err
}

func (r *repository) CountByTax(ctx context.Context, db *gorm.DB, taxID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM materials WHERE tax_id = ?`,
		taxID,
	).Scan(&count).Error
	return count, err
}

func (r *repository) ListActiveByPark(ctx context.Context, db *gorm.DB, parkID snowflake.ID) ([]materialdomain.Material, error) {
	var items []materialdomain.Material
	err := db.WithContext(ctx).Raw(
		`SELECT `+materialColumns+`
		 FROM materials
		 WHERE park_id = ? AND status = ?
		 ORDER BY reference ASC`,
		parkID,
		materialdomain.StatusActive,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) UpdateStock(ctx context.Context, db *gorm.DB, id snowflake.ID, stock, outOfOrder int, updatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE materials SET stock_quantity = ?, out_of_order_quantity = ?, updated_at = ? WHERE id = ?`,
		stock,
		outOfOrder,
		updatedAt,
		id,
	).Error
}

func (r *repository) UpdateUnitState(ctx context.Context, db *gorm.DB, unit *materialdomain.MaterialUnit) error {
	return db.WithContext(ctx).Exec(
		`UPDATE material_units SET is_lost = ?, is_broken = ?, state = ?, updated_at = ? WHERE id = ?`,
		unit.IsLost,
		unit.IsBroken,
		unit.State,
		unit.UpdatedAt,
		unit.ID,
	).Error
}
