package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	taxdomain "github.com/smallbiznis/rentalops/internal/tax/domain"
	"github.com/smallbiznis/rentalops/pkg/db/option"
	"gorm.io/gorm"
)

type repository struct{}

func NewRepository() taxdomain.Repository {
	return &repository{}
}

func (r *repository) Create(ctx context.Context, db *gorm.DB, tax *taxdomain.Tax) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO taxes (id, name, is_group, is_rate, value, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tax.ID,
		tax.Name,
		tax.IsGroup,
		tax.IsRate,
		tax.Value,
		tax.CreatedAt,
		tax.UpdatedAt,
	).Error
}

func (r *repository) Update(ctx context.Context, db *gorm.DB, tax *taxdomain.Tax) error {
	return db.WithContext(ctx).Exec(
		`UPDATE taxes SET name = ?, is_rate = ?, value = ?, updated_at = ? WHERE id = ?`,
		tax.Name,
		tax.IsRate,
		tax.Value,
		tax.UpdatedAt,
		tax.ID,
	).Error
}

func (r *repository) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	if err := db.WithContext(ctx).Exec(`DELETE FROM tax_components WHERE tax_id = ?`, id).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(`DELETE FROM taxes WHERE id = ?`, id).Error
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*taxdomain.Tax, error) {
	var tax taxdomain.Tax
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, is_group, is_rate, value, created_at, updated_at FROM taxes WHERE id = ?`,
		id,
	).Scan(&tax).Error
	if err != nil {
		return nil, err
	}
	if tax.ID == 0 {
		return nil, nil
	}

	components, err := r.listComponents(ctx, db, []snowflake.ID{tax.ID})
	if err != nil {
		return nil, err
	}
	tax.Components = components[tax.ID]
	return &tax, nil
}

func (r *repository) FindByName(ctx context.Context, db *gorm.DB, name string) (*taxdomain.Tax, error) {
	var tax taxdomain.Tax
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, is_group, is_rate, value, created_at, updated_at FROM taxes WHERE name = ?`,
		name,
	).Scan(&tax).Error
	if err != nil {
		return nil, err
	}
	if tax.ID == 0 {
		return nil, nil
	}
	return &tax, nil
}

func (r *repository) List(ctx context.Context, db *gorm.DB, filter taxdomain.ListRequest) ([]taxdomain.Tax, error) {
	var items []taxdomain.Tax
	stmt := db.WithContext(ctx).Model(&taxdomain.Tax{})
	stmt = option.WithSortBy(option.WithQuerySortBy(filter.SortBy, filter.OrderBy, map[string]bool{
		"created_at": true,
		"name":       true,
	})).Apply(stmt)

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return items, nil
	}

	ids := make([]snowflake.ID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	components, err := r.listComponents(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Components = components[items[i].ID]
	}
	return items, nil
}

func (r *repository) ReplaceComponents(ctx context.Context, db *gorm.DB, taxID snowflake.ID, components []taxdomain.Component) error {
	if err := db.WithContext(ctx).Exec(`DELETE FROM tax_components WHERE tax_id = ?`, taxID).Error; err != nil {
		return err
	}
	for _, c := range components {
		if err := db.WithContext(ctx).Exec(
			`INSERT INTO tax_components (id, tax_id, name, is_rate, value, position)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			c.ID,
			taxID,
			c.Name,
			c.IsRate,
			c.Value,
			c.Position,
		).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) listComponents(ctx context.Context, db *gorm.DB, taxIDs []snowflake.ID) (map[snowflake.ID][]taxdomain.Component, error) {
	var components []taxdomain.Component
	err := db.WithContext(ctx).Raw(
		`SELECT id, tax_id, name, is_rate, value, position
		 FROM tax_components
		 WHERE tax_id IN ?
		 ORDER BY tax_id ASC, position ASC, id ASC`,
		taxIDs,
	).Scan(&components).Error
	if err != nil {
		return nil, err
	}

	out := make(map[snowflake.ID][]taxdomain.Component, len(taxIDs))
	for _, c := range components {
		out[c.TaxID] = append(out[c.TaxID], c)
	}
	return out, nil
}
