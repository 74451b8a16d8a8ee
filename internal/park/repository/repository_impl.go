package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	parkdomain "github.com/smallbiznis/rentalops/internal/park/domain"
	"github.com/smallbiznis/rentalops/pkg/db/option"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) parkdomain.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, park *parkdomain.Park) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO parks (id, name, status, archived_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		park.ID,
		park.Name,
		park.Status,
		park.ArchivedAt,
		park.CreatedAt,
		park.UpdatedAt,
	).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*parkdomain.Park, error) {
	var park parkdomain.Park
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, name, status, archived_at, created_at, updated_at
		 FROM parks
		 WHERE id = ?`,
		id,
	).Scan(&park).Error
	if err != nil {
		return nil, err
	}
	if park.ID == 0 {
		return nil, nil
	}
	return &park, nil
}

func (r *repository) FindByName(ctx context.Context, name string) (*parkdomain.Park, error) {
	var park parkdomain.Park
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, name, status, archived_at, created_at, updated_at
		 FROM parks
		 WHERE name = ?`,
		name,
	).Scan(&park).Error
	if err != nil {
		return nil, err
	}
	if park.ID == 0 {
		return nil, nil
	}
	return &park, nil
}

func (r *repository) List(ctx context.Context, filter parkdomain.ListRequest) ([]parkdomain.Park, error) {
	var items []parkdomain.Park
	stmt := r.db.WithContext(ctx).Model(&parkdomain.Park{})
	if !filter.IncludeArchived {
		stmt = stmt.Where("status = ?", parkdomain.StatusActive)
	}

	stmt = option.WithSortBy(option.WithQuerySortBy(filter.SortBy, filter.OrderBy, map[string]bool{
		"created_at": true,
		"name":       true,
	})).Apply(stmt)

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) UpdateStatus(ctx context.Context, park *parkdomain.Park) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE parks SET status = ?, archived_at = ?, updated_at = ? WHERE id = ?`,
		park.Status,
		park.ArchivedAt,
		park.UpdatedAt,
		park.ID,
	).Error
}
