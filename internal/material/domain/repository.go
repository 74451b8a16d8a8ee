package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, material *Material) error
	CreateUnits(ctx context.Context, db *gorm.DB, units []MaterialUnit) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Material, error)
	FindByReference(ctx context.Context, db *gorm.DB, reference string) (*Material, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Material, error)
	ListUnits(ctx context.Context, db *gorm.DB, materialIDs []snowflake.ID) ([]MaterialUnit, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, material *Material) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error

	CountByDegressiveRate(ctx context.Context, db *gorm.DB, degressiveRateID snowflake.ID) (int64, error)
	CountByTax(ctx context.Context, db *gorm.DB, taxID snowflake.ID) (int64, error)
	ListActiveByPark(ctx context.Context, db *gorm.DB, parkID snowflake.ID) ([]Material, error)
	UpdateStock(ctx context.Context, db *gorm.DB, id snowflake.ID, stock, outOfOrder int, updatedAt time.Time) error
	UpdateUnitState(ctx context.Context, db *gorm.DB, unit *MaterialUnit) error
}

type ListFilter struct {
	ParkID          snowflake.ID
	IncludeArchived bool
	SortBy          string
	OrderBy         string
}
