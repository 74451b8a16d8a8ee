package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, tax *Tax) error
	Update(ctx context.Context, db *gorm.DB, tax *Tax) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Tax, error)
	FindByName(ctx context.Context, db *gorm.DB, name string) (*Tax, error)
	List(ctx context.Context, db *gorm.DB, filter ListRequest) ([]Tax, error)
	ReplaceComponents(ctx context.Context, db *gorm.DB, taxID snowflake.ID, components []Component) error
}
