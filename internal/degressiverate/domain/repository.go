package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, rate *DegressiveRate) error
	Update(ctx context.Context, db *gorm.DB, rate *DegressiveRate) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*DegressiveRate, error)
	FindByName(ctx context.Context, db *gorm.DB, name string) (*DegressiveRate, error)
	List(ctx context.Context, db *gorm.DB, filter ListRequest) ([]DegressiveRate, error)
	ReplaceTiers(ctx context.Context, db *gorm.DB, rateID snowflake.ID, tiers []Tier) error
}
