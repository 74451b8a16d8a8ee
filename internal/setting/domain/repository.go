package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTrx(tx *gorm.DB) Repository
	Get(ctx context.Context, key string) (*Setting, error)
	List(ctx context.Context) ([]*Setting, error)
	Upsert(ctx context.Context, setting *Setting) error

	DegressiveRateExists(ctx context.Context, id snowflake.ID) (bool, error)
	TaxExists(ctx context.Context, id snowflake.ID) (bool, error)
}
