package repository

import (
	"context"

	"github.com/smallbiznis/rentalops/pkg/db/option"
	"gorm.io/gorm"
)

// Repository is a generic read store for small tables looked up by example.
// Writes with domain rules (upserts, child sync) stay in the owning repository.
type Repository[T any] interface {
	WithTrx(tx *gorm.DB) Repository[T]
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	Count(ctx context.Context, query *T) (int64, error)
}
