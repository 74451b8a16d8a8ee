package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// NextSequence returns the sequence following the highest invoice number of year.
	NextSequence(ctx context.Context, db *gorm.DB, year int) (int64, error)
	Create(ctx context.Context, db *gorm.DB, doc *Document) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Document, error)
	ListByEvent(ctx context.Context, db *gorm.DB, eventID snowflake.ID, kind Kind) ([]Document, error)
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
