package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	CreateEvent(ctx context.Context, db *gorm.DB, event *Event) error
	UpdateEvent(ctx context.Context, db *gorm.DB, event *Event) error
	FindEvent(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Event, error)
	ListEvents(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Event, error)
	DeleteEvent(ctx context.Context, db *gorm.DB, id snowflake.ID) error

	CreateLine(ctx context.Context, db *gorm.DB, line *EventMaterial) error
	UpdateLine(ctx context.Context, db *gorm.DB, line *EventMaterial) error
	DeleteLine(ctx context.Context, db *gorm.DB, eventID, lineID snowflake.ID) error
	FindLine(ctx context.Context, db *gorm.DB, eventID, lineID snowflake.ID) (*EventMaterial, error)
	FindLineByMaterial(ctx context.Context, db *gorm.DB, eventID, materialID snowflake.ID) (*EventMaterial, error)
	ListLines(ctx context.Context, db *gorm.DB, eventID snowflake.ID) ([]EventMaterial, error)
	// DetachMaterial clears material_id on every line frozen from the material.
	DetachMaterial(ctx context.Context, db *gorm.DB, materialID snowflake.ID) (int64, error)
}

type ListFilter struct {
	IncludeArchived bool
	From            *time.Time
	To              *time.Time
	SortBy          string
	OrderBy         string
}
