package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// Park is a storage location holding materials.
type Park struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	Name       string       `gorm:"type:varchar(191);not null;uniqueIndex:ux_parks_name"`
	Status     Status       `gorm:"type:varchar(16);not null;default:'active'"`
	ArchivedAt *time.Time
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (Park) TableName() string { return "parks" }

func (p *Park) IsArchived() bool {
	return p.Status == StatusArchived
}
