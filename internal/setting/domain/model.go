package domain

import "time"

const (
	KeyDefaultDegressiveRate = "billing.default_degressive_rate"
	KeyDefaultTax            = "billing.default_tax"
)

// KnownKeys lists every key accepted by Set.
var KnownKeys = map[string]bool{
	KeyDefaultDegressiveRate: true,
	KeyDefaultTax:            true,
}

type Setting struct {
	Key       string    `gorm:"column:name;primaryKey;type:varchar(128)"`
	Value     string    `gorm:"column:value;type:text;not null;default:''"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Setting) TableName() string { return "settings" }
