package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/rentalops/internal/money"
)

// DegressiveRate maps a rental duration to a price multiplier.
type DegressiveRate struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Name      string       `gorm:"type:varchar(191);not null;uniqueIndex:ux_degressive_rates_name"`
	CreatedAt time.Time    `gorm:"not null"`
	UpdatedAt time.Time    `gorm:"not null"`

	Tiers []Tier `gorm:"-"`
}

func (DegressiveRate) TableName() string { return "degressive_rates" }

// Tier applies from FromDay onwards. IsRate tiers hold a percentage of the day count,
// other tiers hold the multiplier itself.
type Tier struct {
	ID               snowflake.ID    `gorm:"primaryKey"`
	DegressiveRateID snowflake.ID    `gorm:"not null;uniqueIndex:ux_degressive_rate_tiers_day,priority:1"`
	FromDay          int             `gorm:"not null;uniqueIndex:ux_degressive_rate_tiers_day,priority:2"`
	IsRate           bool            `gorm:"not null;default:false"`
	Value            decimal.Decimal `gorm:"type:numeric(10,3);not null"`
}

func (Tier) TableName() string { return "degressive_rate_tiers" }

// ComputeForDays returns the multiplier for a rental lasting days.
//
// The tier with the greatest FromDay not after days wins. Without a matching
// tier the multiplier is days itself. Rate tiers yield days × value / 100 rounded
// up to the cent; fixed tiers must already carry two decimals.
func (r DegressiveRate) ComputeForDays(days int) (decimal.Decimal, error) {
	if days < 1 {
		return decimal.Zero, ErrInvalidDays
	}

	var matched *Tier
	for i := range r.Tiers {
		tier := &r.Tiers[i]
		if tier.FromDay > days {
			continue
		}
		if matched == nil || tier.FromDay > matched.FromDay {
			matched = tier
		}
	}

	if matched == nil {
		return decimal.NewFromInt(int64(days)), nil
	}

	if matched.IsRate {
		return money.Ceil(money.Percent(decimal.NewFromInt(int64(days)), matched.Value), money.AmountScale), nil
	}
	return money.Exact(matched.Value, money.AmountScale)
}

// DisplayTiers returns the stored tiers preceded by an implicit 100% day-one tier
// when the first stored tier starts later.
func (r DegressiveRate) DisplayTiers() []Tier {
	out := make([]Tier, 0, len(r.Tiers)+1)
	if len(r.Tiers) == 0 || r.Tiers[0].FromDay != 1 {
		out = append(out, Tier{
			DegressiveRateID: r.ID,
			FromDay:          1,
			IsRate:           true,
			Value:            decimal.NewFromInt(100),
		})
	}
	return append(out, r.Tiers...)
}
