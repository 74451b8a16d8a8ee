package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	degressiveratedomain "github.com/smallbiznis/rentalops/internal/degressiverate/domain"
	"github.com/smallbiznis/rentalops/pkg/db/option"
	"gorm.io/gorm"
)

type repository struct{}

func NewRepository() degressiveratedomain.Repository {
	return &repository{}
}

func (r *repository) Create(ctx context.Context, db *gorm.DB, rate *degressiveratedomain.DegressiveRate) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO degressive_rates (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		rate.ID,
		rate.Name,
		rate.CreatedAt,
		rate.UpdatedAt,
	).Error
}

func (r *repository) Update(ctx context.Context, db *gorm.DB, rate *degressiveratedomain.DegressiveRate) error {
	return db.WithContext(ctx).Exec(
		`UPDATE degressive_rates SET name = ?, updated_at = ? WHERE id = ?`,
		rate.Name,
		rate.UpdatedAt,
		rate.ID,
	).Error
}

func (r *repository) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	if err := db.WithContext(ctx).Exec(
		`DELETE FROM degressive_rate_tiers WHERE degressive_rate_id = ?`, id,
	).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(`DELETE FROM degressive_rates WHERE id = ?`, id).Error
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*degressiveratedomain.DegressiveRate, error) {
	var rate degressiveratedomain.DegressiveRate
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, created_at, updated_at FROM degressive_rates WHERE id = ?`,
		id,
	).Scan(&rate).Error
	if err != nil {
		return nil, err
	}
	if rate.ID == 0 {
		return nil, nil
	}

	tiers, err := r.listTiers(ctx, db, []snowflake.ID{rate.ID})
	if err != nil {
		return nil, err
	}
	rate.Tiers = tiers[rate.ID]
	return &rate, nil
}

func (r *repository) FindByName(ctx context.Context, db *gorm.DB, name string) (*degressiveratedomain.DegressiveRate, error) {
	var rate degressiveratedomain.DegressiveRate
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, created_at, updated_at FROM degressive_rates WHERE name = ?`,
		name,
	).Scan(&rate).Error
	if err != nil {
		return nil, err
	}
	if rate.ID == 0 {
		return nil, nil
	}
	return &rate, nil
}

func (r *repository) List(ctx context.Context, db *gorm.DB, filter degressiveratedomain.ListRequest) ([]degressiveratedomain.DegressiveRate, error) {
	var items []degressiveratedomain.DegressiveRate
	stmt := db.WithContext(ctx).Model(&degressiveratedomain.DegressiveRate{})
	stmt = option.WithSortBy(option.WithQuerySortBy(filter.SortBy, filter.OrderBy, map[string]bool{
		"created_at": true,
		"name":       true,
	})).Apply(stmt)

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return items, nil
	}

	ids := make([]snowflake.ID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	tiers, err := r.listTiers(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Tiers = tiers[items[i].ID]
	}
	return items, nil
}

func (r *repository) ReplaceTiers(ctx context.Context, db *gorm.DB, rateID snowflake.ID, tiers []degressiveratedomain.Tier) error {
	if err := db.WithContext(ctx).Exec(
		`DELETE FROM degressive_rate_tiers WHERE degressive_rate_id = ?`, rateID,
	).Error; err != nil {
		return err
	}
	for _, tier := range tiers {
		if err := db.WithContext(ctx).Exec(
			`INSERT INTO degressive_rate_tiers (id, degressive_rate_id, from_day, is_rate, value)
			 VALUES (?, ?, ?, ?, ?)`,
			tier.ID,
			rateID,
			tier.FromDay,
			tier.IsRate,
			tier.Value,
		).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) listTiers(ctx context.Context, db *gorm.DB, rateIDs []snowflake.ID) (map[snowflake.ID][]degressiveratedomain.Tier, error) {
	var tiers []degressiveratedomain.Tier
	err := db.WithContext(ctx).Raw(
		`SELECT id, degressive_rate_id, from_day, is_rate, value
		 FROM degressive_rate_tiers
		 WHERE degressive_rate_id IN ?
		 ORDER BY degressive_rate_id ASC, from_day ASC`,
		rateIDs,
	).Scan(&tiers).Error
	if err != nil {
		return nil, err
	}

	out := make(map[snowflake.ID][]degressiveratedomain.Tier, len(rateIDs))
	for _, tier := range tiers {
		out[tier.DegressiveRateID] = append(out[tier.DegressiveRateID], tier)
	}
	return out, nil
}
