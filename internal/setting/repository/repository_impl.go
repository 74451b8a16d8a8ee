package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	degressiveratedomain "github.com/smallbiznis/rentalops/internal/degressiverate/domain"
	settingdomain "github.com/smallbiznis/rentalops/internal/setting/domain"
	taxdomain "github.com/smallbiznis/rentalops/internal/tax/domain"
	genericrepo "github.com/smallbiznis/rentalops/pkg/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db       *gorm.DB
	settings genericrepo.Repository[settingdomain.Setting]
	rates    genericrepo.Repository[degressiveratedomain.DegressiveRate]
	taxes    genericrepo.Repository[taxdomain.Tax]
}

func NewRepository(db *gorm.DB) settingdomain.Repository {
	return &repository{
		db:       db,
		settings: genericrepo.ProvideStore[settingdomain.Setting](db),
		rates:    genericrepo.ProvideStore[degressiveratedomain.DegressiveRate](db),
		taxes:    genericrepo.ProvideStore[taxdomain.Tax](db),
	}
}

func (r *repository) WithTrx(tx *gorm.DB) settingdomain.Repository {
	return &repository{
		db:       tx,
		settings: r.settings.WithTrx(tx),
		rates:    r.rates.WithTrx(tx),
		taxes:    r.taxes.WithTrx(tx),
	}
}

func (r *repository) Get(ctx context.Context, key string) (*settingdomain.Setting, error) {
	return r.settings.FindOne(ctx, &settingdomain.Setting{Key: key})
}

func (r *repository) List(ctx context.Context) ([]*settingdomain.Setting, error) {
	return r.settings.Find(ctx, &settingdomain.Setting{})
}

func (r *repository) Upsert(ctx context.Context, setting *settingdomain.Setting) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(setting).Error
}

func (r *repository) DegressiveRateExists(ctx context.Context, id snowflake.ID) (bool, error) {
	count, err := r.rates.Count(ctx, &degressiveratedomain.DegressiveRate{ID: id})
	return count > 0, err
}

func (r *repository) TaxExists(ctx context.Context, id snowflake.ID) (bool, error) {
	count, err := r.taxes.Count(ctx, &taxdomain.Tax{ID: id})
	return count > 0, err
}
