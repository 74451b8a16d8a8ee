package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/rentalops/internal/clock"
	materialdomain "github.com/smallbiznis/rentalops/internal/material/domain"
	materialrepo "github.com/smallbiznis/rentalops/internal/material/repository"
	settingdomain "github.com/smallbiznis/rentalops/internal/setting/domain"
	settingrepo "github.com/smallbiznis/rentalops/internal/setting/repository"
	settingservice "github.com/smallbiznis/rentalops/internal/setting/service"
	taxdomain "github.com/smallbiznis/rentalops/internal/tax/domain"
	"github.com/smallbiznis/rentalops/internal/tax/repository"
	"github.com/smallbiznis/rentalops/internal/testutil"
	"github.com/smallbiznis/rentalops/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db         *gorm.DB
	node       *snowflake.Node
	svc        taxdomain.Service
	settingSvc settingdomain.Service
}

func setup(t *testing.T) fixture {
	db := testutil.NewDB(t,
		&taxdomain.Tax{},
		&taxdomain.Component{},
		&materialdomain.Material{},
		&settingdomain.Setting{},
	)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC))

	settingSvc := settingservice.NewService(settingservice.ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: clk,
		Repo:  settingrepo.NewRepository(db),
	})
	svc := NewService(ServiceParam{
		DB:           db,
		Log:          zap.NewNop(),
		GenID:        node,
		Clock:        clk,
		Repo:         repository.NewRepository(),
		MaterialRepo: materialrepo.NewRepository(),
		SettingSvc:   settingSvc,
	})
	return fixture{db: db, node: node, svc: svc, settingSvc: settingSvc}
}

func boolPtr(b bool) *bool { return &b }
func strPtr(s string) *string { return &s }

func TestCreateSingleTax(t *testing.T) {
	f := setup(t)

	resp, err := f.svc.Create(context.Background(), taxdomain.CreateRequest{
		Name:   "VAT 20",
		IsRate: boolPtr(true),
		Value:  strPtr("20"),
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Value)
	assert.Equal(t, "20.000", *resp.Value)
	assert.Empty(t, resp.Components)
}

func TestCreateGroupKeepsComponentOrder(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, taxdomain.CreateRequest{
		Name:    "Quebec",
		IsGroup: true,
		Components: []taxdomain.ComponentInput{
			{Name: "GST", IsRate: boolPtr(true), Value: "5"},
			{Name: "QST", IsRate: boolPtr(true), Value: "9.975"},
		},
	})
	require.NoError(t, err)
	assert.Nil(t, created.Value)

	tax, err := f.svc.Resolve(ctx, created.ID)
	require.NoError(t, err)
	flat := taxdomain.AsFlatArray(*tax)
	require.Len(t, flat, 2)
	assert.Equal(t, "GST", flat[0].Name)
	assert.Equal(t, "QST", flat[1].Name)
	assert.True(t, flat[1].Value.Equal(decimal.RequireFromString("9.975")))
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Create(context.Background(), taxdomain.CreateRequest{
		Name:    "Broken group",
		IsGroup: true,
		Components: []taxdomain.ComponentInput{
			{Name: "A", IsRate: boolPtr(true), Value: "150"},
			{Name: "B", IsRate: boolPtr(false), Value: "1.234"},
		},
	})
	errs, ok := validation.As(err)
	require.True(t, ok)
	assert.True(t, errs.Has("components.0.value"))
	assert.True(t, errs.Has("components.1.value"))

	_, err = f.svc.Create(context.Background(), taxdomain.CreateRequest{Name: "No value"})
	errs, ok = validation.As(err)
	require.True(t, ok)
	assert.True(t, errs.Has("is_rate"))
	assert.True(t, errs.Has("value"))
}

func TestUpdateReplacesComponents(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, taxdomain.CreateRequest{
		Name:       "Group",
		IsGroup:    true,
		Components: []taxdomain.ComponentInput{{Name: "A", IsRate: boolPtr(true), Value: "5"}},
	})
	require.NoError(t, err)

	components := []taxdomain.ComponentInput{
		{Name: "B", IsRate: boolPtr(false), Value: "2.50"},
		{Name: "C", IsRate: boolPtr(true), Value: "1"},
	}
	updated, err := f.svc.Update(ctx, taxdomain.UpdateRequest{ID: created.ID, Components: &components})
	require.NoError(t, err)
	require.Len(t, updated.Components, 2)
	assert.Equal(t, "B", updated.Components[0].Name)
	assert.Equal(t, "2.50", updated.Components[0].Value)

	var count int64
	require.NoError(t, f.db.Model(&taxdomain.Component{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestUpdateSingleValueKeepsRateFlag(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, taxdomain.CreateRequest{Name: "VAT", IsRate: boolPtr(true), Value: strPtr("20")})
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, taxdomain.UpdateRequest{ID: created.ID, Value: strPtr("5.5")})
	require.NoError(t, err)
	assert.Equal(t, "5.500", *updated.Value)
	assert.True(t, *updated.IsRate)
}

func TestDeleteConflicts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	used, err := f.svc.Create(ctx, taxdomain.CreateRequest{Name: "Used", IsRate: boolPtr(true), Value: strPtr("20")})
	require.NoError(t, err)
	def, err := f.svc.Create(ctx, taxdomain.CreateRequest{Name: "Default", IsRate: boolPtr(true), Value: strPtr("10")})
	require.NoError(t, err)
	free, err := f.svc.Create(ctx, taxdomain.CreateRequest{Name: "Free", IsRate: boolPtr(false), Value: strPtr("3")})
	require.NoError(t, err)

	usedID, err := snowflake.ParseString(used.ID)
	require.NoError(t, err)
	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, f.db.Create(&materialdomain.Material{
		ID:               f.node.Generate(),
		Name:             "Console",
		Reference:        "CONSOLE",
		ParkID:           1,
		RentalPrice:      decimal.NewFromInt(10),
		ReplacementPrice: decimal.NewFromInt(100),
		TaxID:            &usedID,
		Status:           materialdomain.StatusActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}).Error)

	_, err = f.settingSvc.Set(ctx, settingdomain.SetRequest{Key: settingdomain.KeyDefaultTax, Value: def.ID})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Delete(ctx, used.ID), taxdomain.ErrInUse)
	assert.ErrorIs(t, f.svc.Delete(ctx, def.ID), taxdomain.ErrIsDefault)
	assert.NoError(t, f.svc.Delete(ctx, free.ID))

	_, err = f.svc.Get(ctx, free.ID)
	assert.ErrorIs(t, err, taxdomain.ErrNotFound)
}
