package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/rentalops/internal/clock"
	degressiveratedomain "github.com/smallbiznis/rentalops/internal/degressiverate/domain"
	settingdomain "github.com/smallbiznis/rentalops/internal/setting/domain"
	"github.com/smallbiznis/rentalops/internal/setting/repository"
	taxdomain "github.com/smallbiznis/rentalops/internal/tax/domain"
	"github.com/smallbiznis/rentalops/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (settingdomain.Service, *gorm.DB) {
	db := testutil.NewDB(t,
		&settingdomain.Setting{},
		&degressiveratedomain.DegressiveRate{},
		&taxdomain.Tax{},
	)

	svc := NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: clock.NewFakeClock(testNow),
		Repo:  repository.NewRepository(db),
	})
	return svc, db
}

func seedTax(t *testing.T, db *gorm.DB, id int64, name string) snowflake.ID {
	tax := taxdomain.Tax{ID: snowflake.ID(id), Name: name, CreatedAt: testNow, UpdatedAt: testNow}
	require.NoError(t, db.Create(&tax).Error)
	return tax.ID
}

func seedRate(t *testing.T, db *gorm.DB, id int64, name string) snowflake.ID {
	rate := degressiveratedomain.DegressiveRate{ID: snowflake.ID(id), Name: name, CreatedAt: testNow, UpdatedAt: testNow}
	require.NoError(t, db.Create(&rate).Error)
	return rate.ID
}

func TestSetAndReadDefaults(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	seedTax(t, db, 1234, "Standard")
	seedTax(t, db, 5678, "Reduced")

	id, err := svc.DefaultTaxID(ctx)
	require.NoError(t, err)
	assert.Zero(t, id)

	_, err = svc.Set(ctx, settingdomain.SetRequest{Key: settingdomain.KeyDefaultTax, Value: "1234"})
	require.NoError(t, err)

	id, err = svc.DefaultTaxID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), id.Int64())

	_, err = svc.Set(ctx, settingdomain.SetRequest{Key: settingdomain.KeyDefaultTax, Value: "5678"})
	require.NoError(t, err)

	resp, err := svc.Get(ctx, settingdomain.KeyDefaultTax)
	require.NoError(t, err)
	assert.Equal(t, "5678", resp.Value)
}

func TestSetRejectsUnknownKeyAndBadValue(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Set(ctx, settingdomain.SetRequest{Key: "billing.unknown", Value: "1"})
	assert.ErrorIs(t, err, settingdomain.ErrUnknownKey)

	_, err = svc.Set(ctx, settingdomain.SetRequest{Key: settingdomain.KeyDefaultDegressiveRate, Value: "abc"})
	assert.ErrorIs(t, err, settingdomain.ErrInvalidValue)

	_, err = svc.Set(ctx, settingdomain.SetRequest{Key: settingdomain.KeyDefaultTax, Value: "-3"})
	assert.ErrorIs(t, err, settingdomain.ErrInvalidValue)
}

func TestSetRejectsMissingReference(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	seedRate(t, db, 42, "Weekly")

	_, err := svc.Set(ctx, settingdomain.SetRequest{Key: settingdomain.KeyDefaultTax, Value: "42"})
	assert.ErrorIs(t, err, taxdomain.ErrNotFound)

	_, err = svc.Set(ctx, settingdomain.SetRequest{Key: settingdomain.KeyDefaultDegressiveRate, Value: "43"})
	assert.ErrorIs(t, err, degressiveratedomain.ErrNotFound)

	id, err := svc.DefaultDegressiveRateID(ctx)
	require.NoError(t, err)
	assert.Zero(t, id)

	_, err = svc.Set(ctx, settingdomain.SetRequest{Key: settingdomain.KeyDefaultDegressiveRate, Value: "42"})
	require.NoError(t, err)
}

func TestClearingDefault(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	seedRate(t, db, 42, "Weekly")

	_, err := svc.Set(ctx, settingdomain.SetRequest{Key: settingdomain.KeyDefaultDegressiveRate, Value: "42"})
	require.NoError(t, err)
	_, err = svc.Set(ctx, settingdomain.SetRequest{Key: settingdomain.KeyDefaultDegressiveRate, Value: ""})
	require.NoError(t, err)

	id, err := svc.DefaultDegressiveRateID(ctx)
	require.NoError(t, err)
	assert.Zero(t, id)
}

func TestListReturnsEveryKnownKey(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	seedTax(t, db, 77, "Standard")

	_, err := svc.Set(ctx, settingdomain.SetRequest{Key: settingdomain.KeyDefaultTax, Value: "77"})
	require.NoError(t, err)

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, settingdomain.KeyDefaultDegressiveRate, items[0].Key)
	assert.Empty(t, items[0].Value)
	assert.Nil(t, items[0].UpdatedAt)
	assert.Equal(t, settingdomain.KeyDefaultTax, items[1].Key)
	assert.Equal(t, "77", items[1].Value)
}
