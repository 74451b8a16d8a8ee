package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	billingdomain "github.com/smallbiznis/rentalops/internal/billing/domain"
	billingrepo "github.com/smallbiznis/rentalops/internal/billing/repository"
	bookingdomain "github.com/smallbiznis/rentalops/internal/booking/domain"
	"github.com/smallbiznis/rentalops/internal/booking/repository"
	"github.com/smallbiznis/rentalops/internal/clock"
	"github.com/smallbiznis/rentalops/internal/config"
	degressiveratedomain "github.com/smallbiznis/rentalops/internal/degressiverate/domain"
	degressiveraterepo "github.com/smallbiznis/rentalops/internal/degressiverate/repository"
	materialdomain "github.com/smallbiznis/rentalops/internal/material/domain"
	materialrepo "github.com/smallbiznis/rentalops/internal/material/repository"
	materialservice "github.com/smallbiznis/rentalops/internal/material/service"
	settingdomain "github.com/smallbiznis/rentalops/internal/setting/domain"
	settingrepo "github.com/smallbiznis/rentalops/internal/setting/repository"
	settingservice "github.com/smallbiznis/rentalops/internal/setting/service"
	taxdomain "github.com/smallbiznis/rentalops/internal/tax/domain"
	taxrepo "github.com/smallbiznis/rentalops/internal/tax/repository"
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
	clk        *clock.FakeClock
	svc        bookingdomain.Service
	settingSvc settingdomain.Service
}

func setup(t *testing.T) fixture {
	db := testutil.NewDB(t,
		&bookingdomain.Event{},
		&bookingdomain.EventMaterial{},
		&materialdomain.Material{},
		&materialdomain.MaterialUnit{},
		&billingdomain.Document{},
		&billingdomain.DocumentMaterial{},
		&degressiveratedomain.DegressiveRate{},
		&degressiveratedomain.Tier{},
		&taxdomain.Tax{},
		&taxdomain.Component{},
		&settingdomain.Setting{},
	)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))

	settingSvc := settingservice.NewService(settingservice.ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: clk,
		Repo:  settingrepo.NewRepository(db),
	})

	svc := NewService(ServiceParam{
		DB:                 db,
		Log:                zap.NewNop(),
		GenID:              node,
		Clock:              clk,
		RentalCfg:          config.NewStaticRentalConfigHolder(config.DefaultRentalConfig()),
		Repo:               repository.NewRepository(),
		MaterialRepo:       materialrepo.NewRepository(),
		DegressiveRateRepo: degressiveraterepo.NewRepository(),
		TaxRepo:            taxrepo.NewRepository(),
		SettingSvc:         settingSvc,
		DocumentRepo:       billingrepo.NewRepository(),
	})
	return fixture{db: db, node: node, clk: clk, svc: svc, settingSvc: settingSvc}
}

func (f fixture) seedRate(t *testing.T) snowflake.ID {
	now := f.clk.Now()
	rate := degressiveratedomain.DegressiveRate{ID: f.node.Generate(), Name: "Standard", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, f.db.Create(&rate).Error)
	tiers := []degressiveratedomain.Tier{
		{ID: f.node.Generate(), DegressiveRateID: rate.ID, FromDay: 1, Value: decimal.RequireFromString("1.00")},
		{ID: f.node.Generate(), DegressiveRateID: rate.ID, FromDay: 2, Value: decimal.RequireFromString("1.75")},
		{ID: f.node.Generate(), DegressiveRateID: rate.ID, FromDay: 6, IsRate: true, Value: decimal.RequireFromString("75.42")},
	}
	require.NoError(t, f.db.Create(&tiers).Error)
	return rate.ID
}

func (f fixture) seedTax(t *testing.T, name, value string) snowflake.ID {
	now := f.clk.Now()
	isRate := true
	v := decimal.RequireFromString(value)
	tax := taxdomain.Tax{ID: f.node.Generate(), Name: name, IsRate: &isRate, Value: &v, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, f.db.Create(&tax).Error)
	return tax.ID
}

func (f fixture) seedMaterial(t *testing.T, ref, price string, rateID, taxID *snowflake.ID) *materialdomain.Material {
	now := f.clk.Now()
	m := materialdomain.Material{
		ID:               f.node.Generate(),
		Name:             "Material " + ref,
		Reference:        ref,
		ParkID:           f.node.Generate(),
		StockQuantity:    10,
		RentalPrice:      decimal.RequireFromString(price),
		ReplacementPrice: decimal.RequireFromString("150"),
		DegressiveRateID: rateID,
		TaxID:            taxID,
		IsDiscountable:   true,
		Status:           materialdomain.StatusActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	require.NoError(t, f.db.Create(&m).Error)
	return &m
}

func (f fixture) createEvent(t *testing.T, discount string) *bookingdomain.Response {
	start := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	resp, err := f.svc.Create(context.Background(), bookingdomain.CreateRequest{
		Title:        "Summer festival",
		StartDate:    start,
		EndDate:      start.Add(6 * 24 * time.Hour),
		DiscountRate: discount,
	})
	require.NoError(t, err)
	return resp
}

func TestCreateValidatesEveryField(t *testing.T) {
	f := setup(t)

	start := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	_, err := f.svc.Create(context.Background(), bookingdomain.CreateRequest{
		StartDate:    start,
		EndDate:      start.Add(-time.Hour),
		DiscountRate: "120.12345",
	})

	errs, ok := validation.As(err)
	require.True(t, ok)
	assert.True(t, errs.Has("title"))
	assert.True(t, errs.Has("end_date"))
	assert.True(t, errs.Has("discount_rate"))
}

func TestCreateComputesDuration(t *testing.T) {
	f := setup(t)

	resp := f.createEvent(t, "10")
	assert.Equal(t, 6, resp.DurationDays)
	assert.Equal(t, "10.0000", resp.DiscountRate)
	assert.True(t, resp.IsBillable)
	assert.True(t, resp.IsEditable)
}

func TestAddMaterialFreezesCatalogPricing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	rateID := f.seedRate(t)
	taxID := f.seedTax(t, "VAT", "20")
	material := f.seedMaterial(t, "TBL", "12.35", &rateID, &taxID)
	event := f.createEvent(t, "10")

	line, err := f.svc.AddMaterial(ctx, bookingdomain.AddMaterialRequest{
		EventID:    event.ID,
		MaterialID: material.ID.String(),
		Quantity:   3,
	})
	require.NoError(t, err)

	assert.Equal(t, "4.53", line.DegressiveRate)
	assert.Equal(t, "55.95", line.UnitPricePeriod)
	assert.Equal(t, "167.85", line.TotalWithoutDiscount)
	assert.Equal(t, "16.79", line.TotalDiscount)
	assert.Equal(t, "151.06", line.TotalWithoutTaxes)
	assert.Equal(t, "30.21", line.TotalTaxes)
	assert.Equal(t, "181.27", line.TotalWithTaxes)
	assert.Equal(t, "450.00", line.TotalReplacementPrice)
	require.Len(t, line.Taxes, 1)
	assert.Equal(t, "20.000", line.Taxes[0].Value)

	got, err := f.svc.Get(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, got.Materials, 1)
	assert.Equal(t, "181.27", got.Materials[0].TotalWithTaxes)
}

func TestAddMaterialFallsBackToDefaults(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	taxID := f.seedTax(t, "Reduced", "5.5")
	_, err := f.settingSvc.Set(ctx, settingdomain.SetRequest{Key: settingdomain.KeyDefaultTax, Value: taxID.String()})
	require.NoError(t, err)

	material := f.seedMaterial(t, "CHAIR", "2", nil, nil)
	event := f.createEvent(t, "")

	line, err := f.svc.AddMaterial(ctx, bookingdomain.AddMaterialRequest{
		EventID:    event.ID,
		MaterialID: material.ID.String(),
		Quantity:   1,
	})
	require.NoError(t, err)

	assert.Nil(t, line.DegressiveRateID)
	assert.Equal(t, "6.00", line.DegressiveRate)
	assert.Equal(t, "12.00", line.TotalWithoutTaxes)
	require.Len(t, line.Taxes, 1)
	assert.Equal(t, "Reduced", line.Taxes[0].Name)
	assert.Equal(t, "0.66", line.TotalTaxes)
}

func TestAddMaterialRejectsDuplicateAndBadQuantity(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	material := f.seedMaterial(t, "TENT", "100", nil, nil)
	event := f.createEvent(t, "")

	_, err := f.svc.AddMaterial(ctx, bookingdomain.AddMaterialRequest{EventID: event.ID, MaterialID: material.ID.String(), Quantity: 1})
	require.NoError(t, err)

	_, err = f.svc.AddMaterial(ctx, bookingdomain.AddMaterialRequest{EventID: event.ID, MaterialID: material.ID.String(), Quantity: 0})
	errs, ok := validation.As(err)
	require.True(t, ok)
	assert.True(t, errs.Has("quantity"))
	assert.True(t, errs.Has("material_id"))
}

func TestNonEditableEventRejectsChanges(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	material := f.seedMaterial(t, "LIGHT", "8", nil, nil)
	event := f.createEvent(t, "")
	line, err := f.svc.AddMaterial(ctx, bookingdomain.AddMaterialRequest{EventID: event.ID, MaterialID: material.ID.String(), Quantity: 2})
	require.NoError(t, err)

	done := true
	_, err = f.svc.Update(ctx, bookingdomain.UpdateRequest{ID: event.ID, IsDepartureInventoryDone: &done})
	require.NoError(t, err)

	_, err = f.svc.UpdateMaterialQuantity(ctx, bookingdomain.UpdateQuantityRequest{EventID: event.ID, LineID: line.ID, Quantity: 4})
	assert.ErrorIs(t, err, bookingdomain.ErrNotEditable)

	err = f.svc.RemoveMaterial(ctx, event.ID, line.ID)
	assert.ErrorIs(t, err, bookingdomain.ErrNotEditable)
}

func TestPastEventIsNotEditable(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	material := f.seedMaterial(t, "STAGE", "300", nil, nil)
	event := f.createEvent(t, "")

	f.clk.Set(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
	_, err := f.svc.AddMaterial(ctx, bookingdomain.AddMaterialRequest{EventID: event.ID, MaterialID: material.ID.String(), Quantity: 1})
	assert.ErrorIs(t, err, bookingdomain.ErrNotEditable)
}

func TestUpdateQuantityRecomputes(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	material := f.seedMaterial(t, "MIC", "10", nil, nil)
	event := f.createEvent(t, "50")
	line, err := f.svc.AddMaterial(ctx, bookingdomain.AddMaterialRequest{EventID: event.ID, MaterialID: material.ID.String(), Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, "30.00", line.TotalWithoutTaxes)

	updated, err := f.svc.UpdateMaterialQuantity(ctx, bookingdomain.UpdateQuantityRequest{EventID: event.ID, LineID: line.ID, Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Quantity)
	assert.Equal(t, "180.00", updated.TotalWithoutDiscount)
	assert.Equal(t, "90.00", updated.TotalDiscount)
	assert.Equal(t, "90.00", updated.TotalWithoutTaxes)
}

func TestResyncOverwritesOnlyNamedFields(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	material := f.seedMaterial(t, "BAR", "20", nil, nil)
	event := f.createEvent(t, "")
	line, err := f.svc.AddMaterial(ctx, bookingdomain.AddMaterialRequest{EventID: event.ID, MaterialID: material.ID.String(), Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, "240.00", line.TotalWithoutTaxes)

	require.NoError(t, f.db.Model(&materialdomain.Material{}).
		Where("id = ?", material.ID).
		Updates(map[string]any{"rental_price": decimal.RequireFromString("25"), "name": "Renamed bar"}).Error)

	resynced, err := f.svc.Resync(ctx, bookingdomain.ResyncRequest{
		EventID: event.ID,
		LineID:  line.ID,
		Fields:  []string{"unit_price"},
	})
	require.NoError(t, err)
	assert.Equal(t, "25.00", resynced.UnitPrice)
	assert.Equal(t, "300.00", resynced.TotalWithoutTaxes)
	assert.Equal(t, "Material BAR", resynced.Name)
}

func TestResyncRejectsUnknownFields(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Resync(context.Background(), bookingdomain.ResyncRequest{
		EventID: "1",
		LineID:  "2",
		Fields:  []string{"name", "colour"},
	})

	errs, ok := validation.As(err)
	require.True(t, ok)
	assert.True(t, errs.Has("fields.1"))
}

func TestTotalsAggregatesLines(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	taxID := f.seedTax(t, "VAT", "20")
	first := f.seedMaterial(t, "A", "10", nil, &taxID)
	second := f.seedMaterial(t, "B", "5", nil, &taxID)
	event := f.createEvent(t, "")

	_, err := f.svc.AddMaterial(ctx, bookingdomain.AddMaterialRequest{EventID: event.ID, MaterialID: first.ID.String(), Quantity: 1})
	require.NoError(t, err)
	_, err = f.svc.AddMaterial(ctx, bookingdomain.AddMaterialRequest{EventID: event.ID, MaterialID: second.ID.String(), Quantity: 2})
	require.NoError(t, err)

	totals, err := f.svc.Totals(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "EUR", totals.Currency)
	assert.Equal(t, "20.00", totals.DailyTotal)
	assert.Equal(t, "6.00", totals.DegressiveRate)
	assert.Equal(t, "120.00", totals.TotalWithoutTaxes)
	require.Len(t, totals.Taxes, 1)
	assert.Equal(t, "24.00", totals.Taxes[0].Total)
	assert.Equal(t, "144.00", totals.TotalWithTaxes)
	assert.Equal(t, "450.00", totals.TotalReplacementPrice)
}

func (f fixture) seedDocument(t *testing.T, eventID string, kind billingdomain.Kind) snowflake.ID {
	id, err := snowflake.ParseString(eventID)
	require.NoError(t, err)
	now := f.clk.Now()
	doc := billingdomain.Document{
		ID:           f.node.Generate(),
		Kind:         kind,
		Date:         now,
		EventID:      id,
		BookingTitle: "Wedding",
		BookingStart: now,
		BookingEnd:   now.Add(24 * time.Hour),
		Currency:     "EUR",
		CreatedAt:    now,
	}
	require.NoError(t, f.db.Create(&doc).Error)
	return doc.ID
}

func TestDeleteEventRemovesLinesAndEstimates(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	material := f.seedMaterial(t, "DEL", "10", nil, nil)
	event := f.createEvent(t, "")
	_, err := f.svc.AddMaterial(ctx, bookingdomain.AddMaterialRequest{EventID: event.ID, MaterialID: material.ID.String(), Quantity: 1})
	require.NoError(t, err)
	estimateID := f.seedDocument(t, event.ID, billingdomain.KindEstimate)

	require.NoError(t, f.svc.Delete(ctx, event.ID))

	_, err = f.svc.Get(ctx, event.ID)
	assert.ErrorIs(t, err, bookingdomain.ErrNotFound)

	var lines int64
	require.NoError(t, f.db.Model(&bookingdomain.EventMaterial{}).Where("event_id = ?", event.ID).Count(&lines).Error)
	assert.Zero(t, lines)

	var docs int64
	require.NoError(t, f.db.Model(&billingdomain.Document{}).Where("id = ?", estimateID).Count(&docs).Error)
	assert.Zero(t, docs)
}

func TestDeleteInvoicedEventIsRefused(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	event := f.createEvent(t, "")
	f.seedDocument(t, event.ID, billingdomain.KindEstimate)
	f.seedDocument(t, event.ID, billingdomain.KindInvoice)

	err := f.svc.Delete(ctx, event.ID)
	assert.ErrorIs(t, err, bookingdomain.ErrInvoiced)

	_, err = f.svc.Get(ctx, event.ID)
	require.NoError(t, err)

	var docs int64
	require.NoError(t, f.db.Model(&billingdomain.Document{}).Where("event_id = ?", event.ID).Count(&docs).Error)
	assert.Equal(t, int64(2), docs)
}

func TestResyncAfterMaterialDeletedIsNotFound(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	material := f.seedMaterial(t, "GONE", "20", nil, nil)
	event := f.createEvent(t, "")
	line, err := f.svc.AddMaterial(ctx, bookingdomain.AddMaterialRequest{EventID: event.ID, MaterialID: material.ID.String(), Quantity: 1})
	require.NoError(t, err)

	materials := materialservice.NewService(materialservice.ServiceParam{
		DB:          f.db,
		Log:         zap.NewNop(),
		GenID:       f.node,
		Clock:       f.clk,
		RentalCfg:   config.NewStaticRentalConfigHolder(config.DefaultRentalConfig()),
		Repo:        materialrepo.NewRepository(),
		BookingRepo: repository.NewRepository(),
	})
	require.NoError(t, materials.Delete(ctx, material.ID.String()))

	_, err = f.svc.Resync(ctx, bookingdomain.ResyncRequest{
		EventID: event.ID,
		LineID:  line.ID,
		Fields:  []string{"unit_price"},
	})
	assert.ErrorIs(t, err, bookingdomain.ErrMaterialNotFound)

	var stored bookingdomain.EventMaterial
	require.NoError(t, f.db.First(&stored, "id = ?", line.ID).Error)
	assert.Nil(t, stored.MaterialID)
	assert.Equal(t, "Material GONE", stored.Name)
}
