package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/rentalops/internal/clock"
	"github.com/smallbiznis/rentalops/internal/config"
	inventorydomain "github.com/smallbiznis/rentalops/internal/inventory/domain"
	"github.com/smallbiznis/rentalops/internal/inventory/repository"
	materialdomain "github.com/smallbiznis/rentalops/internal/material/domain"
	materialrepo "github.com/smallbiznis/rentalops/internal/material/repository"
	parkdomain "github.com/smallbiznis/rentalops/internal/park/domain"
	parkrepo "github.com/smallbiznis/rentalops/internal/park/repository"
	"github.com/smallbiznis/rentalops/internal/testutil"
	"github.com/smallbiznis/rentalops/internal/validation"
	"github.com/smallbiznis/rentalops/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db     *gorm.DB
	node   *snowflake.Node
	clk    *clock.FakeClock
	svc    inventorydomain.Service
	parkID snowflake.ID
}

func setup(t *testing.T) fixture {
	db := testutil.NewDB(t,
		&parkdomain.Park{},
		&materialdomain.Material{},
		&materialdomain.MaterialUnit{},
		&inventorydomain.Inventory{},
		&inventorydomain.InventoryMaterial{},
		&inventorydomain.InventoryMaterialUnit{},
	)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC))

	park := parkdomain.Park{ID: node.Generate(), Name: "Warehouse", Status: parkdomain.StatusActive, CreatedAt: clk.Now(), UpdatedAt: clk.Now()}
	require.NoError(t, db.Create(&park).Error)

	svc := NewService(ServiceParam{
		DB:           db,
		Log:          zap.NewNop(),
		GenID:        node,
		Clock:        clk,
		RentalCfg:    config.NewStaticRentalConfigHolder(config.DefaultRentalConfig()),
		Repo:         repository.NewRepository(),
		ParkRepo:     parkrepo.NewRepository(db),
		MaterialRepo: materialrepo.NewRepository(),
	})
	return fixture{db: db, node: node, clk: clk, svc: svc, parkID: park.ID}
}

func (f fixture) seedMaterial(t *testing.T, ref string, stock, outOfOrder int) *materialdomain.Material {
	now := f.clk.Now()
	m := materialdomain.Material{
		ID:                 f.node.Generate(),
		Name:               "Material " + ref,
		Reference:          ref,
		ParkID:             f.parkID,
		StockQuantity:      stock,
		OutOfOrderQuantity: outOfOrder,
		RentalPrice:        decimal.NewFromInt(10),
		ReplacementPrice:   decimal.NewFromInt(100),
		IsDiscountable:     true,
		Status:             materialdomain.StatusActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	require.NoError(t, f.db.Create(&m).Error)
	return &m
}

func (f fixture) seedUnitary(t *testing.T, ref string, states ...string) (*materialdomain.Material, []materialdomain.MaterialUnit) {
	now := f.clk.Now()
	m := materialdomain.Material{
		ID:               f.node.Generate(),
		Name:             "Material " + ref,
		Reference:        ref,
		ParkID:           f.parkID,
		IsUnitary:        true,
		StockQuantity:    len(states),
		RentalPrice:      decimal.NewFromInt(10),
		ReplacementPrice: decimal.NewFromInt(100),
		IsDiscountable:   true,
		Status:           materialdomain.StatusActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	require.NoError(t, f.db.Create(&m).Error)

	units := make([]materialdomain.MaterialUnit, 0, len(states))
	for i, state := range states {
		units = append(units, materialdomain.MaterialUnit{
			ID:         f.node.Generate(),
			MaterialID: m.ID,
			ParkID:     f.parkID,
			Reference:  ref + "-" + string(rune('1'+i)),
			State:      state,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	require.NoError(t, f.db.Create(&units).Error)
	return &m, units
}

func (f fixture) openDraft(t *testing.T) *inventorydomain.Response {
	f.clk.Advance(time.Hour)
	draft, err := f.svc.GetOrCreateDraft(context.Background(), inventorydomain.DraftRequest{ParkID: f.parkID.String()})
	require.NoError(t, err)
	return draft
}

func (f fixture) liveMaterial(t *testing.T, id snowflake.ID) materialdomain.Material {
	var m materialdomain.Material
	require.NoError(t, f.db.First(&m, "id = ?", id).Error)
	return m
}

func intPtr(v int) *int { return &v }

func messageOf(errs validation.Errors, field string) string {
	for _, e := range errs {
		if e.Field == field {
			return e.Message
		}
	}
	return ""
}

func TestGetOrCreateDraftReturnsSingleDraft(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first := f.openDraft(t)
	second, err := f.svc.GetOrCreateDraft(ctx, inventorydomain.DraftRequest{ParkID: f.parkID.String()})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.IsTmp)
	assert.Nil(t, second.Date)

	_, err = f.svc.GetOrCreateDraft(ctx, inventorydomain.DraftRequest{ParkID: "42"})
	assert.ErrorIs(t, err, inventorydomain.ErrParkNotFound)
}

func TestBrokenCannotExceedActual(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	material := f.seedMaterial(t, "CHAIR", 10, 0)
	draft := f.openDraft(t)

	_, err := f.svc.UpdateQuantities(ctx, inventorydomain.UpdateQuantitiesRequest{
		ID: draft.ID,
		Quantities: []inventorydomain.QuantityInput{
			{ID: material.ID.String(), Actual: intPtr(2), Broken: intPtr(3)},
		},
	})

	errs, ok := validation.As(err)
	require.True(t, ok)
	assert.Equal(t, inventorydomain.MessageBrokenExceedsActual, messageOf(errs, material.ID.String()+".broken"))

	got, err := f.svc.Get(ctx, draft.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Materials)
}

func TestUpdateQuantitiesCollectsEveryError(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	chair := f.seedMaterial(t, "CHAIR", 10, 0)
	speaker, units := f.seedUnitary(t, "SPK", "excellent", "bad", "brand-new")
	draft := f.openDraft(t)

	_, err := f.svc.UpdateQuantities(ctx, inventorydomain.UpdateQuantitiesRequest{
		ID: draft.ID,
		Quantities: []inventorydomain.QuantityInput{
			{ID: chair.ID.String(), Actual: intPtr(-1)},
			{ID: speaker.ID.String(), Units: []inventorydomain.UnitQuantityInput{
				{ID: units[0].ID.String(), IsLost: true, IsBroken: true, State: "excellent"},
				{ID: units[1].ID.String(), State: "shiny"},
			}},
			{ID: "not-an-id"},
			{ID: "77"},
		},
	})

	errs, ok := validation.As(err)
	require.True(t, ok)
	u0 := speaker.ID.String() + ".units." + units[0].ID.String()
	u1 := speaker.ID.String() + ".units." + units[1].ID.String()
	for _, field := range []string{
		chair.ID.String() + ".actual",
		u0 + ".is_broken",
		u1 + ".state",
		speaker.ID.String() + ".units." + units[2].ID.String(),
		"2.id",
		"77.id",
	} {
		assert.True(t, errs.Has(field), field)
	}
}

func TestTerminateRequiresEveryParkMaterial(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	chair := f.seedMaterial(t, "CHAIR", 10, 1)
	table := f.seedMaterial(t, "TABLE", 4, 0)
	draft := f.openDraft(t)

	_, err := f.svc.UpdateQuantities(ctx, inventorydomain.UpdateQuantitiesRequest{
		ID:         draft.ID,
		Quantities: []inventorydomain.QuantityInput{{ID: chair.ID.String(), Actual: intPtr(8), Broken: intPtr(2)}},
	})
	require.NoError(t, err)

	_, err = f.svc.Terminate(ctx, draft.ID)
	errs, ok := validation.As(err)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, table.ID.String(), errs[0].Field)
	assert.Equal(t, MessageMissingMaterial, errs[0].Message)

	live := f.liveMaterial(t, chair.ID)
	assert.Equal(t, 10, live.StockQuantity)
	assert.Equal(t, 1, live.OutOfOrderQuantity)

	got, err := f.svc.Get(ctx, draft.ID)
	require.NoError(t, err)
	assert.True(t, got.IsTmp)
}

func TestTerminateCommitsCounts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	chair := f.seedMaterial(t, "CHAIR", 10, 1)
	speaker, units := f.seedUnitary(t, "SPK", "excellent", "bad")
	draft := f.openDraft(t)

	f.clk.Advance(time.Minute)
	late := f.seedMaterial(t, "LATE", 3, 0)

	_, err := f.svc.UpdateQuantities(ctx, inventorydomain.UpdateQuantitiesRequest{
		ID: draft.ID,
		Quantities: []inventorydomain.QuantityInput{
			{ID: chair.ID.String(), Actual: intPtr(9), Broken: intPtr(3)},
			{ID: late.ID.String(), Actual: intPtr(5)},
			{ID: speaker.ID.String(), Units: []inventorydomain.UnitQuantityInput{
				{ID: units[0].ID.String(), IsBroken: true, State: "bad"},
				{ID: units[1].ID.String(), IsLost: true, State: "outdated"},
			}},
		},
	})
	require.NoError(t, err)

	f.clk.Advance(time.Hour)
	done, err := f.svc.Terminate(ctx, draft.ID)
	require.NoError(t, err)
	assert.False(t, done.IsTmp)
	require.NotNil(t, done.Date)
	assert.True(t, f.clk.Now().Equal(*done.Date))

	rows := make(map[string]inventorydomain.MaterialResponse)
	for _, m := range done.Materials {
		rows[m.MaterialID] = m
	}

	chairRow := rows[chair.ID.String()]
	assert.False(t, chairRow.IsNew)
	require.NotNil(t, chairRow.StockQuantityPrevious)
	assert.Equal(t, 10, *chairRow.StockQuantityPrevious)
	assert.Equal(t, 1, *chairRow.OutOfOrderQuantityPrevious)
	assert.Equal(t, 9, *chairRow.StockQuantityCurrent)

	lateRow := rows[late.ID.String()]
	assert.True(t, lateRow.IsNew)
	assert.Nil(t, lateRow.StockQuantityPrevious)

	speakerRow := rows[speaker.ID.String()]
	assert.Nil(t, speakerRow.StockQuantityCurrent)
	require.Len(t, speakerRow.Units, 2)
	require.NotNil(t, speakerRow.Units[0].StatePrevious)
	assert.Equal(t, "excellent", *speakerRow.Units[0].StatePrevious)

	live := f.liveMaterial(t, chair.ID)
	assert.Equal(t, 9, live.StockQuantity)
	assert.Equal(t, 3, live.OutOfOrderQuantity)

	liveSpeaker := f.liveMaterial(t, speaker.ID)
	assert.Equal(t, 1, liveSpeaker.StockQuantity)
	assert.Equal(t, 1, liveSpeaker.OutOfOrderQuantity)

	var unit materialdomain.MaterialUnit
	require.NoError(t, f.db.First(&unit, "id = ?", units[1].ID).Error)
	assert.True(t, unit.IsLost)
	assert.Equal(t, "outdated", unit.State)

	_, err = f.svc.Terminate(ctx, draft.ID)
	assert.ErrorIs(t, err, inventorydomain.ErrNotDraft)
	_, err = f.svc.UpdateQuantities(ctx, inventorydomain.UpdateQuantitiesRequest{ID: draft.ID})
	assert.ErrorIs(t, err, inventorydomain.ErrNotDraft)

	next := f.openDraft(t)
	assert.NotEqual(t, draft.ID, next.ID)
}

func TestUpdateQuantitiesReplacesDraft(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	chair := f.seedMaterial(t, "CHAIR", 10, 0)
	table := f.seedMaterial(t, "TABLE", 4, 0)
	draft := f.openDraft(t)

	_, err := f.svc.UpdateQuantities(ctx, inventorydomain.UpdateQuantitiesRequest{
		ID: draft.ID,
		Quantities: []inventorydomain.QuantityInput{
			{ID: chair.ID.String(), Actual: intPtr(10)},
			{ID: table.ID.String(), Actual: intPtr(4)},
		},
	})
	require.NoError(t, err)

	got, err := f.svc.UpdateQuantities(ctx, inventorydomain.UpdateQuantitiesRequest{
		ID:         draft.ID,
		Quantities: []inventorydomain.QuantityInput{{ID: table.ID.String(), Actual: intPtr(3), Broken: intPtr(1)}},
	})
	require.NoError(t, err)
	require.Len(t, got.Materials, 1)
	assert.Equal(t, table.ID.String(), got.Materials[0].MaterialID)
	assert.Equal(t, 3, *got.Materials[0].StockQuantityCurrent)
	assert.Equal(t, 1, *got.Materials[0].OutOfOrderQuantityCurrent)
}

func TestListByParkPaginatesFinalized(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	chair := f.seedMaterial(t, "CHAIR", 10, 0)

	var ids []string
	for i := 0; i < 3; i++ {
		draft := f.openDraft(t)
		_, err := f.svc.UpdateQuantities(ctx, inventorydomain.UpdateQuantitiesRequest{
			ID:         draft.ID,
			Quantities: []inventorydomain.QuantityInput{{ID: chair.ID.String(), Actual: intPtr(10 - i)}},
		})
		require.NoError(t, err)
		_, err = f.svc.Terminate(ctx, draft.ID)
		require.NoError(t, err)
		ids = append(ids, draft.ID)
	}
	f.openDraft(t)

	page, err := f.svc.ListByPark(ctx, inventorydomain.ListRequest{
		ParkID:     f.parkID.String(),
		Pagination: pagination.Pagination{PageSize: 2},
	})
	require.NoError(t, err)
	require.Len(t, page.Inventories, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, ids[2], page.Inventories[0].ID)
	assert.Equal(t, ids[1], page.Inventories[1].ID)

	rest, err := f.svc.ListByPark(ctx, inventorydomain.ListRequest{
		ParkID:     f.parkID.String(),
		Pagination: pagination.Pagination{PageSize: 2, PageToken: page.NextPageToken},
	})
	require.NoError(t, err)
	require.Len(t, rest.Inventories, 1)
	assert.Equal(t, ids[0], rest.Inventories[0].ID)
	assert.False(t, rest.HasMore)
}

func TestDeleteDraftOnly(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	chair := f.seedMaterial(t, "CHAIR", 1, 0)

	draft := f.openDraft(t)
	require.NoError(t, f.svc.DeleteDraft(ctx, draft.ID))
	_, err := f.svc.Get(ctx, draft.ID)
	assert.ErrorIs(t, err, inventorydomain.ErrNotFound)

	draft = f.openDraft(t)
	_, err = f.svc.UpdateQuantities(ctx, inventorydomain.UpdateQuantitiesRequest{
		ID:         draft.ID,
		Quantities: []inventorydomain.QuantityInput{{ID: chair.ID.String(), Actual: intPtr(1)}},
	})
	require.NoError(t, err)
	_, err = f.svc.Terminate(ctx, draft.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteDraft(ctx, draft.ID), inventorydomain.ErrNotDraft)
}
