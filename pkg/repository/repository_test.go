package repository

import (
	"context"
	"testing"

	"github.com/smallbiznis/rentalops/internal/testutil"
	"github.com/smallbiznis/rentalops/pkg/db/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID     int64  `gorm:"primaryKey"`
	Name   string `gorm:"not null"`
	Colour string
}

func TestStoreFindOneReturnsNilWhenMissing(t *testing.T) {
	db := testutil.NewDB(t, &widget{})
	store := ProvideStore[widget](db)

	got, err := store.FindOne(context.Background(), &widget{Name: "missing"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStoreFindAndCount(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t, &widget{})
	store := ProvideStore[widget](db)

	require.NoError(t, db.Create([]*widget{
		{ID: 1, Name: "a", Colour: "red"},
		{ID: 2, Name: "b", Colour: "red"},
		{ID: 3, Name: "c", Colour: "blue"},
	}).Error)

	count, err := store.Count(ctx, &widget{Colour: "red"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	count, err = store.Count(ctx, &widget{ID: 3})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	rows, err := store.Find(ctx, &widget{Colour: "red"}, option.WithLimit(1))
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	got, err := store.FindOne(ctx, &widget{Name: "c"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "blue", got.Colour)
}

func TestStoreWithTrxSeesUncommittedRows(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t, &widget{})
	store := ProvideStore[widget](db)

	tx := db.Begin()
	require.NoError(t, tx.Create(&widget{ID: 9, Name: "tmp"}).Error)

	got, err := store.WithTrx(tx).FindOne(ctx, &widget{Name: "tmp"})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NoError(t, tx.Rollback().Error)

	got, err = store.FindOne(ctx, &widget{Name: "tmp"})
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Same(t, store, store.WithTrx(nil))
}
