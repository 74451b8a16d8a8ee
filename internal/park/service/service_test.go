package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/rentalops/internal/clock"
	parkdomain "github.com/smallbiznis/rentalops/internal/park/domain"
	"github.com/smallbiznis/rentalops/internal/park/repository"
	"github.com/smallbiznis/rentalops/internal/testutil"
	"github.com/smallbiznis/rentalops/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) parkdomain.Service {
	db := testutil.NewDB(t, &parkdomain.Park{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(ServiceParam{
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)),
		Repo:  repository.NewRepository(db),
	})
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, parkdomain.CreateRequest{Name: "Main warehouse"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, parkdomain.CreateRequest{Name: "Main warehouse"})
	errs, ok := validation.As(err)
	require.True(t, ok)
	assert.Equal(t, validation.CodeAlreadyExists, errs[0].Code)
}

func TestArchiveHidesFromDefaultList(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, parkdomain.CreateRequest{Name: "A"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, parkdomain.CreateRequest{Name: "B"})
	require.NoError(t, err)

	archived, err := svc.Archive(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, parkdomain.StatusArchived, archived.Status)
	assert.NotNil(t, archived.ArchivedAt)

	active, err := svc.List(ctx, parkdomain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := svc.List(ctx, parkdomain.ListRequest{IncludeArchived: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	restored, err := svc.Restore(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, parkdomain.StatusActive, restored.Status)
	assert.Nil(t, restored.ArchivedAt)
}

func TestGetUnknownPark(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Get(context.Background(), "not-an-id")
	assert.ErrorIs(t, err, parkdomain.ErrInvalidID)

	_, err = svc.Get(context.Background(), "99")
	assert.ErrorIs(t, err, parkdomain.ErrNotFound)
}
