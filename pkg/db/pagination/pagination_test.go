package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	token, err := EncodeCursor(Cursor{ID: "42", At: at})
	require.NoError(t, err)

	got, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "42", got.ID)
	assert.True(t, at.Equal(got.At))
}

func TestDecodeCursor(t *testing.T) {
	got, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = DecodeCursor("%%%")
	assert.ErrorIs(t, err, ErrInvalidPageToken)
}

func TestPage(t *testing.T) {
	toCursor := func(v int) Cursor { return Cursor{ID: string(rune('0' + v))} }

	items, info, err := Page([]int{1, 2, 3}, 2, toCursor)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, items)
	assert.True(t, info.HasMore)

	next, err := DecodeCursor(info.NextPageToken)
	require.NoError(t, err)
	assert.Equal(t, "2", next.ID)

	items, info, err = Page([]int{1}, 2, toCursor)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, items)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)
}

func TestSize(t *testing.T) {
	assert.Equal(t, DefaultPageSize, Pagination{}.Size())
	assert.Equal(t, MaxPageSize, Pagination{PageSize: 1000}.Size())
	assert.Equal(t, 5, Pagination{PageSize: 5}.Size())
}
