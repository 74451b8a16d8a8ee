package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDefaultTemplate(t *testing.T) {
	tpl, err := Parse("{YYYY}-{SEQ5}")
	require.NoError(t, err)

	number, err := tpl.Format(time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), 42)
	require.NoError(t, err)
	assert.Equal(t, "2024-00042", number)
}

func TestFormatAllTokens(t *testing.T) {
	tpl, err := Parse("INV/{YY}{MM}{DD}/{SEQ}")
	require.NoError(t, err)

	number, err := tpl.Format(time.Date(2025, 11, 2, 0, 0, 0, 0, time.UTC), 7)
	require.NoError(t, err)
	assert.Equal(t, "INV/251102/7", number)
}

func TestSequenceWiderThanPadding(t *testing.T) {
	tpl, err := Parse("{YYYY}-{SEQ2}")
	require.NoError(t, err)

	number, err := tpl.Format(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 1234)
	require.NoError(t, err)
	assert.Equal(t, "2024-1234", number)
}

func TestParseRejectsBadTemplates(t *testing.T) {
	cases := map[string]error{
		"":            ErrEmptyTemplate,
		"{YYYY}-":     ErrMissingSequence,
		"{YYYY}-{ID}": nil,
		"{SEQ0}":      nil,
		"{SEQ5}}":     nil,
	}
	for raw, want := range cases {
		_, err := Parse(raw)
		require.Error(t, err, raw)
		if want != nil {
			assert.ErrorIs(t, err, want, raw)
		}
	}
}

func TestFormatRejectsNonPositiveSequence(t *testing.T) {
	tpl, err := Parse("{SEQ}")
	require.NoError(t, err)

	_, err = tpl.Format(time.Now(), 0)
	assert.ErrorIs(t, err, ErrInvalidSequence)
}
