package validation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrIsNilWhenEmpty(t *testing.T) {
	var errs Errors
	assert.NoError(t, errs.Err())

	errs.Add("name", CodeRequired, "name is required")
	assert.Error(t, errs.Err())
}

func TestMergePrefixesFields(t *testing.T) {
	var row Errors
	row.Add("value", CodeOutOfRange, "must be between 0 and 100")

	var errs Errors
	errs.Merge(Join("tiers", 2), row)

	assert.True(t, errs.Has("tiers.2.value"))
}

func TestAsUnwrapsWrappedErrors(t *testing.T) {
	err := fmt.Errorf("update: %w", New("123.actual", CodeInvalid, "broken cannot exceed actual"))

	errs, ok := As(err)
	assert.True(t, ok)
	assert.Len(t, errs, 1)
	assert.Equal(t, "123.actual", errs[0].Field)
}
