package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	billingdomain "github.com/smallbiznis/rentalops/internal/billing/domain"
	bookingdomain "github.com/smallbiznis/rentalops/internal/booking/domain"
	inventorydomain "github.com/smallbiznis/rentalops/internal/inventory/domain"
	taxdomain "github.com/smallbiznis/rentalops/internal/tax/domain"
	"github.com/smallbiznis/rentalops/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapErrorStatuses(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		status   int
		typeName string
	}{
		{"validation", validation.New("name", validation.CodeRequired, "name is required"), http.StatusBadRequest, "validation_error"},
		{"invalid id", bookingdomain.ErrInvalidID, http.StatusBadRequest, "validation_error"},
		{"not found", fmt.Errorf("load: %w", bookingdomain.ErrNotFound), http.StatusNotFound, "not_found"},
		{"in use", taxdomain.ErrInUse, http.StatusConflict, "conflict"},
		{"default", taxdomain.ErrIsDefault, http.StatusConflict, "conflict"},
		{"not editable", bookingdomain.ErrNotEditable, http.StatusUnprocessableEntity, "logic_error"},
		{"invoiced event", bookingdomain.ErrInvoiced, http.StatusUnprocessableEntity, "logic_error"},
		{"material gone", bookingdomain.ErrMaterialNotFound, http.StatusNotFound, "not_found"},
		{"not billable", billingdomain.ErrNotBillable, http.StatusUnprocessableEntity, "logic_error"},
		{"not draft", inventorydomain.ErrNotDraft, http.StatusUnprocessableEntity, "logic_error"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, payload := mapError(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.typeName, payload.Type)
		})
	}
}

func TestMapErrorKeepsEveryValidationRow(t *testing.T) {
	var errs validation.Errors
	errs.Add("12.broken", validation.CodeInvalid, inventorydomain.MessageBrokenExceedsActual)
	errs.Add("13.units.7.state", validation.CodeInvalid, "unknown state")

	status, payload := mapError(fmt.Errorf("update: %w", errs))
	assert.Equal(t, http.StatusBadRequest, status)
	require.Len(t, payload.Errors, 2)
	assert.Equal(t, "12.broken", payload.Errors[0].Field)
	assert.Equal(t, inventorydomain.MessageBrokenExceedsActual, payload.Errors[0].Message)
	assert.Equal(t, "13.units.7.state", payload.Errors[1].Field)
}

func TestMapErrorInvalidIDField(t *testing.T) {
	_, payload := mapError(inventorydomain.ErrInvalidID)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "id", payload.Errors[0].Field)
	assert.Equal(t, "invalid_id", payload.Errors[0].Code)
}

func TestClassifyErrorForLog(t *testing.T) {
	typ, code := classifyErrorForLog(taxdomain.ErrInUse)
	assert.Equal(t, "conflict", typ)
	assert.Equal(t, "tax_in_use", code)

	typ, code = classifyErrorForLog(validation.New("days", validation.CodeOutOfRange, "days must be at least 1"))
	assert.Equal(t, "validation_error", typ)
	assert.Equal(t, validation.CodeOutOfRange, code)
}
