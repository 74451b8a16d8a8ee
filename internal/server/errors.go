package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/smallbiznis/rentalops/internal/billing/domain"
	bookingdomain "github.com/smallbiznis/rentalops/internal/booking/domain"
	degressiveratedomain "github.com/smallbiznis/rentalops/internal/degressiverate/domain"
	inventorydomain "github.com/smallbiznis/rentalops/internal/inventory/domain"
	materialdomain "github.com/smallbiznis/rentalops/internal/material/domain"
	parkdomain "github.com/smallbiznis/rentalops/internal/park/domain"
	settingdomain "github.com/smallbiznis/rentalops/internal/setting/domain"
	taxdomain "github.com/smallbiznis/rentalops/internal/tax/domain"
	"github.com/smallbiznis/rentalops/internal/validation"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

// logicMessages describes the business rules a request broke.
var logicMessages = map[error]string{
	bookingdomain.ErrNotEditable:    "event can no longer be modified",
	bookingdomain.ErrInvoiced:       "event has invoices and cannot be deleted",
	billingdomain.ErrNotBillable:    "event is not billable",
	billingdomain.ErrNotEstimate:    "only estimates can be deleted",
	inventorydomain.ErrNotDraft:     "inventory is already terminated",
	inventorydomain.ErrParkArchived: "park is archived",
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	if message, ok := logicErrorMessage(err); ok {
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "logic_error",
			Message: message,
		}
	}

	switch {
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog returns the payload type and code recorded on request logs.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	if len(payload.Errors) > 0 {
		return payload.Type, payload.Errors[0].Code
	}
	return payload.Type, err.Error()
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	if errs, ok := validation.As(err); ok && len(errs) > 0 {
		out := make([]ValidationError, 0, len(errs))
		for _, item := range errs {
			out = append(out, ValidationError{
				Field:   item.Field,
				Code:    item.Code,
				Message: item.Message,
			})
		}
		return &ValidationErrors{Errors: out}
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, parkdomain.ErrInvalidID),
		errors.Is(err, materialdomain.ErrInvalidID),
		errors.Is(err, degressiveratedomain.ErrInvalidID),
		errors.Is(err, degressiveratedomain.ErrInvalidDays),
		errors.Is(err, taxdomain.ErrInvalidID),
		errors.Is(err, bookingdomain.ErrInvalidID),
		errors.Is(err, billingdomain.ErrInvalidID),
		errors.Is(err, inventorydomain.ErrInvalidID),
		errors.Is(err, settingdomain.ErrInvalidValue):
		return true
	default:
		return false
	}
}

func logicErrorMessage(err error) (string, bool) {
	for target, message := range logicMessages {
		if errors.Is(err, target) {
			return message, true
		}
	}
	return "", false
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, degressiveratedomain.ErrInUse),
		errors.Is(err, degressiveratedomain.ErrIsDefault),
		errors.Is(err, taxdomain.ErrInUse),
		errors.Is(err, taxdomain.ErrIsDefault),
		errors.Is(err, billingdomain.ErrNumberExhausted):
		return true
	default:
		return false
	}
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, degressiveratedomain.ErrInUse):
		return "degressive rate is used by materials"
	case errors.Is(err, degressiveratedomain.ErrIsDefault):
		return "degressive rate is the default one"
	case errors.Is(err, taxdomain.ErrInUse):
		return "tax is used by materials"
	case errors.Is(err, taxdomain.ErrIsDefault):
		return "tax is the default one"
	case errors.Is(err, billingdomain.ErrNumberExhausted):
		return "no invoice number could be reserved, retry later"
	default:
		return "conflict"
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, settingdomain.ErrUnknownKey),
		errors.Is(err, parkdomain.ErrNotFound),
		errors.Is(err, materialdomain.ErrNotFound),
		errors.Is(err, degressiveratedomain.ErrNotFound),
		errors.Is(err, taxdomain.ErrNotFound),
		errors.Is(err, bookingdomain.ErrNotFound),
		errors.Is(err, bookingdomain.ErrLineNotFound),
		errors.Is(err, bookingdomain.ErrMaterialNotFound),
		errors.Is(err, billingdomain.ErrNotFound),
		errors.Is(err, billingdomain.ErrEventNotFound),
		errors.Is(err, inventorydomain.ErrNotFound),
		errors.Is(err, inventorydomain.ErrParkNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if code == "invalid_setting_value" {
		return "value"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}
