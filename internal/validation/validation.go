// Package validation collects field-level errors so callers can report every problem at once.
package validation

import (
	"errors"
	"fmt"
	"strings"
)

const (
	CodeRequired      = "required"
	CodeInvalid       = "invalid"
	CodeOutOfRange    = "out_of_range"
	CodeAlreadyExists = "already_exists"
	CodeNotFound      = "not_found"
)

// Error is a single field failure.
type Error struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Errors is an ordered list of field failures.
type Errors []Error

func (e Errors) Error() string {
	if len(e) == 0 {
		return "validation error"
	}
	parts := make([]string, 0, len(e))
	for _, item := range e {
		parts = append(parts, fmt.Sprintf("%s: %s", item.Field, item.Message))
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func (e *Errors) Add(field, code, message string) {
	*e = append(*e, Error{Field: field, Code: code, Message: message})
}

// Merge appends others, prefixing their fields with prefix when set.
func (e *Errors) Merge(prefix string, others Errors) {
	for _, item := range others {
		if prefix != "" {
			item.Field = Join(prefix, item.Field)
		}
		*e = append(*e, item)
	}
}

// Err returns nil when no failure was collected.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Has reports whether a failure was recorded for field.
func (e Errors) Has(field string) bool {
	for _, item := range e {
		if item.Field == field {
			return true
		}
	}
	return false
}

// New builds a single-field error.
func New(field, code, message string) error {
	return Errors{{Field: field, Code: code, Message: message}}
}

// As extracts Errors from err.
func As(err error) (Errors, bool) {
	var errs Errors
	if errors.As(err, &errs) {
		return errs, true
	}
	return nil, false
}

// Join builds a row path such as "tiers.0.value".
func Join(parts ...any) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(fmt.Sprint(p))
		if s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, ".")
}
