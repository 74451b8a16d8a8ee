package domain

import "errors"

var (
	ErrInvalidID       = errors.New("invalid_id")
	ErrNotFound        = errors.New("document_not_found")
	ErrEventNotFound   = errors.New("event_not_found")
	ErrNotBillable     = errors.New("event_not_billable")
	ErrNotEstimate     = errors.New("document_not_estimate")
	ErrNumberExhausted = errors.New("invoice_number_unavailable")
)
