package domain

import "errors"

var (
	ErrInvalidID        = errors.New("invalid_id")
	ErrNotFound         = errors.New("event_not_found")
	ErrLineNotFound     = errors.New("event_material_not_found")
	ErrMaterialNotFound = errors.New("material_not_found")
	ErrNotEditable      = errors.New("event_not_editable")
	ErrInvoiced         = errors.New("event_invoiced")
)
