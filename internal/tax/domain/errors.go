package domain

import "errors"

var (
	ErrInvalidID = errors.New("invalid_id")
	ErrNotFound  = errors.New("tax_not_found")
	ErrInUse     = errors.New("tax_in_use")
	ErrIsDefault = errors.New("tax_is_default")
)
