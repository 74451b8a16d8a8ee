package domain

import "errors"

var (
	ErrInvalidID = errors.New("invalid_id")
	ErrNotFound  = errors.New("material_not_found")
)
