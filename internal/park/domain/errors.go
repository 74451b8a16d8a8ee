package domain

import "errors"

var (
	ErrInvalidID = errors.New("invalid_id")
	ErrNotFound  = errors.New("park_not_found")
)
