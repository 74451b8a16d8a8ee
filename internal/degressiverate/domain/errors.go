package domain

import "errors"

var (
	ErrInvalidID   = errors.New("invalid_id")
	ErrInvalidDays = errors.New("invalid_days")
	ErrNotFound    = errors.New("degressive_rate_not_found")
	ErrInUse       = errors.New("degressive_rate_in_use")
	ErrIsDefault   = errors.New("degressive_rate_is_default")
)
