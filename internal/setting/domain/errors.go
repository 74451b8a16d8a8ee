package domain

import "errors"

var (
	ErrUnknownKey   = errors.New("unknown_setting_key")
	ErrInvalidValue = errors.New("invalid_setting_value")
)
