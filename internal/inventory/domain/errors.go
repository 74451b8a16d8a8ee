package domain

import "errors"

var (
	ErrInvalidID    = errors.New("invalid_id")
	ErrNotFound     = errors.New("inventory_not_found")
	ErrParkNotFound = errors.New("park_not_found")
	ErrParkArchived = errors.New("park_archived")
	ErrNotDraft     = errors.New("inventory_not_draft")
)
