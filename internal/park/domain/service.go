package domain

import (
	"context"
	"time"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	Archive(ctx context.Context, id string) (*Response, error)
	Restore(ctx context.Context, id string) (*Response, error)
}

type CreateRequest struct {
	Name string `json:"name"`
}

type ListRequest struct {
	IncludeArchived bool
	SortBy          string
	OrderBy         string
}

type Response struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Status     Status     `json:"status"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
