package domain

import (
	"context"
	"time"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Delete(ctx context.Context, id string) error
	Compute(ctx context.Context, id string, days int) (*ComputeResponse, error)

	// Resolve loads a rate with its tiers for pricing.
	Resolve(ctx context.Context, id string) (*DegressiveRate, error)
}

type TierInput struct {
	FromDay int    `json:"from_day"`
	IsRate  bool   `json:"is_rate"`
	Value   string `json:"value"`
}

type CreateRequest struct {
	Name  string      `json:"name"`
	Tiers []TierInput `json:"tiers"`
}

// UpdateRequest replaces every tier when Tiers is set.
type UpdateRequest struct {
	ID    string       `json:"-"`
	Name  *string      `json:"name,omitempty"`
	Tiers *[]TierInput `json:"tiers,omitempty"`
}

type ListRequest struct {
	SortBy  string
	OrderBy string
}

type TierResponse struct {
	ID        *string `json:"id,omitempty"`
	FromDay   int     `json:"from_day"`
	IsRate    bool    `json:"is_rate"`
	Value     string  `json:"value"`
	IsVirtual bool    `json:"is_virtual,omitempty"`
}

type Response struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	IsDefault bool           `json:"is_default"`
	IsUsed    bool           `json:"is_used"`
	Tiers     []TierResponse `json:"tiers"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type ComputeResponse struct {
	DegressiveRateID string `json:"degressive_rate_id"`
	Days             int    `json:"days"`
	Multiplier       string `json:"multiplier"`
}
