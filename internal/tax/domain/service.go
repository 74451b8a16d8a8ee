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

	// Resolve loads a tax with its components for pricing.
	Resolve(ctx context.Context, id string) (*Tax, error)
}

type ComponentInput struct {
	Name   string `json:"name"`
	IsRate *bool  `json:"is_rate"`
	Value  string `json:"value"`
}

type CreateRequest struct {
	Name       string           `json:"name"`
	IsGroup    bool             `json:"is_group"`
	IsRate     *bool            `json:"is_rate,omitempty"`
	Value      *string          `json:"value,omitempty"`
	Components []ComponentInput `json:"components,omitempty"`
}

// UpdateRequest replaces every component when Components is set.
type UpdateRequest struct {
	ID         string            `json:"-"`
	Name       *string           `json:"name,omitempty"`
	IsRate     *bool             `json:"is_rate,omitempty"`
	Value      *string           `json:"value,omitempty"`
	Components *[]ComponentInput `json:"components,omitempty"`
}

type ListRequest struct {
	SortBy  string
	OrderBy string
}

type ComponentResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	IsRate bool   `json:"is_rate"`
	Value  string `json:"value"`
}

type Response struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	IsGroup    bool                `json:"is_group"`
	IsRate     *bool               `json:"is_rate,omitempty"`
	Value      *string             `json:"value,omitempty"`
	IsDefault  bool                `json:"is_default"`
	IsUsed     bool                `json:"is_used"`
	Components []ComponentResponse `json:"components,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// FlatTaxResponse is the wire form of a FlatTax.
type FlatTaxResponse struct {
	Name   string `json:"name"`
	IsRate bool   `json:"is_rate"`
	Value  string `json:"value"`
}

// TaxLineResponse is the wire form of a TaxLine.
type TaxLineResponse struct {
	Name   string `json:"name"`
	IsRate bool   `json:"is_rate"`
	Value  string `json:"value"`
	Total  string `json:"total"`
}
