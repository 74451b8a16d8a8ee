package domain

import (
	"context"
	"time"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Archive(ctx context.Context, id string) (*Response, error)
	Restore(ctx context.Context, id string) (*Response, error)
	// Delete removes the material and its units; booking lines keep their frozen copy.
	Delete(ctx context.Context, id string) error
}

type UnitRequest struct {
	Reference string `json:"reference"`
	IsLost    bool   `json:"is_lost"`
	IsBroken  bool   `json:"is_broken"`
	State     string `json:"state"`
}

type CreateRequest struct {
	Name               string        `json:"name"`
	Reference          string        `json:"reference"`
	ParkID             string        `json:"park_id"`
	CategoryID         *string       `json:"category_id,omitempty"`
	IsUnitary          bool          `json:"is_unitary"`
	StockQuantity      int           `json:"stock_quantity"`
	OutOfOrderQuantity int           `json:"out_of_order_quantity"`
	RentalPrice        string        `json:"rental_price"`
	ReplacementPrice   string        `json:"replacement_price"`
	DegressiveRateID   *string       `json:"degressive_rate_id,omitempty"`
	TaxID              *string       `json:"tax_id,omitempty"`
	IsDiscountable     *bool         `json:"is_discountable,omitempty"`
	IsHiddenOnBill     bool          `json:"is_hidden_on_bill"`
	Units              []UnitRequest `json:"units,omitempty"`
}

type ListRequest struct {
	ParkID          string
	IncludeArchived bool
	SortBy          string
	OrderBy         string
}

type UnitResponse struct {
	ID        string `json:"id"`
	Reference string `json:"reference"`
	IsLost    bool   `json:"is_lost"`
	IsBroken  bool   `json:"is_broken"`
	State     string `json:"state"`
}

type Response struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	Reference          string         `json:"reference"`
	ParkID             string         `json:"park_id"`
	CategoryID         *string        `json:"category_id,omitempty"`
	IsUnitary          bool           `json:"is_unitary"`
	StockQuantity      int            `json:"stock_quantity"`
	OutOfOrderQuantity int            `json:"out_of_order_quantity"`
	RentalPrice        string         `json:"rental_price"`
	ReplacementPrice   string         `json:"replacement_price"`
	DegressiveRateID   *string        `json:"degressive_rate_id,omitempty"`
	TaxID              *string        `json:"tax_id,omitempty"`
	IsDiscountable     bool           `json:"is_discountable"`
	IsHiddenOnBill     bool           `json:"is_hidden_on_bill"`
	Status             Status         `json:"status"`
	ArchivedAt         *time.Time     `json:"archived_at,omitempty"`
	Units              []UnitResponse `json:"units,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}
