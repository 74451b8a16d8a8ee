package domain

import (
	"context"
	"time"

	"github.com/smallbiznis/rentalops/pkg/db/pagination"
)

type Service interface {
	// GetOrCreateDraft returns the open draft of a park, creating it when absent.
	GetOrCreateDraft(ctx context.Context, req DraftRequest) (*Response, error)
	UpdateQuantities(ctx context.Context, req UpdateQuantitiesRequest) (*Response, error)
	Terminate(ctx context.Context, id string) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	ListByPark(ctx context.Context, req ListRequest) (*ListResponse, error)
	DeleteDraft(ctx context.Context, id string) error
}

type DraftRequest struct {
	ParkID   string  `json:"-"`
	AuthorID *string `json:"author_id,omitempty"`
}

type UpdateQuantitiesRequest struct {
	ID         string
	Quantities []QuantityInput
}

type ListRequest struct {
	ParkID string
	pagination.Pagination
}

type UnitResponse struct {
	ID               string  `json:"id"`
	MaterialUnitID   string  `json:"material_unit_id"`
	Reference        string  `json:"reference"`
	IsNew            bool    `json:"is_new"`
	IsLostPrevious   *bool   `json:"is_lost_previous"`
	IsLostCurrent    bool    `json:"is_lost_current"`
	IsBrokenPrevious *bool   `json:"is_broken_previous"`
	IsBrokenCurrent  bool    `json:"is_broken_current"`
	StatePrevious    *string `json:"state_previous"`
	StateCurrent     string  `json:"state_current"`
}

type MaterialResponse struct {
	ID                         string         `json:"id"`
	MaterialID                 string         `json:"material_id"`
	Name                       string         `json:"name"`
	Reference                  string         `json:"reference"`
	IsUnitary                  bool           `json:"is_unitary"`
	IsNew                      bool           `json:"is_new"`
	StockQuantityPrevious      *int           `json:"stock_quantity_previous"`
	StockQuantityCurrent       *int           `json:"stock_quantity_current"`
	OutOfOrderQuantityPrevious *int           `json:"out_of_order_quantity_previous"`
	OutOfOrderQuantityCurrent  *int           `json:"out_of_order_quantity_current"`
	Units                      []UnitResponse `json:"units,omitempty"`
}

type Response struct {
	ID        string             `json:"id"`
	ParkID    string             `json:"park_id"`
	IsTmp     bool               `json:"is_tmp"`
	Date      *time.Time         `json:"date"`
	AuthorID  *string            `json:"author_id,omitempty"`
	Materials []MaterialResponse `json:"materials,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type ListResponse struct {
	Inventories []Response `json:"inventories"`
	pagination.PageInfo
}
