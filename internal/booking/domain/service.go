package domain

import (
	"context"
	"time"

	taxdomain "github.com/smallbiznis/rentalops/internal/tax/domain"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	// Delete removes the event, its lines and its estimates. Invoiced events are kept.
	Delete(ctx context.Context, id string) error

	AddMaterial(ctx context.Context, req AddMaterialRequest) (*LineResponse, error)
	UpdateMaterialQuantity(ctx context.Context, req UpdateQuantityRequest) (*LineResponse, error)
	RemoveMaterial(ctx context.Context, eventID, lineID string) error
	Resync(ctx context.Context, req ResyncRequest) (*LineResponse, error)

	Totals(ctx context.Context, eventID string) (*TotalsResponse, error)
}

type CreateRequest struct {
	Title        string    `json:"title"`
	Reference    *string   `json:"reference,omitempty"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	IsBillable   *bool     `json:"is_billable,omitempty"`
	DiscountRate string    `json:"discount_rate,omitempty"`
}

// UpdateRequest patches descriptive fields and flags. Dates and discount are
// frozen into the lines and stay untouched.
type UpdateRequest struct {
	ID                       string  `json:"-"`
	Title                    *string `json:"title,omitempty"`
	Reference                *string `json:"reference,omitempty"`
	IsBillable               *bool   `json:"is_billable,omitempty"`
	IsArchived               *bool   `json:"is_archived,omitempty"`
	IsDepartureInventoryDone *bool   `json:"is_departure_inventory_done,omitempty"`
	IsReturnInventoryDone    *bool   `json:"is_return_inventory_done,omitempty"`
}

type ListRequest struct {
	IncludeArchived bool
	From            *time.Time
	To              *time.Time
	SortBy          string
	OrderBy         string
}

type AddMaterialRequest struct {
	EventID    string `json:"-"`
	MaterialID string `json:"material_id"`
	Quantity   int    `json:"quantity"`
}

type UpdateQuantityRequest struct {
	EventID  string `json:"-"`
	LineID   string `json:"-"`
	Quantity int    `json:"quantity"`
}

type ResyncRequest struct {
	EventID string   `json:"-"`
	LineID  string   `json:"-"`
	Fields  []string `json:"fields"`
}

type Response struct {
	ID                       string         `json:"id"`
	Title                    string         `json:"title"`
	Reference                *string        `json:"reference,omitempty"`
	StartDate                time.Time      `json:"start_date"`
	EndDate                  time.Time      `json:"end_date"`
	DurationDays             int            `json:"duration_days"`
	IsBillable               bool           `json:"is_billable"`
	IsArchived               bool           `json:"is_archived"`
	IsDepartureInventoryDone bool           `json:"is_departure_inventory_done"`
	IsReturnInventoryDone    bool           `json:"is_return_inventory_done"`
	IsEditable               bool           `json:"is_editable"`
	DiscountRate             string         `json:"discount_rate"`
	Materials                []LineResponse `json:"materials"`
	CreatedAt                time.Time      `json:"created_at"`
	UpdatedAt                time.Time      `json:"updated_at"`
}

type LineResponse struct {
	ID                    string                      `json:"id"`
	EventID               string                      `json:"event_id"`
	MaterialID            *string                     `json:"material_id"`
	Name                  string                      `json:"name"`
	Reference             string                      `json:"reference"`
	CategoryID            *string                     `json:"category_id,omitempty"`
	Quantity              int                         `json:"quantity"`
	UnitPrice             string                      `json:"unit_price"`
	DegressiveRateID      *string                     `json:"degressive_rate_id,omitempty"`
	DegressiveRate        string                      `json:"degressive_rate"`
	UnitPricePeriod       string                      `json:"unit_price_period"`
	TotalWithoutDiscount  string                      `json:"total_without_discount"`
	IsDiscountable        bool                        `json:"is_discountable"`
	DiscountRate          string                      `json:"discount_rate"`
	TotalDiscount         string                      `json:"total_discount"`
	TotalWithoutTaxes     string                      `json:"total_without_taxes"`
	Taxes                 []taxdomain.TaxLineResponse `json:"taxes"`
	TotalTaxes            string                      `json:"total_taxes"`
	TotalWithTaxes        string                      `json:"total_with_taxes"`
	UnitReplacementPrice  string                      `json:"unit_replacement_price"`
	TotalReplacementPrice string                      `json:"total_replacement_price"`
	IsHiddenOnBill        bool                        `json:"is_hidden_on_bill"`
}

type CategoryTotalResponse struct {
	CategoryID        *string `json:"category_id"`
	Quantity          int     `json:"quantity"`
	TotalWithoutTaxes string  `json:"total_without_taxes"`
}

type TotalsResponse struct {
	EventID               string                      `json:"event_id"`
	Currency              string                      `json:"currency"`
	DurationDays          int                         `json:"duration_days"`
	Categories            []CategoryTotalResponse     `json:"categories"`
	DailyTotal            string                      `json:"daily_total"`
	DegressiveRate        string                      `json:"degressive_rate"`
	DiscountRate          string                      `json:"discount_rate"`
	TotalWithoutDiscount  string                      `json:"total_without_discount"`
	TotalDiscount         string                      `json:"total_discount"`
	TotalWithoutTaxes     string                      `json:"total_without_taxes"`
	Taxes                 []taxdomain.TaxLineResponse `json:"taxes"`
	TotalTaxes            string                      `json:"total_taxes"`
	TotalWithTaxes        string                      `json:"total_with_taxes"`
	TotalReplacementPrice string                      `json:"total_replacement_price"`
}
