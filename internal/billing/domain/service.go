package domain

import (
	"context"
	"time"

	taxdomain "github.com/smallbiznis/rentalops/internal/tax/domain"
)

type Service interface {
	CreateInvoice(ctx context.Context, req CreateRequest) (*Response, error)
	CreateEstimate(ctx context.Context, req CreateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	ListByEvent(ctx context.Context, req ListRequest) ([]Response, error)
	DeleteEstimate(ctx context.Context, id string) error
}

type CreateRequest struct {
	EventID  string  `json:"-"`
	AuthorID *string `json:"author_id,omitempty"`
}

type ListRequest struct {
	EventID string
	Kind    Kind
}

type CategoryResponse struct {
	CategoryID        *string `json:"category_id"`
	Quantity          int     `json:"quantity"`
	TotalWithoutTaxes string  `json:"total_without_taxes"`
}

type LineResponse struct {
	ID                    string                      `json:"id"`
	MaterialID            *string                     `json:"material_id"`
	Name                  string                      `json:"name"`
	Reference             string                      `json:"reference"`
	CategoryID            *string                     `json:"category_id,omitempty"`
	Quantity              int                         `json:"quantity"`
	UnitPrice             string                      `json:"unit_price"`
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

type Response struct {
	ID                   string                      `json:"id"`
	Kind                 Kind                        `json:"kind"`
	Number               *string                     `json:"number,omitempty"`
	Date                 time.Time                   `json:"date"`
	EventID              string                      `json:"event_id"`
	BookingTitle         string                      `json:"booking_title"`
	BookingStart         time.Time                   `json:"booking_start"`
	BookingEnd           time.Time                   `json:"booking_end"`
	DegressiveRate       string                      `json:"degressive_rate"`
	DiscountRate         string                      `json:"discount_rate"`
	DailyTotal           string                      `json:"daily_total"`
	TotalWithoutDiscount string                      `json:"total_without_discount"`
	TotalDiscount        string                      `json:"total_discount"`
	TotalWithoutTaxes    string                      `json:"total_without_taxes"`
	Taxes                []taxdomain.TaxLineResponse `json:"taxes"`
	TotalTaxes           string                      `json:"total_taxes"`
	TotalWithTaxes       string                      `json:"total_with_taxes"`
	TotalReplacement     string                      `json:"total_replacement"`
	Currency             string                      `json:"currency"`
	AuthorID             *string                     `json:"author_id,omitempty"`
	Categories           []CategoryResponse          `json:"categories,omitempty"`
	Materials            []LineResponse              `json:"materials,omitempty"`
	CreatedAt            time.Time                   `json:"created_at"`
}
