package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	List(ctx context.Context) ([]Response, error)
	Get(ctx context.Context, key string) (*Response, error)
	Set(ctx context.Context, req SetRequest) (*Response, error)

	// DefaultDegressiveRateID returns the configured default rate, or 0 when unset.
	DefaultDegressiveRateID(ctx context.Context) (snowflake.ID, error)
	// DefaultTaxID returns the configured default tax, or 0 when unset.
	DefaultTaxID(ctx context.Context) (snowflake.ID, error)
}

type SetRequest struct {
	Key   string `json:"-"`
	Value string `json:"value"`
}

type Response struct {
	Key       string     `json:"key"`
	Value     string     `json:"value"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}
