package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Create(ctx context.Context, park *Park) error
	FindByID(ctx context.Context, id snowflake.ID) (*Park, error)
	FindByName(ctx context.Context, name string) (*Park, error)
	List(ctx context.Context, filter ListRequest) ([]Park, error)
	UpdateStatus(ctx context.Context, park *Park) error
}
