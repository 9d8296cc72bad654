package product

import (
	"context"

	"univendor/internal/domain"
)

type Repository interface {
	// List returns products newest first. An empty vendorID lists every vendor.
	List(ctx context.Context, vendorID string) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}
