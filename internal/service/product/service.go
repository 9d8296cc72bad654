package product

import (
	"context"
	"strings"

	"univendor/internal/domain"
)

type Service struct {
	repo    productRepo
	vendors vendorRepo
}

type productRepo interface {
	List(ctx context.Context, vendorID string) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type vendorRepo interface {
	GetByKey(ctx context.Context, key string) (*domain.Vendor, error)
}

func New(repo productRepo, vendors vendorRepo) *Service {
	return &Service{repo: repo, vendors: vendors}
}

// List returns the catalog, optionally narrowed to one vendor by key.
// An unknown vendor key is domain.ErrNotFound.
func (s *Service) List(ctx context.Context, vendorKey string) ([]domain.Product, error) {
	vendorKey = strings.TrimSpace(vendorKey)
	if vendorKey == "" {
		return s.repo.List(ctx, "")
	}
	v, err := s.vendors.GetByKey(ctx, vendorKey)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, v.ID)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}
