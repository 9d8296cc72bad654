package cart

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"univendor/internal/domain"
	"univendor/internal/logging"
	cartrepo "univendor/internal/repository/cart"
)

type Service struct {
	repo   cartRepo
	logger *zap.Logger
}

type cartRepo interface {
	List(ctx context.Context, userID string) ([]domain.CartItem, error)
	Add(ctx context.Context, in cartrepo.AddItemInput) (*domain.CartItem, error)
	UpdateQuantity(ctx context.Context, userID, id string, quantity int) (*domain.CartItem, error)
	Delete(ctx context.Context, userID, id string) error
}

func New(repo cartRepo, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logging.OrNop(logger)}
}

type AddInput struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

func (s *Service) List(ctx context.Context, userID string) ([]domain.CartItem, error) {
	return s.repo.List(ctx, userID)
}

// Add puts a line in the cart, merging into an existing line with the same
// product, size and color. A missing quantity means one.
func (s *Service) Add(ctx context.Context, userID string, in AddInput) (*domain.CartItem, error) {
	productID := strings.TrimSpace(in.ProductID)
	if productID == "" {
		return nil, domain.Invalid("productId is required")
	}
	qty := in.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return nil, domain.Invalid("quantity must be positive")
	}
	item, err := s.repo.Add(ctx, cartrepo.AddItemInput{
		UserID:    userID,
		ProductID: productID,
		Size:      strings.TrimSpace(in.Size),
		Color:     strings.TrimSpace(in.Color),
		Quantity:  qty,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("cart add", zap.String("user_id", userID), zap.String("product_id", productID), zap.Int("quantity", item.Quantity))
	return item, nil
}

func (s *Service) UpdateQuantity(ctx context.Context, userID, id string, quantity int) (*domain.CartItem, error) {
	if quantity < 1 {
		return nil, domain.Invalid("quantity must be at least 1")
	}
	return s.repo.UpdateQuantity(ctx, userID, id, quantity)
}

func (s *Service) Remove(ctx context.Context, userID, id string) error {
	return s.repo.Delete(ctx, userID, id)
}
