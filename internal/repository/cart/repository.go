package cart

import (
	"context"

	"univendor/internal/domain"
)

type AddItemInput struct {
	UserID    string
	ProductID string
	Size      string
	Color     string
	Quantity  int
}

// Repository stores a user's cart lines. Lines are keyed by
// (user, product, size, color); Add on an existing key sums quantities.
type Repository interface {
	List(ctx context.Context, userID string) ([]domain.CartItem, error)
	Add(ctx context.Context, in AddItemInput) (*domain.CartItem, error)
	UpdateQuantity(ctx context.Context, userID, id string, quantity int) (*domain.CartItem, error)
	Delete(ctx context.Context, userID, id string) error
}
