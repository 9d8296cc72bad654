package order

import (
	"context"

	"univendor/internal/domain"
)

type Repository interface {
	// PlaceFromCart turns the user's cart into an order and empties the cart
	// in one transaction. An empty cart yields domain.ErrEmptyCart.
	PlaceFromCart(ctx context.Context, userID string, addr domain.ShippingAddress) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// UpdateStatus moves an order from one status to another. It returns
	// domain.ErrInvalidTransition when the order is no longer in from.
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (*domain.Order, error)
}
