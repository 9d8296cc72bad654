package order

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"univendor/internal/domain"
	"univendor/internal/logging"
)

type Service struct {
	repo   orderRepo
	logger *zap.Logger
}

type orderRepo interface {
	PlaceFromCart(ctx context.Context, userID string, addr domain.ShippingAddress) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (*domain.Order, error)
}

func New(repo orderRepo, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logging.OrNop(logger)}
}

// Place checks out the user's whole cart.
func (s *Service) Place(ctx context.Context, userID string, addr domain.ShippingAddress) (*domain.Order, error) {
	addr = trimAddress(addr)
	var missing []string
	if addr.Address == "" {
		missing = append(missing, "address")
	}
	if addr.City == "" {
		missing = append(missing, "city")
	}
	if addr.PostalCode == "" {
		missing = append(missing, "postalCode")
	}
	if len(missing) > 0 {
		return nil, domain.Invalid("shippingAddress is missing " + strings.Join(missing, ", "))
	}
	return s.repo.PlaceFromCart(ctx, userID, addr)
}

func (s *Service) History(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Get returns an order the user may see: their own, one for their vendor,
// or any order for admins. Others read as not found.
func (s *Service) Get(ctx context.Context, u domain.User, id string) (*domain.Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID == u.ID || canManage(u, o) {
		return o, nil
	}
	return nil, domain.ErrNotFound
}

// UpdateStatus applies a fulfillment transition.
func (s *Service) UpdateStatus(ctx context.Context, u domain.User, id string, status string) (*domain.Order, error) {
	if !u.Role.CanFulfil() {
		return nil, domain.ErrForbidden
	}
	next, ok := domain.ParseOrderStatus(strings.TrimSpace(status))
	if !ok {
		return nil, domain.Invalid("unknown order status " + status)
	}
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(u, o) {
		return nil, domain.ErrForbidden
	}
	if !o.Status.CanTransition(next) {
		return nil, domain.ErrInvalidTransition
	}
	updated, err := s.repo.UpdateStatus(ctx, id, o.Status, next)
	if err != nil {
		return nil, err
	}
	s.logger.Info("order fulfillment", zap.String("order_id", id), zap.String("by", u.ID), zap.String("status", string(next)))
	return updated, nil
}

func canManage(u domain.User, o *domain.Order) bool {
	switch u.Role {
	case domain.RoleAdmin, domain.RoleSuperAdmin:
		return true
	case domain.RoleSeller:
		return u.VendorID != nil && o.VendorID != nil && *u.VendorID == *o.VendorID
	}
	return false
}

func trimAddress(a domain.ShippingAddress) domain.ShippingAddress {
	return domain.ShippingAddress{
		Name:       strings.TrimSpace(a.Name),
		Address:    strings.TrimSpace(a.Address),
		City:       strings.TrimSpace(a.City),
		State:      strings.TrimSpace(a.State),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.TrimSpace(a.Country),
		Phone:      strings.TrimSpace(a.Phone),
	}
}
