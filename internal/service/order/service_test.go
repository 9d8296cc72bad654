package order

import (
	"context"
	"errors"
	"testing"

	"univendor/internal/domain"
)

type stubRepo struct {
	orders     map[string]domain.Order
	lastAddr   domain.ShippingAddress
	placeCalls int
	lastFrom   domain.OrderStatus
	lastTo     domain.OrderStatus
}

func (s *stubRepo) PlaceFromCart(_ context.Context, userID string, addr domain.ShippingAddress) (*domain.Order, error) {
	s.placeCalls++
	s.lastAddr = addr
	return &domain.Order{ID: "o-new", UserID: userID, Status: domain.OrderPending}, nil
}

func (s *stubRepo) ListByUser(context.Context, string) ([]domain.Order, error) {
	return nil, nil
}

func (s *stubRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &o, nil
}

func (s *stubRepo) UpdateStatus(_ context.Context, id string, from, to domain.OrderStatus) (*domain.Order, error) {
	s.lastFrom, s.lastTo = from, to
	o := s.orders[id]
	o.Status = to
	return &o, nil
}

func strPtr(s string) *string { return &s }

func newStub() *stubRepo {
	return &stubRepo{orders: map[string]domain.Order{
		"o1": {ID: "o1", UserID: "buyer-1", VendorID: strPtr("v1"), Status: domain.OrderPending},
		"o2": {ID: "o2", UserID: "buyer-1", VendorID: nil, Status: domain.OrderShipped},
	}}
}

func TestPlace_ValidatesAddress(t *testing.T) {
	repo := newStub()
	svc := New(repo, nil)

	var verr *domain.ValidationError
	if _, err := svc.Place(context.Background(), "buyer-1", domain.ShippingAddress{City: "Pune"}); !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.placeCalls != 0 {
		t.Fatalf("repo should not be called")
	}

	if _, err := svc.Place(context.Background(), "buyer-1", domain.ShippingAddress{Address: " 1 Main ", City: "Pune", PostalCode: "411001"}); err != nil {
		t.Fatalf("Place: %v", err)
	}
	if repo.lastAddr.Address != "1 Main" {
		t.Fatalf("expected trimmed address, got %q", repo.lastAddr.Address)
	}
}

func TestGet_HidesOtherUsersOrders(t *testing.T) {
	svc := New(newStub(), nil)
	ctx := context.Background()

	if _, err := svc.Get(ctx, domain.User{ID: "buyer-1", Role: domain.RoleBuyer}, "o1"); err != nil {
		t.Fatalf("owner Get: %v", err)
	}
	if _, err := svc.Get(ctx, domain.User{ID: "buyer-2", Role: domain.RoleBuyer}, "o1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for stranger, got %v", err)
	}
	if _, err := svc.Get(ctx, domain.User{ID: "s1", Role: domain.RoleSeller, VendorID: strPtr("v1")}, "o1"); err != nil {
		t.Fatalf("vendor seller Get: %v", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	seller := domain.User{ID: "s1", Role: domain.RoleSeller, VendorID: strPtr("v1")}
	admin := domain.User{ID: "a1", Role: domain.RoleAdmin}

	t.Run("buyer forbidden", func(t *testing.T) {
		svc := New(newStub(), nil)
		if _, err := svc.UpdateStatus(ctx, domain.User{ID: "buyer-1", Role: domain.RoleBuyer}, "o1", "shipped"); !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})
	t.Run("seller ships own vendor order", func(t *testing.T) {
		repo := newStub()
		svc := New(repo, nil)
		o, err := svc.UpdateStatus(ctx, seller, "o1", "shipped")
		if err != nil {
			t.Fatalf("UpdateStatus: %v", err)
		}
		if o.Status != domain.OrderShipped || repo.lastFrom != domain.OrderPending {
			t.Fatalf("unexpected transition %s -> %s", repo.lastFrom, o.Status)
		}
	})
	t.Run("seller cannot touch multi-vendor order", func(t *testing.T) {
		svc := New(newStub(), nil)
		if _, err := svc.UpdateStatus(ctx, seller, "o2", "delivered"); !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})
	t.Run("invalid transition", func(t *testing.T) {
		svc := New(newStub(), nil)
		if _, err := svc.UpdateStatus(ctx, admin, "o1", "delivered"); !errors.Is(err, domain.ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
	})
	t.Run("unknown status", func(t *testing.T) {
		svc := New(newStub(), nil)
		var verr *domain.ValidationError
		if _, err := svc.UpdateStatus(ctx, admin, "o1", "lost"); !errors.As(err, &verr) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}
