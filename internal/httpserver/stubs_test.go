package httpserver

import (
	"context"
	"time"

	"go.uber.org/zap"

	"univendor/internal/domain"
	authsvc "univendor/internal/service/auth"
	cartsvc "univendor/internal/service/cart"
)

type stubAuth struct {
	users     map[string]*domain.User
	acting    map[string]*domain.User
	verify    *authsvc.Result
	verifyErr error
	lastOut   string
}

func (s *stubAuth) SendOTP(context.Context, string) error { return nil }

func (s *stubAuth) VerifyOTP(context.Context, string, string) (*authsvc.Result, error) {
	return s.verify, s.verifyErr
}

func (s *stubAuth) Register(_ context.Context, in authsvc.RegisterInput) (*authsvc.Result, error) {
	return &authsvc.Result{
		User:      &domain.User{ID: "new", Email: in.Email, Role: domain.RoleBuyer},
		Token:     "tok-new",
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func (s *stubAuth) LoginWithEmail(context.Context, string) (*authsvc.Result, error) {
	return nil, authsvc.ErrEmailLoginDisabled
}

func (s *stubAuth) Authenticate(_ context.Context, token string) (*authsvc.Principal, error) {
	u, ok := s.users[token]
	if !ok {
		return nil, authsvc.ErrInvalidSession
	}
	if target, ok := s.acting[token]; ok {
		return &authsvc.Principal{User: target, Impersonator: u}, nil
	}
	return &authsvc.Principal{User: u}, nil
}

func (s *stubAuth) Impersonate(_ context.Context, token string, actor domain.User, targetID string) (*domain.User, error) {
	if !actor.Role.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	for _, u := range s.users {
		if u.ID == targetID {
			if s.acting == nil {
				s.acting = map[string]*domain.User{}
			}
			s.acting[token] = u
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubAuth) StopImpersonating(_ context.Context, token string) error {
	delete(s.acting, token)
	return nil
}

func (s *stubAuth) Logout(_ context.Context, token string) error {
	s.lastOut = token
	return nil
}

func (s *stubAuth) SessionTTL() time.Duration { return 7 * 24 * time.Hour }

type stubCart struct {
	items      []domain.CartItem
	addErr     error
	lastQty    int
	lastAdd    cartsvc.AddInput
	updateHits int
	listErr    error
}

func (s *stubCart) List(context.Context, string) ([]domain.CartItem, error) {
	return s.items, s.listErr
}

func (s *stubCart) Add(_ context.Context, _ string, in cartsvc.AddInput) (*domain.CartItem, error) {
	s.lastAdd = in
	if s.addErr != nil {
		return nil, s.addErr
	}
	return &domain.CartItem{ID: "line-new", ProductID: in.ProductID, Quantity: in.Quantity, Product: domain.ProductRef{ID: in.ProductID}}, nil
}

func (s *stubCart) UpdateQuantity(_ context.Context, _, id string, quantity int) (*domain.CartItem, error) {
	s.updateHits++
	s.lastQty = quantity
	return &domain.CartItem{ID: id, Quantity: quantity}, nil
}

func (s *stubCart) Remove(_ context.Context, _, id string) error {
	if id != "line-1" {
		return domain.ErrNotFound
	}
	return nil
}

type stubOrders struct {
	placeErr error
}

func (s *stubOrders) Place(_ context.Context, userID string, addr domain.ShippingAddress) (*domain.Order, error) {
	if s.placeErr != nil {
		return nil, s.placeErr
	}
	return &domain.Order{ID: "o1", UserID: userID, Status: domain.OrderPending, ShippingAddress: addr}, nil
}

func (s *stubOrders) History(context.Context, string) ([]domain.Order, error) {
	return nil, nil
}

func (s *stubOrders) Get(context.Context, domain.User, string) (*domain.Order, error) {
	return nil, domain.ErrNotFound
}

func (s *stubOrders) UpdateStatus(context.Context, domain.User, string, string) (*domain.Order, error) {
	return nil, domain.ErrForbidden
}

type stubProducts struct{}

func (stubProducts) List(context.Context, string) ([]domain.Product, error) {
	return []domain.Product{{ID: "p1", Name: "Tee"}}, nil
}

func (stubProducts) Get(context.Context, string) (*domain.Product, error) {
	return nil, domain.ErrNotFound
}

type testDeps struct {
	auth   *stubAuth
	cart   *stubCart
	orders *stubOrders
}

func newTestDeps() testDeps {
	return testDeps{
		auth: &stubAuth{users: map[string]*domain.User{
			"tok-buyer": {ID: "buyer-1", Email: "b@example.com", Role: domain.RoleBuyer},
			"tok-admin": {ID: "admin-1", Email: "a@example.com", Role: domain.RoleAdmin},
		}},
		cart:   &stubCart{},
		orders: &stubOrders{},
	}
}

func (d testDeps) deps() Deps {
	return Deps{Auth: d.auth, Cart: d.cart, Orders: d.orders, Products: stubProducts{}}
}

func logDiscard() *zap.Logger { return zap.NewNop() }
