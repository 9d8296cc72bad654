package shop

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"univendor/internal/api"
	"univendor/internal/cartapi"
	"univendor/internal/guestcart"
	"univendor/internal/localstore"
)

// fakeAPI is an in-memory server cart plus the auth and order endpoints.
type fakeAPI struct {
	mu        sync.Mutex
	lines     []api.CartItem
	nextID    int
	adds      []api.AddCartItemRequest
	orders    int
	user      *api.User
	failAdd   map[string]error
	updateErr error
	removeErr error
	orderErr  error
	verify    api.AuthResponse

	// holdUpdate, when set, is closed by the test to let UpdateCartItem
	// return.
	holdUpdate chan struct{}
	// updateGate, when set, runs first in UpdateCartItem; a non-nil error
	// fails that call.
	updateGate func(id string, quantity int) error
	// beforeList runs at the start of ListCart.
	beforeList func()
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{failAdd: map[string]error{}}
}

func (f *fakeAPI) seed(productID, price string, qty int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("line-%d", f.nextID)
	f.lines = append(f.lines, api.CartItem{
		ID:       id,
		Product:  api.ProductRef{ID: productID, Name: productID, Price: price},
		Quantity: qty,
	})
	return id
}

func (f *fakeAPI) ListCart(context.Context) ([]api.CartItem, error) {
	if f.beforeList != nil {
		f.beforeList()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.CartItem{}, f.lines...), nil
}

func (f *fakeAPI) AddCartItem(_ context.Context, req api.AddCartItemRequest) (api.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adds = append(f.adds, req)
	if err := f.failAdd[req.ProductID]; err != nil {
		return api.CartItem{}, err
	}
	for i, l := range f.lines {
		if l.Product.ID == req.ProductID && l.Size == req.Size && l.Color == req.Color {
			f.lines[i].Quantity += req.Quantity
			return f.lines[i], nil
		}
	}
	f.nextID++
	line := api.CartItem{
		ID:       fmt.Sprintf("line-%d", f.nextID),
		Product:  api.ProductRef{ID: req.ProductID, Name: req.ProductID, Price: "10.00"},
		Size:     req.Size,
		Color:    req.Color,
		Quantity: req.Quantity,
	}
	f.lines = append(f.lines, line)
	return line, nil
}

func (f *fakeAPI) UpdateCartItem(_ context.Context, id string, quantity int) (api.CartItem, error) {
	if f.updateGate != nil {
		if err := f.updateGate(id, quantity); err != nil {
			return api.CartItem{}, err
		}
	}
	if f.holdUpdate != nil {
		<-f.holdUpdate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return api.CartItem{}, f.updateErr
	}
	for i := range f.lines {
		if f.lines[i].ID == id {
			f.lines[i].Quantity = quantity
			return f.lines[i], nil
		}
	}
	return api.CartItem{}, &cartapi.APIError{Status: 404, Message: "not found"}
}

func (f *fakeAPI) RemoveCartItem(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	for i := range f.lines {
		if f.lines[i].ID == id {
			f.lines = append(f.lines[:i], f.lines[i+1:]...)
			return nil
		}
	}
	return &cartapi.APIError{Status: 404, Message: "not found"}
}

func (f *fakeAPI) SendOTP(context.Context, string) error { return nil }

func (f *fakeAPI) VerifyOTP(context.Context, string, string) (api.AuthResponse, error) {
	return f.verify, nil
}

func (f *fakeAPI) Register(_ context.Context, req api.RegisterRequest) (api.AuthResponse, error) {
	return api.AuthResponse{User: &api.User{ID: "new", Email: req.Email, Role: "buyer"}, RedirectTo: "/"}, nil
}

func (f *fakeAPI) LoginWithEmail(_ context.Context, email string) (api.AuthResponse, error) {
	if f.user != nil {
		u := *f.user
		return api.AuthResponse{User: &u}, nil
	}
	return api.AuthResponse{User: &api.User{ID: "u1", Email: email, Role: "buyer"}, RedirectTo: "/"}, nil
}

func (f *fakeAPI) Logout(context.Context) error { return nil }

func (f *fakeAPI) CurrentUser(context.Context) (api.User, error) {
	if f.user == nil {
		return api.User{}, &cartapi.APIError{Status: 401, Message: "Unauthorized"}
	}
	return *f.user, nil
}

func (f *fakeAPI) PlaceOrder(_ context.Context, addr api.ShippingAddress) (api.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.orderErr != nil {
		return api.Order{}, f.orderErr
	}
	if len(f.lines) == 0 {
		return api.Order{}, &cartapi.APIError{Status: 400, Message: "cart is empty"}
	}
	f.orders++
	f.lines = nil
	return api.Order{ID: "order-1", Status: "pending", ShippingAddress: addr}, nil
}

func (f *fakeAPI) orderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders
}

type recorder struct {
	mu      sync.Mutex
	notices []Notice
	routes  []string
}

func (r *recorder) Notify(n Notice) {
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
}

func (r *recorder) Navigate(path string) {
	r.mu.Lock()
	r.routes = append(r.routes, path)
	r.mu.Unlock()
}

func (r *recorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.notices))
	for _, n := range r.notices {
		out = append(out, n.Message)
	}
	return out
}

type harness struct {
	api       *fakeAPI
	rec       *recorder
	storage   *localstore.Memory
	guest     *guestcart.Store
	cart      *ServerCart
	session   *Session
	view      *CartView
	checkout  *Checkout
	redirects *RedirectStore
}

func newHarness() *harness {
	ctx := context.Background()
	h := &harness{api: newFakeAPI(), rec: &recorder{}, storage: localstore.NewMemory()}
	h.guest = guestcart.Open(ctx, h.storage, nil)
	h.redirects = NewRedirectStore(h.storage)
	h.cart = NewServerCart(h.api, h.rec, nil)
	h.session = NewSession(h.api, SessionOptions{
		Migrator:  NewMigrator(h.guest, h.api, nil),
		Cart:      h.cart,
		Redirects: h.redirects,
		Navigator: h.rec,
	})
	h.view = NewCartView(h.session, h.guest, h.cart)
	h.checkout = NewCheckout(h.session, h.view, h.api, CheckoutOptions{
		Redirects: h.redirects,
		Navigator: h.rec,
		Notifier:  h.rec,
	})
	return h
}

var errNetwork = errors.New("connection reset")
