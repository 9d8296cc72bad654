package shop

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"univendor/internal/api"
	"univendor/internal/guestcart"
	"univendor/internal/pricing"
)

// DisplayItem is a cart line as shown, whichever cart it came from.
type DisplayItem struct {
	ID        string
	ProductID string
	Name      string
	Price     decimal.Decimal
	ImageURL  string
	Size      string
	Color     string
	Quantity  int
}

func (d DisplayItem) LineTotal() decimal.Decimal {
	return d.Price.Mul(decimal.NewFromInt(int64(d.Quantity)))
}

// AuthState reports whether the visitor is signed in.
type AuthState interface {
	Authenticated() bool
}

// CartView presents the active cart: the server cart when signed in,
// the guest cart otherwise. It never mixes the two.
type CartView struct {
	auth   AuthState
	guest  *guestcart.Store
	server *ServerCart
}

func NewCartView(auth AuthState, guest *guestcart.Store, server *ServerCart) *CartView {
	return &CartView{auth: auth, guest: guest, server: server}
}

func (v *CartView) Items() []DisplayItem {
	if v.auth.Authenticated() {
		lines := v.server.Items()
		out := make([]DisplayItem, 0, len(lines))
		for _, l := range lines {
			out = append(out, fromServer(l))
		}
		return out
	}
	lines := v.guest.Items()
	out := make([]DisplayItem, 0, len(lines))
	for _, l := range lines {
		out = append(out, fromGuest(l))
	}
	return out
}

// Subscribe calls fn with the active cart whenever either cart changes, so
// a listener follows the guest cart while signed out and the server cart
// while signed in. fn must not mutate the carts.
func (v *CartView) Subscribe(fn func([]DisplayItem)) (unsubscribe func()) {
	emit := func() { fn(v.Items()) }
	stopGuest := v.guest.Subscribe(func([]guestcart.Item) { emit() })
	stopServer := v.server.Subscribe(func([]api.CartItem) { emit() })
	return func() {
		stopGuest()
		stopServer()
	}
}

// Totals recomputes checkout totals from the live cart.
func (v *CartView) Totals() pricing.Totals {
	items := v.Items()
	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, pricing.Line{UnitPrice: it.Price, Quantity: it.Quantity})
	}
	return pricing.Compute(lines)
}

// Count is the number of units in the cart, for a badge.
func (v *CartView) Count() int {
	n := 0
	for _, it := range v.Items() {
		n += it.Quantity
	}
	return n
}

// Add puts quantity units of p in the active cart.
func (v *CartView) Add(ctx context.Context, p api.Product, size, color string, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}
	if v.auth.Authenticated() {
		return v.server.Add(ctx, api.AddCartItemRequest{ProductID: p.ID, Quantity: quantity, Size: size, Color: color})
	}
	_, err := v.guest.AddItem(ctx, guestcart.Item{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		ImageURL:  p.ImageURL,
		Size:      size,
		Color:     color,
		Quantity:  quantity,
	})
	return err
}

func (v *CartView) SetQuantity(ctx context.Context, id string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if v.auth.Authenticated() {
		return v.server.UpdateQuantity(ctx, id, quantity)
	}
	if err := v.guest.UpdateQuantity(ctx, id, quantity); err != nil {
		if errors.Is(err, guestcart.ErrItemNotFound) {
			return ErrLineNotFound
		}
		return err
	}
	return nil
}

func (v *CartView) Increment(ctx context.Context, id string) error {
	item, ok := v.find(id)
	if !ok {
		return ErrLineNotFound
	}
	return v.SetQuantity(ctx, id, item.Quantity+1)
}

// Decrement lowers a line by one and stops at one. Removal is explicit.
func (v *CartView) Decrement(ctx context.Context, id string) error {
	item, ok := v.find(id)
	if !ok {
		return ErrLineNotFound
	}
	if item.Quantity <= 1 {
		return nil
	}
	return v.SetQuantity(ctx, id, item.Quantity-1)
}

func (v *CartView) Remove(ctx context.Context, id string) error {
	if v.auth.Authenticated() {
		return v.server.Remove(ctx, id)
	}
	return v.guest.RemoveItem(ctx, id)
}

// ClearAfterOrder empties the active cart once an order has consumed it.
// The server already emptied its cart so that side only refetches.
func (v *CartView) ClearAfterOrder(ctx context.Context) error {
	if v.auth.Authenticated() {
		if err := v.server.Refresh(ctx); err != nil {
			return fmt.Errorf("refetch cart after order: %w", err)
		}
		return nil
	}
	return v.guest.Clear(ctx)
}

func (v *CartView) find(id string) (DisplayItem, bool) {
	for _, it := range v.Items() {
		if it.ID == id {
			return it, true
		}
	}
	return DisplayItem{}, false
}

func fromServer(l api.CartItem) DisplayItem {
	return DisplayItem{
		ID:        l.ID,
		ProductID: l.Product.ID,
		Name:      l.Product.Name,
		Price:     pricing.ParsePrice(l.Product.Price),
		ImageURL:  l.Product.ImageURL,
		Size:      l.Size,
		Color:     l.Color,
		Quantity:  l.Quantity,
	}
}

func fromGuest(l guestcart.Item) DisplayItem {
	return DisplayItem{
		ID:        l.ID,
		ProductID: l.ProductID,
		Name:      l.Name,
		Price:     pricing.ParsePrice(l.Price),
		ImageURL:  l.ImageURL,
		Size:      l.Size,
		Color:     l.Color,
		Quantity:  l.Quantity,
	}
}
