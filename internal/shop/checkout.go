package shop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"univendor/internal/api"
	"univendor/internal/cartapi"
	"univendor/internal/logging"
	"univendor/internal/pricing"
)

type CheckoutState int

const (
	CheckoutIdle CheckoutState = iota
	CheckoutTotalsComputed
	CheckoutOrderSubmitted
	CheckoutComplete
	CheckoutFailed
)

func (s CheckoutState) String() string {
	switch s {
	case CheckoutIdle:
		return "idle"
	case CheckoutTotalsComputed:
		return "totals-computed"
	case CheckoutOrderSubmitted:
		return "order-submitted"
	case CheckoutComplete:
		return "complete"
	case CheckoutFailed:
		return "failed"
	default:
		return fmt.Sprintf("CheckoutState(%d)", int(s))
	}
}

var (
	ErrCheckoutNotOpen = errors.New("checkout is not open")
	ErrCartEmpty       = errors.New("cart is empty")
	ErrAddressRequired = errors.New("address, city and postal code are required")
)

const msgOrderFailed = "Failed to place order"

// OrderPlacer submits orders.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, addr api.ShippingAddress) (api.Order, error)
}

// Checkout drives idle → totals-computed → order-submitted → complete or
// failed. A failed checkout stays open and may be submitted again.
type Checkout struct {
	auth      AuthState
	view      *CartView
	orders    OrderPlacer
	redirects *RedirectStore
	nav       Navigator
	notifier  Notifier
	logger    *zap.Logger

	mu      sync.Mutex
	state   CheckoutState
	lastErr error
}

type CheckoutOptions struct {
	Redirects *RedirectStore
	Navigator Navigator
	Notifier  Notifier
	Logger    *zap.Logger
}

func NewCheckout(auth AuthState, view *CartView, orders OrderPlacer, opts CheckoutOptions) *Checkout {
	return &Checkout{
		auth:      auth,
		view:      view,
		orders:    orders,
		redirects: opts.Redirects,
		nav:       navigatorOrNop(opts.Navigator),
		notifier:  notifierOrNop(opts.Notifier),
		logger:    logging.OrNop(opts.Logger),
	}
}

// Begin opens checkout. A visitor who is not signed in is sent to the
// login page with currentRoute saved for afterwards, and Begin reports
// false.
func (c *Checkout) Begin(ctx context.Context, currentRoute string) (bool, error) {
	if !c.auth.Authenticated() {
		if c.redirects != nil {
			if err := c.redirects.Save(ctx, currentRoute); err != nil {
				c.logger.Warn("checkout: saving redirect failed", zap.Error(err))
			}
		}
		c.nav.Navigate(LoginPath)
		return false, nil
	}
	if len(c.view.Items()) == 0 {
		return false, ErrCartEmpty
	}
	c.mu.Lock()
	c.state = CheckoutTotalsComputed
	c.lastErr = nil
	c.mu.Unlock()
	return true, nil
}

// Totals are recomputed from the live cart on every call.
func (c *Checkout) Totals() pricing.Totals {
	return c.view.Totals()
}

func (c *Checkout) State() CheckoutState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err is the error of the last failed submission.
func (c *Checkout) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Open reports whether checkout is showing.
func (c *Checkout) Open() bool {
	switch c.State() {
	case CheckoutTotalsComputed, CheckoutOrderSubmitted, CheckoutFailed:
		return true
	}
	return false
}

// Cancel closes checkout without submitting.
func (c *Checkout) Cancel() {
	c.mu.Lock()
	if c.state != CheckoutOrderSubmitted {
		c.state = CheckoutIdle
	}
	c.mu.Unlock()
}

// Submit places the order. On success the cart is emptied and checkout
// closes; on failure it stays open with the cart untouched.
func (c *Checkout) Submit(ctx context.Context, addr api.ShippingAddress) (api.Order, error) {
	if !c.auth.Authenticated() {
		return api.Order{}, ErrCheckoutNotOpen
	}
	if strings.TrimSpace(addr.Address) == "" || strings.TrimSpace(addr.City) == "" || strings.TrimSpace(addr.PostalCode) == "" {
		return api.Order{}, ErrAddressRequired
	}
	c.mu.Lock()
	if c.state != CheckoutTotalsComputed && c.state != CheckoutFailed {
		c.mu.Unlock()
		return api.Order{}, ErrCheckoutNotOpen
	}
	c.state = CheckoutOrderSubmitted
	c.mu.Unlock()

	order, err := c.orders.PlaceOrder(ctx, addr)
	if err != nil {
		c.mu.Lock()
		c.state = CheckoutFailed
		c.lastErr = err
		c.mu.Unlock()
		c.logger.Warn("checkout failed", zap.Error(err))
		c.notifier.Notify(Notice{Kind: NoticeError, Message: cartapi.MessageOf(err, msgOrderFailed)})
		return api.Order{}, fmt.Errorf("place order: %w", err)
	}

	c.mu.Lock()
	c.state = CheckoutComplete
	c.lastErr = nil
	c.mu.Unlock()
	if err := c.view.ClearAfterOrder(ctx); err != nil {
		c.logger.Debug("checkout: clearing cart failed", zap.Error(err))
	}
	c.logger.Info("order placed", zap.String("order_id", order.ID), zap.String("total", order.Total))
	c.notifier.Notify(Notice{Kind: NoticeInfo, Message: "Order placed"})
	return order, nil
}
