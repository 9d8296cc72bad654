package shop

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"univendor/internal/api"
	"univendor/internal/cartapi"
	"univendor/internal/logging"
)

var (
	ErrLineNotFound    = errors.New("cart line not found")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

const (
	msgAddFailed    = "Failed to add item to cart"
	msgUpdateFailed = "Failed to update cart item"
	msgRemoveFailed = "Failed to remove item from cart"
)

// CartAPI is the server cart endpoint set.
type CartAPI interface {
	ListCart(ctx context.Context) ([]api.CartItem, error)
	AddCartItem(ctx context.Context, req api.AddCartItemRequest) (api.CartItem, error)
	UpdateCartItem(ctx context.Context, id string, quantity int) (api.CartItem, error)
	RemoveCartItem(ctx context.Context, id string) error
}

// ServerCart caches the signed-in user's cart.
//
// Update and remove change the cache before the request goes out and roll
// back if it fails. Every mutation ends with a refresh. A refresh result is
// dropped when a mutation started after the refresh did or is still in
// flight, so a slow refresh never overwrites a newer optimistic write.
type ServerCart struct {
	api      CartAPI
	notifier Notifier
	logger   *zap.Logger

	mu       sync.Mutex
	items    []api.CartItem
	epoch    uint64
	inflight int

	subsMu sync.Mutex
	subs   map[int]func([]api.CartItem)
	nextID int
}

func NewServerCart(cartAPI CartAPI, notifier Notifier, logger *zap.Logger) *ServerCart {
	return &ServerCart{
		api:      cartAPI,
		notifier: notifierOrNop(notifier),
		logger:   logging.OrNop(logger),
		items:    []api.CartItem{},
		subs:     make(map[int]func([]api.CartItem)),
	}
}

// Items returns a copy of the cached cart.
func (c *ServerCart) Items() []api.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneLines(c.items)
}

// Subscribe registers fn to receive the cache after it changes.
func (c *ServerCart) Subscribe(fn func([]api.CartItem)) (unsubscribe func()) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	c.nextID++
	id := c.nextID
	c.subs[id] = fn
	return func() {
		c.subsMu.Lock()
		delete(c.subs, id)
		c.subsMu.Unlock()
	}
}

// Refresh replaces the cache with the server's cart.
func (c *ServerCart) Refresh(ctx context.Context) error {
	c.mu.Lock()
	started := c.epoch
	c.mu.Unlock()

	items, err := c.api.ListCart(ctx)
	if err != nil {
		c.logger.Debug("server cart: refresh failed", zap.Error(err))
		return fmt.Errorf("refresh cart: %w", err)
	}

	c.mu.Lock()
	if c.epoch != started || c.inflight > 0 {
		c.mu.Unlock()
		c.logger.Debug("server cart: discarding stale refresh")
		return nil
	}
	c.items = cloneLines(items)
	snapshot := cloneLines(c.items)
	c.mu.Unlock()
	c.notify(snapshot)
	return nil
}

// Reset drops the cache, for sign-out.
func (c *ServerCart) Reset() {
	c.mu.Lock()
	c.epoch++
	c.items = []api.CartItem{}
	c.mu.Unlock()
	c.notify([]api.CartItem{})
}

// Add posts a line; the server merges it with a matching line.
func (c *ServerCart) Add(ctx context.Context, req api.AddCartItemRequest) error {
	c.begin()
	_, err := c.api.AddCartItem(ctx, req)
	c.end()
	if err != nil {
		c.fail(err, msgAddFailed)
	}
	c.reconcile(ctx)
	return err
}

// UpdateQuantity sets a line's quantity optimistically.
func (c *ServerCart) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	c.mu.Lock()
	i := indexOfID(c.items, id)
	if i < 0 {
		c.mu.Unlock()
		return ErrLineNotFound
	}
	snapshot := cloneLines(c.items)
	before := c.items[i]
	c.items = cloneLines(c.items)
	c.items[i].Quantity = quantity
	epoch := c.startLocked()
	optimistic := cloneLines(c.items)
	c.mu.Unlock()
	c.notify(optimistic)

	_, err := c.api.UpdateCartItem(ctx, id, quantity)
	c.settle(err, epoch, snapshot, func(items []api.CartItem) []api.CartItem {
		if j := indexOfID(items, id); j >= 0 && items[j].Quantity == quantity {
			items[j] = before
		}
		return items
	})
	if err != nil {
		c.fail(err, msgUpdateFailed)
	}
	c.reconcile(ctx)
	return err
}

// Remove deletes a line optimistically.
func (c *ServerCart) Remove(ctx context.Context, id string) error {
	c.mu.Lock()
	i := indexOfID(c.items, id)
	if i < 0 {
		c.mu.Unlock()
		return ErrLineNotFound
	}
	snapshot := cloneLines(c.items)
	removed := c.items[i]
	next := make([]api.CartItem, 0, len(c.items)-1)
	next = append(next, c.items[:i]...)
	c.items = append(next, c.items[i+1:]...)
	epoch := c.startLocked()
	optimistic := cloneLines(c.items)
	c.mu.Unlock()
	c.notify(optimistic)

	err := c.api.RemoveCartItem(ctx, id)
	c.settle(err, epoch, snapshot, func(items []api.CartItem) []api.CartItem {
		if indexOfID(items, id) >= 0 {
			return items
		}
		at := min(i, len(items))
		out := make([]api.CartItem, 0, len(items)+1)
		out = append(out, items[:at]...)
		out = append(out, removed)
		return append(out, items[at:]...)
	})
	if err != nil {
		c.fail(err, msgRemoveFailed)
	}
	c.reconcile(ctx)
	return err
}

func (c *ServerCart) begin() {
	c.mu.Lock()
	c.startLocked()
	c.mu.Unlock()
}

func (c *ServerCart) end() {
	c.mu.Lock()
	c.inflight--
	c.mu.Unlock()
}

func (c *ServerCart) startLocked() uint64 {
	c.epoch++
	c.inflight++
	return c.epoch
}

// settle finishes an optimistic mutation. On failure the cart goes back to
// snapshot exactly when nothing else has started since; otherwise revert
// undoes this mutation's own write, leaving a line that a later mutation
// has since rewritten alone.
func (c *ServerCart) settle(err error, epoch uint64, snapshot []api.CartItem, revert func([]api.CartItem) []api.CartItem) {
	c.mu.Lock()
	c.inflight--
	if err == nil {
		c.mu.Unlock()
		return
	}
	if c.epoch == epoch {
		c.items = snapshot
	} else {
		c.items = revert(cloneLines(c.items))
	}
	rolled := cloneLines(c.items)
	c.mu.Unlock()
	c.notify(rolled)
}

func (c *ServerCart) fail(err error, fallback string) {
	c.logger.Warn("server cart: mutation failed", zap.String("notice", fallback), zap.Error(err))
	c.notifier.Notify(Notice{Kind: NoticeError, Message: cartapi.MessageOf(err, fallback)})
}

func (c *ServerCart) reconcile(ctx context.Context) {
	if err := c.Refresh(ctx); err != nil {
		c.logger.Debug("server cart: reconcile failed", zap.Error(err))
	}
}

func (c *ServerCart) notify(items []api.CartItem) {
	c.subsMu.Lock()
	fns := make([]func([]api.CartItem), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subsMu.Unlock()
	for _, fn := range fns {
		fn(cloneLines(items))
	}
}

func indexOfID(items []api.CartItem, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneLines(items []api.CartItem) []api.CartItem {
	out := make([]api.CartItem, len(items))
	copy(out, items)
	return out
}
