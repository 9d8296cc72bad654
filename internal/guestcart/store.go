// Package guestcart keeps the cart of a visitor who has not signed in.
//
// The cart lives in memory and is written through to a localstore.Storage
// as a JSON array under StorageKey after every mutation. Reads never touch
// storage, so a read immediately after a write reflects that write.
package guestcart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"univendor/internal/localstore"
	"univendor/internal/logging"
	"univendor/internal/pricing"
)

// StorageKey is the storage key holding the persisted cart.
const StorageKey = "guest_cart"

// ErrItemNotFound is returned by UpdateQuantity for an unknown line id.
var ErrItemNotFound = errors.New("guest cart item not found")

// Item is one guest cart line. Price is the unit price as a decimal string.
type Item struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	ImageURL  string `json:"imageUrl"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
	Quantity  int    `json:"quantity"`
}

func (it Item) sameLine(other Item) bool {
	return it.ProductID == other.ProductID && it.Size == other.Size && it.Color == other.Color
}

type subscriber struct {
	id int
	fn func([]Item)
}

// Store is safe for concurrent use. Mutations are serialised, so two adds
// of the same line always sum.
type Store struct {
	storage localstore.Storage
	logger  *zap.Logger
	newID   func() string

	mu     sync.Mutex
	items  []Item
	issued uint64

	// delivered counts mutations whose listeners have run; a mutation
	// notifies only once every earlier one has.
	deliverMu sync.Mutex
	delivered uint64
	turn      *sync.Cond

	subsMu  sync.Mutex
	subs    []subscriber
	nextSub int
}

// Open loads the persisted cart. Missing or unreadable data yields an empty
// cart; the problem is logged at debug level and never returned. Lines
// without a product id are dropped, quantities are kept as stored.
func Open(ctx context.Context, storage localstore.Storage, logger *zap.Logger) *Store {
	s := &Store{
		storage: storage,
		logger:  logging.OrNop(logger),
		newID:   uuid.NewString,
	}
	s.turn = sync.NewCond(&s.deliverMu)
	s.items = s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) []Item {
	raw, err := s.storage.Get(ctx, StorageKey)
	if err != nil {
		if !errors.Is(err, localstore.ErrNotFound) {
			s.logger.Debug("guest cart: read failed, starting empty", zap.Error(err))
		}
		return nil
	}
	var stored []Item
	if err := json.Unmarshal(raw, &stored); err != nil {
		s.logger.Debug("guest cart: corrupt data, starting empty", zap.Error(err))
		return nil
	}
	items := make([]Item, 0, len(stored))
	for _, it := range stored {
		if it.ProductID == "" {
			continue
		}
		if it.ID == "" {
			it.ID = s.newID()
		}
		if i := indexOfLine(items, it); i >= 0 {
			items[i].Quantity += it.Quantity
			continue
		}
		items = append(items, it)
	}
	return items
}

// Items returns a copy of the current lines in insertion order.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

// AddItem merges item into the line with the same product, size and color,
// or appends it under a fresh id. A zero quantity adds one.
func (s *Store) AddItem(ctx context.Context, item Item) (Item, error) {
	if item.ProductID == "" {
		return Item{}, errors.New("guest cart: productId is required")
	}
	if item.Quantity < 0 {
		return Item{}, fmt.Errorf("guest cart: invalid quantity %d", item.Quantity)
	}
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	var line Item
	err := s.mutate(ctx, func(items []Item) []Item {
		if i := indexOfLine(items, item); i >= 0 {
			items[i].Quantity += item.Quantity
			line = items[i]
			return items
		}
		item.ID = s.newID()
		line = item
		return append(items, item)
	})
	return line, err
}

// RemoveItem deletes the line with id. Unknown ids are ignored.
func (s *Store) RemoveItem(ctx context.Context, id string) error {
	return s.mutate(ctx, func(items []Item) []Item {
		out := items[:0]
		for _, it := range items {
			if it.ID != id {
				out = append(out, it)
			}
		}
		return out
	})
}

// UpdateQuantity sets the quantity of line id. Any value is stored;
// callers enforce the floor of one.
func (s *Store) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	found := false
	err := s.mutate(ctx, func(items []Item) []Item {
		for i := range items {
			if items[i].ID == id {
				items[i].Quantity = quantity
				found = true
			}
		}
		return items
	})
	if err == nil && !found {
		return ErrItemNotFound
	}
	return err
}

// RemoveItems deletes the lines whose id is in ids and keeps the rest,
// including lines added after the caller took its snapshot.
func (s *Store) RemoveItems(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	return s.mutate(ctx, func(items []Item) []Item {
		out := items[:0]
		for _, it := range items {
			if _, ok := drop[it.ID]; !ok {
				out = append(out, it)
			}
		}
		return out
	})
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	return s.mutate(ctx, func([]Item) []Item { return nil })
}

// Total is Σ price × quantity. Unparseable prices count as zero.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pricing.Subtotal(Lines(s.items))
}

// ItemCount is the sum of quantities.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

// Subscribe registers fn to receive the cart after every mutation. Calls
// are made synchronously, in mutation order, after the mutating call has
// released the cart; fn may read the store but must not mutate it.
func (s *Store) Subscribe(fn func([]Item)) (unsubscribe func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			defer s.subsMu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// mutate applies fn to the live items, persists the result and notifies
// subscribers. The in-memory cart keeps the change even when persisting
// fails; the storage error is returned.
//
// Listeners run with mu released, each mutation waiting its turn behind
// the ones issued before it.
func (s *Store) mutate(ctx context.Context, fn func([]Item) []Item) error {
	s.mu.Lock()
	s.items = fn(s.items)
	snapshot := cloneItems(s.items)
	err := s.persist(ctx, snapshot)
	ticket := s.issued
	s.issued++
	s.mu.Unlock()

	s.deliverMu.Lock()
	for s.delivered != ticket {
		s.turn.Wait()
	}
	s.deliverMu.Unlock()

	defer func() {
		s.deliverMu.Lock()
		s.delivered++
		s.turn.Broadcast()
		s.deliverMu.Unlock()
	}()
	s.notify(snapshot)
	return err
}

func (s *Store) persist(ctx context.Context, items []Item) error {
	if items == nil {
		items = []Item{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("guest cart: encode: %w", err)
	}
	if err := s.storage.Set(ctx, StorageKey, raw); err != nil {
		s.logger.Warn("guest cart: persist failed", zap.Error(err))
		return fmt.Errorf("guest cart: persist: %w", err)
	}
	return nil
}

func (s *Store) notify(items []Item) {
	s.subsMu.Lock()
	subs := append([]subscriber(nil), s.subs...)
	s.subsMu.Unlock()
	for _, sub := range subs {
		sub.fn(cloneItems(items))
	}
}

// Lines adapts items for pricing.
func Lines(items []Item) []pricing.Line {
	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, pricing.Line{UnitPrice: pricing.ParsePrice(it.Price), Quantity: it.Quantity})
	}
	return lines
}

func indexOfLine(items []Item, item Item) int {
	for i := range items {
		if items[i].sameLine(item) {
			return i
		}
	}
	return -1
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}
