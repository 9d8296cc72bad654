package shop

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"univendor/internal/api"
	"univendor/internal/guestcart"
	"univendor/internal/logging"
)

const defaultMigrateConcurrency = 4

// CartAdder is the one endpoint migration needs.
type CartAdder interface {
	AddCartItem(ctx context.Context, req api.AddCartItemRequest) (api.CartItem, error)
}

// MigrationResult counts what a migration attempted.
type MigrationResult struct {
	Attempted int
	Failed    []guestcart.Item
}

// Migrator moves the guest cart into the server cart after sign-in.
// Each line is posted at most once and the posted lines are removed from
// the guest cart whether or not every post succeeded; failed lines are
// logged, never retried. Lines added while the posts are in flight stay.
type Migrator struct {
	guest  *guestcart.Store
	api    CartAdder
	logger *zap.Logger
	limit  int
}

func NewMigrator(guest *guestcart.Store, cartAPI CartAdder, logger *zap.Logger) *Migrator {
	return &Migrator{guest: guest, api: cartAPI, logger: logging.OrNop(logger), limit: defaultMigrateConcurrency}
}

func (m *Migrator) Run(ctx context.Context) MigrationResult {
	items := m.guest.Items()
	if len(items) == 0 {
		return MigrationResult{}
	}

	var (
		mu     sync.Mutex
		failed []guestcart.Item
		g      errgroup.Group
	)
	g.SetLimit(m.limit)
	for _, it := range items {
		g.Go(func() error {
			_, err := m.api.AddCartItem(ctx, api.AddCartItemRequest{
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				Size:      it.Size,
				Color:     it.Color,
			})
			if err != nil {
				m.logger.Warn("cart migration: line not added",
					zap.String("product_id", it.ProductID),
					zap.String("size", it.Size),
					zap.String("color", it.Color),
					zap.Int("quantity", it.Quantity),
					zap.Error(err))
				mu.Lock()
				failed = append(failed, it)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	if err := m.guest.RemoveItems(ctx, ids); err != nil {
		m.logger.Warn("cart migration: clearing guest cart failed", zap.Error(err))
	}
	m.logger.Info("cart migration finished", zap.Int("lines", len(items)), zap.Int("failed", len(failed)))
	return MigrationResult{Attempted: len(items), Failed: failed}
}
