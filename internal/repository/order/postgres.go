package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"univendor/internal/domain"
	"univendor/internal/logging"
	"univendor/internal/pricing"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger)}
}

const orderColumns = `id::text, user_id::text, vendor_id::text, subtotal::text, shipping::text, tax::text, total::text, status, shipping_address, created_at`

func (r *postgresRepo) PlaceFromCart(ctx context.Context, userID string, addr domain.ShippingAddress) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
SELECT ci.product_id::text, p.vendor_id::text, p.name, p.image_url, p.price::text, ci.quantity, ci.size, ci.color
FROM cart_items ci
JOIN products p ON p.id = ci.product_id
WHERE ci.user_id = $1
ORDER BY ci.created_at ASC, ci.id ASC
FOR UPDATE OF ci
`, userID)
	if err != nil {
		return nil, err
	}
	var items []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		var price string
		if err := rows.Scan(&it.Product.ID, &it.Product.VendorID, &it.Product.Name, &it.Product.ImageURL, &price, &it.Quantity, &it.Size, &it.Color); err != nil {
			rows.Close()
			return nil, err
		}
		if it.UnitPrice, err = decimal.NewFromString(price); err != nil {
			rows.Close()
			return nil, fmt.Errorf("product %s: parse price %q: %w", it.Product.ID, price, err)
		}
		it.Product.Price = it.UnitPrice
		items = append(items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, pricing.Line{UnitPrice: it.UnitPrice, Quantity: it.Quantity})
	}
	totals := pricing.Compute(lines).Rounded()

	o := domain.Order{
		UserID:          userID,
		VendorID:        singleVendor(items),
		Subtotal:        totals.Subtotal,
		Shipping:        totals.Shipping,
		Tax:             totals.Tax,
		Total:           totals.Total,
		Status:          domain.OrderPending,
		ShippingAddress: addr,
	}
	if err := tx.QueryRow(ctx, `
INSERT INTO orders (user_id, vendor_id, subtotal, shipping, tax, total, status, shipping_address)
VALUES ($1, $2, $3::numeric, $4::numeric, $5::numeric, $6::numeric, $7, $8)
RETURNING id::text, created_at
`, userID, o.VendorID,
		pricing.Format(o.Subtotal), pricing.Format(o.Shipping), pricing.Format(o.Tax), pricing.Format(o.Total),
		string(o.Status), addr,
	).Scan(&o.ID, &o.CreatedAt); err != nil {
		return nil, err
	}

	for i := range items {
		it := &items[i]
		it.OrderID = o.ID
		if err := tx.QueryRow(ctx, `
INSERT INTO order_items (order_id, product_id, vendor_id, name, image_url, unit_price, quantity, size, color)
VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9)
RETURNING id::text
`, o.ID, it.Product.ID, it.Product.VendorID, it.Product.Name, it.Product.ImageURL,
			pricing.Format(it.UnitPrice), it.Quantity, it.Size, it.Color,
		).Scan(&it.ID); err != nil {
			return nil, err
		}
	}
	o.Items = items

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Info("order placed",
		zap.String("order_id", o.ID),
		zap.String("user_id", userID),
		zap.Int("items", len(items)),
		zap.String("total", pricing.Format(o.Total)),
	)
	return &o, nil
}

// singleVendor returns the vendor shared by every item, or nil for a
// multi-vendor order.
func singleVendor(items []domain.OrderItem) *string {
	if len(items) == 0 {
		return nil
	}
	v := items[0].Product.VendorID
	for _, it := range items[1:] {
		if it.Product.VendorID != v {
			return nil
		}
	}
	return &v
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+orderColumns+`
FROM orders
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
`, userID)
	if err != nil {
		return nil, err
	}
	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		orders = append(orders, *o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].Items, err = r.items(ctx, orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `
SELECT `+orderColumns+`
FROM orders
WHERE id::text = $1
`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if o.Items, err = r.items(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (*domain.Order, error) {
	cmd, err := r.pool.Exec(ctx, `UPDATE orders SET status = $1 WHERE id::text = $2 AND status = $3`, string(to), id, string(from))
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, domain.ErrInvalidTransition
	}
	r.logger.Info("order status changed", zap.String("order_id", id), zap.String("from", string(from)), zap.String("to", string(to)))
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) items(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id::text, order_id::text, product_id::text, vendor_id::text, name, image_url, unit_price::text, quantity, size, color
FROM order_items
WHERE order_id = $1
ORDER BY id
`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		var price string
		if err := rows.Scan(&it.ID, &it.OrderID, &it.Product.ID, &it.Product.VendorID, &it.Product.Name, &it.Product.ImageURL, &price, &it.Quantity, &it.Size, &it.Color); err != nil {
			return nil, err
		}
		if it.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		it.Product.Price = it.UnitPrice
		out = append(out, it)
	}
	return out, rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var status string
	var subtotal, shipping, tax, total string
	if err := row.Scan(&o.ID, &o.UserID, &o.VendorID, &subtotal, &shipping, &tax, &total, &status, &o.ShippingAddress, &o.CreatedAt); err != nil {
		return nil, err
	}
	for _, f := range []struct {
		dst *decimal.Decimal
		src string
	}{{&o.Subtotal, subtotal}, {&o.Shipping, shipping}, {&o.Tax, tax}, {&o.Total, total}} {
		d, err := decimal.NewFromString(f.src)
		if err != nil {
			return nil, fmt.Errorf("order %s: parse amount %q: %w", o.ID, f.src, err)
		}
		*f.dst = d
	}
	o.Status = domain.OrderStatus(status)
	return &o, nil
}
