package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"univendor/internal/domain"
	"univendor/internal/logging"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger)}
}

const itemSelect = `
SELECT ci.id::text, ci.user_id::text, ci.product_id::text, ci.size, ci.color, ci.quantity, ci.created_at, ci.updated_at,
       p.vendor_id::text, p.name, p.price::text, p.image_url
FROM cart_items ci
JOIN products p ON p.id = ci.product_id
`

func (r *postgresRepo) List(ctx context.Context, userID string) ([]domain.CartItem, error) {
	rows, err := r.pool.Query(ctx, itemSelect+`
WHERE ci.user_id = $1
ORDER BY ci.created_at ASC, ci.id ASC
`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.CartItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *postgresRepo) Add(ctx context.Context, in AddItemInput) (*domain.CartItem, error) {
	const q = `
INSERT INTO cart_items (user_id, product_id, size, color, quantity)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id, product_id, size, color) DO UPDATE SET
    quantity = cart_items.quantity + EXCLUDED.quantity,
    updated_at = now()
RETURNING id::text
`
	var id string
	err := r.pool.QueryRow(ctx, q, in.UserID, in.ProductID, in.Size, in.Color, in.Quantity).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && (pgErr.Code == "23503" || pgErr.Code == "22P02") {
			// unknown product, or a product id that is not a uuid
			return nil, domain.ErrNotFound
		}
		r.logger.Error("cart repo: add", zap.String("user_id", in.UserID), zap.String("product_id", in.ProductID), zap.Error(err))
		return nil, err
	}
	return r.get(ctx, in.UserID, id)
}

func (r *postgresRepo) UpdateQuantity(ctx context.Context, userID, id string, quantity int) (*domain.CartItem, error) {
	cmd, err := r.pool.Exec(ctx, `
UPDATE cart_items
SET quantity = $1, updated_at = now()
WHERE id::text = $2 AND user_id = $3
`, quantity, id, userID)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, domain.ErrNotFound
	}
	return r.get(ctx, userID, id)
}

func (r *postgresRepo) Delete(ctx context.Context, userID, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE id::text = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) get(ctx context.Context, userID, id string) (*domain.CartItem, error) {
	item, err := scanItem(r.pool.QueryRow(ctx, itemSelect+`
WHERE ci.id::text = $1 AND ci.user_id = $2
`, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

func scanItem(row pgx.Row) (*domain.CartItem, error) {
	var item domain.CartItem
	var price string
	if err := row.Scan(
		&item.ID,
		&item.UserID,
		&item.ProductID,
		&item.Size,
		&item.Color,
		&item.Quantity,
		&item.CreatedAt,
		&item.UpdatedAt,
		&item.Product.VendorID,
		&item.Product.Name,
		&price,
		&item.Product.ImageURL,
	); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("cart item %s: parse price %q: %w", item.ID, price, err)
	}
	item.Product.ID = item.ProductID
	item.Product.Price = d
	return &item, nil
}
