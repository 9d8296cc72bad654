// Package dbtest provides the Postgres fixture shared by repository
// integration tests. Tests are skipped unless TEST_DB_DSN is set.
package dbtest

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"univendor/internal/db"
	"univendor/internal/migrate"
)

// Pool connects to TEST_DB_DSN, applies migrations and truncates every table.
func Pool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	opts := db.DefaultPoolOptions("univendor-test")
	opts.MaxConns = 4
	pool, err := db.Connect(ctx, dsn, opts, nil)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE order_items, orders, cart_items, products, otps, sessions, users, vendors RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	return pool
}

// Vendor inserts a vendor and returns its id.
func Vendor(ctx context.Context, t *testing.T, pool *pgxpool.Pool, key string) string {
	t.Helper()
	var id string
	if err := pool.QueryRow(ctx, `INSERT INTO vendors (key, name) VALUES ($1, $1) RETURNING id::text`, key).Scan(&id); err != nil {
		t.Fatalf("insert vendor: %v", err)
	}
	return id
}

// User inserts a buyer and returns its id.
func User(ctx context.Context, t *testing.T, pool *pgxpool.Pool, email string) string {
	t.Helper()
	var id string
	if err := pool.QueryRow(ctx, `INSERT INTO users (email) VALUES ($1) RETURNING id::text`, email).Scan(&id); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return id
}

// Product inserts a product priced at price and returns its id.
func Product(ctx context.Context, t *testing.T, pool *pgxpool.Pool, vendorID, name, price string) string {
	t.Helper()
	var id string
	if err := pool.QueryRow(ctx, `INSERT INTO products (vendor_id, name, price) VALUES ($1, $2, $3::numeric) RETURNING id::text`, vendorID, name, price).Scan(&id); err != nil {
		t.Fatalf("insert product: %v", err)
	}
	return id
}
