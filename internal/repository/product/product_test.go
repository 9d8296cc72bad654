package product

import (
	"context"
	"errors"
	"testing"

	"univendor/internal/db/dbtest"
	"univendor/internal/domain"
)

func TestPostgres_ListAndGet(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)

	acme := dbtest.Vendor(ctx, t, pool, "acme")
	other := dbtest.Vendor(ctx, t, pool, "other")
	pid := dbtest.Product(ctx, t, pool, acme, "Tee", "19.99")
	dbtest.Product(ctx, t, pool, other, "Mug", "7.50")
	if _, err := pool.Exec(ctx, `UPDATE products SET attributes = '{"sizes":["S","M"]}'::jsonb WHERE id = $1`, pid); err != nil {
		t.Fatalf("set attributes: %v", err)
	}

	repo := NewPostgres(pool, nil)

	all, err := repo.List(ctx, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 products, got %d", len(all))
	}
	scoped, err := repo.List(ctx, acme)
	if err != nil {
		t.Fatalf("List vendor: %v", err)
	}
	if len(scoped) != 1 || scoped[0].ID != pid {
		t.Fatalf("unexpected scoped list %+v", scoped)
	}

	got, err := repo.GetByID(ctx, pid)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Price.String() != "19.99" || got.VendorID != acme {
		t.Fatalf("unexpected product %+v", got)
	}
	if sizes := got.Options("sizes"); len(sizes) != 2 {
		t.Fatalf("expected sizes, got %v", sizes)
	}

	if _, err := repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
