package user

import (
	"context"
	"errors"
	"testing"

	"univendor/internal/db/dbtest"
	"univendor/internal/domain"
)

func TestPostgres_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)

	repo := NewPostgres(pool, nil)
	created, err := repo.Create(ctx, domain.User{Email: " Ada@Example.com ", FirstName: "Ada", LastName: "Lovelace", Phone: "555"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Email != "ada@example.com" || created.Role != domain.RoleBuyer {
		t.Fatalf("unexpected user %+v", created)
	}

	byEmail, err := repo.GetByEmail(ctx, "ADA@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if byEmail.ID != created.ID {
		t.Fatalf("expected %s, got %s", created.ID, byEmail.ID)
	}

	if _, err := repo.Create(ctx, domain.User{Email: "ada@example.com"}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if _, err := repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
