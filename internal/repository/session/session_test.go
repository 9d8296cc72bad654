package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"univendor/internal/db/dbtest"
	"univendor/internal/domain"
)

func TestPostgres_Lifecycle(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	userID := dbtest.User(ctx, t, pool, "s@example.com")

	repo := NewPostgres(pool)
	now := time.Now().UTC()
	if err := repo.Create(ctx, Session{Token: "live", UserID: userID, ExpiresAt: now.Add(time.Hour)}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, Session{Token: "stale", UserID: userID, ExpiresAt: now.Add(-time.Hour)}); err != nil {
		t.Fatalf("Create stale: %v", err)
	}
	if err := repo.Create(ctx, Session{Token: "live", UserID: userID, ExpiresAt: now}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	got, err := repo.Get(ctx, "live")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.UserID != userID {
		t.Fatalf("unexpected session %+v", got)
	}

	n, err := repo.DeleteExpired(ctx, now)
	if err != nil || n != 1 {
		t.Fatalf("DeleteExpired: n=%d err=%v", n, err)
	}
	if err := repo.Delete(ctx, "live"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, "live"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_Impersonation(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(ctx, t)
	adminID := dbtest.User(ctx, t, pool, "admin@example.com")
	buyerID := dbtest.User(ctx, t, pool, "buyer@example.com")

	repo := NewPostgres(pool)
	if err := repo.Create(ctx, Session{Token: "adm", UserID: adminID, ExpiresAt: time.Now().Add(time.Hour)}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.SetImpersonation(ctx, "adm", &buyerID); err != nil {
		t.Fatalf("SetImpersonation: %v", err)
	}
	got, err := repo.Get(ctx, "adm")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ImpersonatedUserID == nil || *got.ImpersonatedUserID != buyerID {
		t.Fatalf("expected impersonation of %s, got %+v", buyerID, got.ImpersonatedUserID)
	}

	if err := repo.SetImpersonation(ctx, "adm", nil); err != nil {
		t.Fatalf("clear impersonation: %v", err)
	}
	got, err = repo.Get(ctx, "adm")
	if err != nil || got.ImpersonatedUserID != nil {
		t.Fatalf("expected impersonation cleared, got %+v err=%v", got, err)
	}

	missing := "00000000-0000-0000-0000-000000000000"
	if err := repo.SetImpersonation(ctx, "adm", &missing); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
	if err := repo.SetImpersonation(ctx, "nope", nil); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown session, got %v", err)
	}
}
