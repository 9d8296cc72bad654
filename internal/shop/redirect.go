package shop

import (
	"context"
	"errors"
	"strings"

	"univendor/internal/localstore"
)

// RedirectKey holds the route to return to after signing in.
const RedirectKey = "redirect_after_login"

// LoginPath is where unauthenticated visitors are sent.
const LoginPath = "/login"

type RedirectStore struct {
	storage localstore.Storage
}

func NewRedirectStore(storage localstore.Storage) *RedirectStore {
	return &RedirectStore{storage: storage}
}

// Save remembers route. Anything but a local absolute path is stored as
// the home page, so a target is always recorded.
func (r *RedirectStore) Save(ctx context.Context, route string) error {
	if !localPath(route) {
		route = "/"
	}
	return r.storage.Set(ctx, RedirectKey, []byte(route))
}

// Consume returns the saved route and forgets it.
func (r *RedirectStore) Consume(ctx context.Context) (string, bool) {
	raw, err := r.storage.Get(ctx, RedirectKey)
	if err != nil {
		return "", false
	}
	_ = r.storage.Delete(ctx, RedirectKey)
	route := string(raw)
	if !localPath(route) {
		return "", false
	}
	return route, true
}

// Peek returns the saved route without consuming it.
func (r *RedirectStore) Peek(ctx context.Context) (string, error) {
	raw, err := r.storage.Get(ctx, RedirectKey)
	if errors.Is(err, localstore.ErrNotFound) {
		return "", nil
	}
	return string(raw), err
}

func localPath(route string) bool {
	return strings.HasPrefix(route, "/") && !strings.HasPrefix(route, "//")
}
