package shop

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"univendor/internal/api"
	"univendor/internal/cartapi"
	"univendor/internal/guestcart"
)

func signIn(t *testing.T, h *harness) {
	t.Helper()
	_, err := h.session.LoginWithEmail(context.Background(), "buyer@example.com")
	require.NoError(t, err)
	require.True(t, h.session.Authenticated())
}

func TestUpdateQuantity_FailureRollsBackExactly(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	a := h.api.seed("p1", "19.99", 2)
	h.api.seed("p2", "5.00", 1)
	signIn(t, h)

	before := h.view.Items()
	h.api.updateErr = errNetwork

	err := h.view.SetQuantity(ctx, a, 7)
	require.Error(t, err)
	if diff := cmp.Diff(before, h.view.Items()); diff != "" {
		t.Fatalf("cart after rollback differs (-before +after):\n%s", diff)
	}
	assert.Equal(t, []string{msgUpdateFailed}, h.rec.messages())
}

func TestUpdateQuantity_ServerMessageWins(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	a := h.api.seed("p1", "19.99", 2)
	signIn(t, h)
	h.api.updateErr = &cartapi.APIError{Status: 400, Message: "quantity must be at least 1"}

	require.Error(t, h.view.SetQuantity(ctx, a, 3))
	assert.Equal(t, []string{"quantity must be at least 1"}, h.rec.messages())
}

func TestUpdateQuantity_OptimisticBeforeResponse(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	a := h.api.seed("p1", "19.99", 1)
	signIn(t, h)

	h.api.holdUpdate = make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- h.cart.UpdateQuantity(ctx, a, 5) }()

	require.Eventually(t, func() bool {
		items := h.cart.Items()
		return len(items) == 1 && items[0].Quantity == 5
	}, time.Second, time.Millisecond)

	// a refresh racing the in-flight update must not clobber it
	require.NoError(t, h.cart.Refresh(ctx))
	assert.Equal(t, 5, h.cart.Items()[0].Quantity)

	close(h.api.holdUpdate)
	require.NoError(t, <-done)
	assert.Equal(t, 5, h.cart.Items()[0].Quantity)
}

func TestRefresh_DiscardedWhenMutationStartsDuringFetch(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	a := h.api.seed("p1", "19.99", 1)
	signIn(t, h)

	h.api.beforeList = func() {
		h.api.beforeList = nil
		require.NoError(t, h.cart.UpdateQuantity(ctx, a, 3))
		h.api.mu.Lock()
		h.api.lines[0].Quantity = 99
		h.api.mu.Unlock()
	}
	require.NoError(t, h.cart.Refresh(ctx))
	// the outer fetch read 99 after the update began, so it is dropped
	assert.Equal(t, 3, h.cart.Items()[0].Quantity)
}

func TestRemove_FailureRestoresLine(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.api.seed("p1", "1.00", 1)
	b := h.api.seed("p2", "2.00", 1)
	h.api.seed("p3", "3.00", 1)
	signIn(t, h)
	before := h.view.Items()
	h.api.removeErr = errNetwork

	require.Error(t, h.view.Remove(ctx, b))
	if diff := cmp.Diff(before, h.view.Items()); diff != "" {
		t.Fatalf("cart after rollback differs (-before +after):\n%s", diff)
	}
	assert.Equal(t, []string{msgRemoveFailed}, h.rec.messages())
}

func TestRemove_Success(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	a := h.api.seed("p1", "1.00", 1)
	signIn(t, h)

	require.NoError(t, h.view.Remove(ctx, a))
	assert.Empty(t, h.view.Items())
	assert.Empty(t, h.rec.messages())
}

func TestSettle_RevertsOnlyOwnLineWhenOthersFollowed(t *testing.T) {
	h := newHarness()
	c := h.cart
	c.items = []api.CartItem{{ID: "a", Quantity: 1}, {ID: "b", Quantity: 1}}

	c.mu.Lock()
	snapshot := cloneLines(c.items)
	c.items[0].Quantity = 4
	first := c.startLocked()
	c.items[1].Quantity = 6
	c.startLocked()
	c.mu.Unlock()

	c.settle(errNetwork, first, snapshot, func(items []api.CartItem) []api.CartItem {
		items[0] = api.CartItem{ID: "a", Quantity: 1}
		return items
	})
	assert.Equal(t, []api.CartItem{{ID: "a", Quantity: 1}, {ID: "b", Quantity: 6}}, c.Items())
}

func TestUpdateQuantity_FailureKeepsLaterWriteToSameLine(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	a := h.api.seed("p1", "19.99", 1)
	signIn(t, h)

	release := make(chan struct{})
	h.api.updateGate = func(_ string, quantity int) error {
		if quantity == 2 {
			<-release
			return errNetwork
		}
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- h.cart.UpdateQuantity(ctx, a, 2) }()
	require.Eventually(t, func() bool {
		items := h.cart.Items()
		return len(items) == 1 && items[0].Quantity == 2
	}, time.Second, time.Millisecond)

	require.NoError(t, h.cart.UpdateQuantity(ctx, a, 3))
	assert.Equal(t, 3, h.cart.Items()[0].Quantity)

	seen := -1
	h.api.beforeList = func() { seen = h.cart.Items()[0].Quantity }
	close(release)
	require.Error(t, <-done)

	assert.Equal(t, 3, seen, "the failed write must not revert the newer one")
	assert.Equal(t, 3, h.cart.Items()[0].Quantity)
	assert.Equal(t, []string{msgUpdateFailed}, h.rec.messages())
}

func TestView_GuestSourceUntilSignedIn(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.api.seed("server-only", "1.00", 1)

	require.NoError(t, h.view.Add(ctx, api.Product{ID: "p1", Name: "Tee", Price: "19.99"}, "M", "", 2))
	items := h.view.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].ProductID)
	assert.Equal(t, "39.98", items[0].LineTotal().StringFixed(2))
	assert.Equal(t, 2, h.view.Count())
	assert.Empty(t, h.api.adds, "guest adds never reach the server")
}

func TestView_SubscribeFollowsActiveCart(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.api.seed("server-1", "4.00", 3)

	var counts []int
	unsubscribe := h.view.Subscribe(func(items []DisplayItem) {
		n := 0
		for _, it := range items {
			n += it.Quantity
		}
		counts = append(counts, n)
	})

	require.NoError(t, h.view.Add(ctx, api.Product{ID: "p1", Price: "1.00"}, "", "", 2))
	assert.Equal(t, 2, counts[len(counts)-1], "guest add reaches the badge")

	signIn(t, h)
	assert.Equal(t, 5, counts[len(counts)-1], "server cart with the migrated line")

	a := h.view.Items()[0].ID
	require.NoError(t, h.view.SetQuantity(ctx, a, 4))
	assert.Equal(t, 6, counts[len(counts)-1])

	require.NoError(t, h.session.Logout(ctx))
	assert.Equal(t, 0, counts[len(counts)-1], "signed out shows the emptied guest cart")

	unsubscribe()
	n := len(counts)
	require.NoError(t, h.view.Add(ctx, api.Product{ID: "p2", Price: "1.00"}, "", "", 1))
	assert.Len(t, counts, n)
}

func TestView_DecrementFloorsAtOne(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	require.NoError(t, h.view.Add(ctx, api.Product{ID: "p1", Price: "1.00"}, "", "", 2))
	id := h.view.Items()[0].ID

	require.NoError(t, h.view.Decrement(ctx, id))
	require.NoError(t, h.view.Decrement(ctx, id))
	assert.Equal(t, 1, h.view.Items()[0].Quantity)
	require.NoError(t, h.view.Increment(ctx, id))
	assert.Equal(t, 2, h.view.Items()[0].Quantity)

	assert.ErrorIs(t, h.view.SetQuantity(ctx, id, 0), ErrInvalidQuantity)
	assert.ErrorIs(t, h.view.Increment(ctx, "missing"), ErrLineNotFound)
}

func TestMigration_EachLineOnceThenGuestCleared(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	for _, p := range []api.Product{{ID: "p1", Price: "1.00"}, {ID: "p2", Price: "2.00"}, {ID: "p3", Price: "3.00"}} {
		require.NoError(t, h.view.Add(ctx, p, "", "Red", 2))
	}

	signIn(t, h)

	assert.Empty(t, h.guest.Items())
	require.Len(t, h.api.adds, 3)
	seen := map[string]int{}
	for _, add := range h.api.adds {
		seen[add.ProductID]++
		assert.Equal(t, 2, add.Quantity)
		assert.Equal(t, "Red", add.Color)
	}
	assert.Equal(t, map[string]int{"p1": 1, "p2": 1, "p3": 1}, seen)
	assert.Len(t, h.view.Items(), 3, "server cart is shown with the migrated lines")
}

func TestMigration_FailureStillClearsAndSignsIn(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	require.NoError(t, h.view.Add(ctx, api.Product{ID: "p1", Price: "1.00"}, "", "", 1))
	require.NoError(t, h.view.Add(ctx, api.Product{ID: "p2", Price: "1.00"}, "", "", 1))
	h.api.failAdd["p1"] = errNetwork

	signIn(t, h)
	assert.Empty(t, h.guest.Items())
	assert.Len(t, h.view.Items(), 1)
	assert.Empty(t, h.rec.messages(), "migration failures are not surfaced")

	signIn(t, h)
	assert.Len(t, h.api.adds, 2, "a later sign-in does not replay the guest cart")
}

type cartAdderFunc func(context.Context, api.AddCartItemRequest) (api.CartItem, error)

func (f cartAdderFunc) AddCartItem(ctx context.Context, req api.AddCartItemRequest) (api.CartItem, error) {
	return f(ctx, req)
}

func TestMigration_KeepsLinesAddedDuringPosts(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	_, err := h.guest.AddItem(ctx, guestcart.Item{ProductID: "p1", Price: "1.00", Quantity: 1})
	require.NoError(t, err)

	var posted []string
	adder := cartAdderFunc(func(ctx context.Context, req api.AddCartItemRequest) (api.CartItem, error) {
		posted = append(posted, req.ProductID)
		_, err := h.guest.AddItem(ctx, guestcart.Item{ProductID: "late", Price: "2.00", Quantity: 1})
		require.NoError(t, err)
		return api.CartItem{ID: "srv-" + req.ProductID, Quantity: req.Quantity}, nil
	})

	res := NewMigrator(h.guest, adder, nil).Run(ctx)
	assert.Equal(t, 1, res.Attempted)
	assert.Equal(t, []string{"p1"}, posted)

	items := h.guest.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "late", items[0].ProductID)
}

func TestMigration_EmptyGuestCartIsNoop(t *testing.T) {
	h := newHarness()
	res := NewMigrator(h.guest, h.api, nil).Run(context.Background())
	assert.Zero(t, res.Attempted)
	assert.Empty(t, h.api.adds)
}

func TestRestore_NeverMigrates(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	require.NoError(t, h.view.Add(ctx, api.Product{ID: "p1", Price: "1.00"}, "", "", 1))

	ok, err := h.session.Restore(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	h.api.user = &api.User{ID: "u1", Role: "buyer"}
	ok, err = h.session.Restore(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, h.api.adds)
	assert.Len(t, h.guest.Items(), 1)
	assert.Empty(t, h.rec.routes)
}

func TestSignIn_RedirectPrecedence(t *testing.T) {
	ctx := context.Background()

	t.Run("role path", func(t *testing.T) {
		h := newHarness()
		h.api.user = &api.User{ID: "s1", Role: "seller"}
		res, err := h.session.LoginWithEmail(ctx, "s@example.com")
		require.NoError(t, err)
		assert.Equal(t, "/seller", res.RedirectTo)
	})

	t.Run("saved route wins and is consumed", func(t *testing.T) {
		h := newHarness()
		require.NoError(t, h.redirects.Save(ctx, "/checkout"))
		res, err := h.session.LoginWithEmail(ctx, "b@example.com")
		require.NoError(t, err)
		assert.Equal(t, "/checkout", res.RedirectTo)
		assert.Equal(t, []string{"/checkout"}, h.rec.routes)
		_, ok := h.redirects.Consume(ctx)
		assert.False(t, ok)
	})

	t.Run("registration required", func(t *testing.T) {
		h := newHarness()
		h.api.verify = api.AuthResponse{RequiresRegistration: true}
		res, err := h.session.VerifyOTP(ctx, "new@example.com", "123456")
		require.NoError(t, err)
		assert.True(t, res.RequiresRegistration)
		assert.False(t, h.session.Authenticated())

		res, err = h.session.Register(ctx, api.RegisterRequest{Email: "new@example.com", FirstName: "N"})
		require.NoError(t, err)
		assert.Equal(t, "new", res.User.ID)
		assert.True(t, h.session.Authenticated())
	})
}

func TestLogout_ReturnsToGuestCart(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.api.seed("p1", "1.00", 1)
	signIn(t, h)
	require.Len(t, h.view.Items(), 1)

	require.NoError(t, h.session.Logout(ctx))
	assert.False(t, h.session.Authenticated())
	assert.Empty(t, h.view.Items())
	assert.Empty(t, h.cart.Items())
}

func TestCheckout_UnauthenticatedRedirects(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	require.NoError(t, h.view.Add(ctx, api.Product{ID: "p1", Price: "1.00"}, "", "", 1))

	ok, err := h.checkout.Begin(ctx, "/cart")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, CheckoutIdle, h.checkout.State())
	assert.Equal(t, []string{LoginPath}, h.rec.routes)
	saved, err := h.redirects.Peek(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/cart", saved)

	_, err = h.checkout.Submit(ctx, api.ShippingAddress{Address: "1 Main", City: "X", PostalCode: "1"})
	assert.ErrorIs(t, err, ErrCheckoutNotOpen)
	assert.Zero(t, h.api.orderCount())
}

func TestCheckout_TotalsFollowLiveCart(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	a := h.api.seed("p1", "199.99", 1)
	signIn(t, h)

	ok, err := h.checkout.Begin(ctx, "/cart")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, CheckoutTotalsComputed, h.checkout.State())
	assert.Equal(t, "225.98", h.checkout.Totals().Total.StringFixed(2))

	require.NoError(t, h.view.SetQuantity(ctx, a, 2))
	// 399.98 + 9.99 + 31.9984
	assert.Equal(t, "441.97", h.checkout.Totals().Total.StringFixed(2))
}

func TestCheckout_SuccessClearsCart(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.api.seed("p1", "10.00", 1)
	signIn(t, h)
	_, err := h.checkout.Begin(ctx, "/cart")
	require.NoError(t, err)

	order, err := h.checkout.Submit(ctx, api.ShippingAddress{Address: "1 Main", City: "Springfield", PostalCode: "12345"})
	require.NoError(t, err)
	assert.Equal(t, "order-1", order.ID)
	assert.Equal(t, CheckoutComplete, h.checkout.State())
	assert.False(t, h.checkout.Open())
	assert.Empty(t, h.view.Items())
}

func TestCheckout_FailureKeepsCartAndStaysOpen(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.api.seed("p1", "10.00", 1)
	signIn(t, h)
	_, err := h.checkout.Begin(ctx, "/cart")
	require.NoError(t, err)
	h.api.orderErr = &cartapi.APIError{Status: 500, Message: cartapi.GenericError}
	addr := api.ShippingAddress{Address: "1 Main", City: "Springfield", PostalCode: "12345"}

	_, err = h.checkout.Submit(ctx, addr)
	require.Error(t, err)
	assert.Equal(t, CheckoutFailed, h.checkout.State())
	assert.True(t, h.checkout.Open())
	assert.Len(t, h.view.Items(), 1)
	assert.Equal(t, []string{msgOrderFailed}, h.rec.messages())

	h.api.orderErr = nil
	_, err = h.checkout.Submit(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, CheckoutComplete, h.checkout.State())
}

func TestCheckout_Guards(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	signIn(t, h)

	_, err := h.checkout.Begin(ctx, "/cart")
	assert.ErrorIs(t, err, ErrCartEmpty)

	_, err = h.checkout.Submit(ctx, api.ShippingAddress{City: "X"})
	assert.ErrorIs(t, err, ErrAddressRequired)
}

func TestCheckoutStateString(t *testing.T) {
	assert.Equal(t, "order-submitted", CheckoutOrderSubmitted.String())
	assert.Equal(t, "CheckoutState(9)", CheckoutState(9).String())
}

func TestRedirectStore_NonLocalTargetsFallBackToHome(t *testing.T) {
	ctx := context.Background()
	for _, route := range []string{"//evil.example", "https://evil.example/x", "checkout", ""} {
		t.Run(route, func(t *testing.T) {
			h := newHarness()
			require.NoError(t, h.redirects.Save(ctx, route))
			got, ok := h.redirects.Consume(ctx)
			require.True(t, ok)
			assert.Equal(t, "/", got)
		})
	}

	h := newHarness()
	require.NoError(t, h.redirects.Save(ctx, "/orders?page=2"))
	got, ok := h.redirects.Consume(ctx)
	require.True(t, ok)
	assert.Equal(t, "/orders?page=2", got)
	_, ok = h.redirects.Consume(ctx)
	assert.False(t, ok, "consumed once")
}
