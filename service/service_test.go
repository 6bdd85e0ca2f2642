package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"storefront/auth"
	"storefront/catalog"
	models "storefront/model"
	"storefront/state"
	"storefront/store"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// ---- fakeAuth implementing auth.Authenticator for tests ----
type fakeAuth struct {
	AuthenticateFn func(email, password string) (models.User, error)
	RegisterFn     func(in auth.RegisterInput) (models.User, error)
}

func (f *fakeAuth) Authenticate(_ context.Context, email, password string) (models.User, error) {
	return f.AuthenticateFn(email, password)
}
func (f *fakeAuth) Register(_ context.Context, in auth.RegisterInput) (models.User, error) {
	return f.RegisterFn(in)
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newTestService(t *testing.T, opts Options) (*Service, *store.MemoryStore) {
	t.Helper()
	kv := store.NewMemoryStore()
	dir, err := auth.NewDirectory(context.Background(), kv, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("directory: %v", err)
	}
	tm, err := auth.NewTokenManager(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	return NewService(kv, dir, tm, opts), kv
}

func newClient() string { return uuid.NewString() }

func signIn(t *testing.T, svc *Service, client string) models.Session {
	t.Helper()
	sess, err := svc.Login(context.Background(), client, auth.DemoEmail, auth.DemoPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return sess
}

func checkoutInput() CheckoutInput {
	return CheckoutInput{
		ShippingAddress: models.ShippingAddress{
			FirstName: "Demo", LastName: "User", Email: "demo@example.com",
			Address: "123 Fashion St", City: "New York", State: "New York",
			ZipCode: "10001", Country: "United States",
		},
		Payment: PaymentInput{
			Type: "credit_card", CardNumber: "4242 4242 4242 4242",
			CardholderName: "Demo User", Expiry: "12/30", CVV: "123",
		},
	}
}

// ---- Tests ----

func TestInvalidClientRejected(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	if _, err := svc.GetCart(ctx, ""); !errors.Is(err, ErrInvalidClient) {
		t.Fatalf("expected ErrInvalidClient, got %v", err)
	}
	if _, err := svc.Login(ctx, "not-a-uuid", auth.DemoEmail, auth.DemoPassword); !errors.Is(err, ErrInvalidClient) {
		t.Fatalf("expected ErrInvalidClient, got %v", err)
	}
}

func TestListProductsAndLookup(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	all, err := svc.ListProducts(ctx, catalog.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if all.Count != 20 || len(all.Products) != 20 {
		t.Fatalf("expected full catalog, got %d", all.Count)
	}
	women, _ := svc.ListProducts(ctx, catalog.Filter{Category: catalog.CategoryWomen})
	if women.Count != 10 {
		t.Fatalf("expected 10 women's perfumes, got %d", women.Count)
	}
	if women.PriceRange != all.PriceRange {
		t.Fatalf("price range should cover the catalog: %+v vs %+v", women.PriceRange, all.PriceRange)
	}

	if _, err := svc.GetProduct(ctx, 404); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if got := svc.Categories(ctx); len(got) != 2 {
		t.Fatalf("expected 2 categories, got %v", got)
	}
}

func TestCartFlow(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()
	client := newClient()

	if _, err := svc.AddToCart(ctx, client, 999); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}

	// Versace Eros 95, Marc Jacobs Daisy 100
	svc.AddToCart(ctx, client, 4)
	svc.AddToCart(ctx, client, 4)
	v, err := svc.AddToCart(ctx, client, 15)
	if err != nil {
		t.Fatalf("AddToCart failed: %v", err)
	}
	if len(v.Items) != 2 || v.ItemsCount != 3 || v.Subtotal != 290 {
		t.Fatalf("unexpected cart: %+v", v)
	}
	if v.Shipping != 0 || v.Tax != 23.2 || v.Total != 313.2 {
		t.Fatalf("unexpected quote: %+v", v.Quote)
	}

	v, _ = svc.UpdateCartItem(ctx, client, 4, 0)
	if v.ItemsCount != 3 {
		t.Fatalf("quantity 0 must be ignored, got %d", v.ItemsCount)
	}
	v, _ = svc.UpdateCartItem(ctx, client, 4, 5)
	if v.ItemsCount != 6 {
		t.Fatalf("expected 6 items, got %d", v.ItemsCount)
	}
	v, _ = svc.RemoveCartItem(ctx, client, 4)
	if len(v.Items) != 1 || v.Items[0].Product.ID != 15 {
		t.Fatalf("unexpected cart after remove: %+v", v.Items)
	}

	// another client has its own cart
	other, _ := svc.GetCart(ctx, newClient())
	if len(other.Items) != 0 {
		t.Fatalf("carts must be per client")
	}

	v, _ = svc.ClearCart(ctx, client)
	if len(v.Items) != 0 || v.Total != 0 || v.Shipping != 0 {
		t.Fatalf("expected empty cart, got %+v", v)
	}
}

func TestLoginLogoutProfile(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()
	client := newClient()

	if _, err := svc.Profile(ctx, client); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := svc.Login(ctx, client, auth.DemoEmail, "nope"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}

	sess := signIn(t, svc, client)
	if sess.Token == "" || sess.User.Email != auth.DemoEmail {
		t.Fatalf("unexpected session: %+v", sess)
	}
	u, err := svc.Profile(ctx, client)
	if err != nil || u.ID != sess.User.ID {
		t.Fatalf("profile: %+v %v", u, err)
	}

	name := "Demo Renamed"
	u, err = svc.UpdateProfile(ctx, client, models.UserPatch{Name: &name})
	if err != nil || u.Name != name {
		t.Fatalf("update profile: %+v %v", u, err)
	}
	// a fresh sign-in sees the stored profile
	again := signIn(t, svc, newClient())
	if again.User.Name != name {
		t.Fatalf("profile change not kept in directory: %+v", again.User)
	}

	if err := svc.Logout(ctx, client); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Profile(ctx, client); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized after logout, got %v", err)
	}
}

func TestRegister(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()
	in := auth.RegisterInput{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
		Password: "Secret123", ConfirmPassword: "Secret124", AgreeToTerms: true,
	}
	if _, err := svc.Register(ctx, newClient(), in); !errors.Is(err, auth.ErrPasswordMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	in.ConfirmPassword = in.Password
	sess, err := svc.Register(ctx, newClient(), in)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if sess.User.Name != "Ada Lovelace" {
		t.Fatalf("unexpected user %+v", sess.User)
	}
	if _, err := svc.Login(ctx, newClient(), "ada@example.com", "Secret123"); err != nil {
		t.Fatalf("login after register: %v", err)
	}
}

func TestLoginLatencyHonoursCancellation(t *testing.T) {
	svc, _ := newTestService(t, Options{Latency: time.Hour})
	client := newClient()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := svc.Login(ctx, client, auth.DemoEmail, auth.DemoPassword); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if _, err := svc.Profile(context.Background(), client); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("cancelled login must not leave a session, got %v", err)
	}
}

func TestStaleTokenSignsOut(t *testing.T) {
	svc, kv := newTestService(t, Options{})
	ctx := context.Background()
	client := newClient()

	ns := store.Namespace(kv, clientNamespace(client))
	a, _ := state.LoadAuth(ctx, ns)
	if err := a.Login(ctx, models.User{ID: "u9"}, "forged-token"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := svc.Profile(ctx, client); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected forged session to be dropped, got %v", err)
	}
	if _, ok, _ := ns.Get(ctx, state.KeyAuthToken); ok {
		t.Fatalf("stale token should be deleted")
	}
}

func TestWishlistGuestAndMerge(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()
	client := newClient()

	svc.AddToWishlist(ctx, client, 7)
	items, err := svc.AddToWishlist(ctx, client, 7)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("wishlist must be a set, got %d", len(items))
	}
	if in, _ := svc.InWishlist(ctx, client, 7); !in {
		t.Fatalf("expected product 7 in wishlist")
	}

	signIn(t, svc, client)
	items, _ = svc.GetWishlist(ctx, client)
	if len(items) != 1 || items[0].ID != 7 {
		t.Fatalf("guest wishlist should merge into the user's, got %+v", items)
	}

	// same user on another client sees it too
	other := newClient()
	signIn(t, svc, other)
	svc.AddToWishlist(ctx, other, 3)
	items, _ = svc.GetWishlist(ctx, client)
	if len(items) != 2 {
		t.Fatalf("expected shared user wishlist, got %d", len(items))
	}

	svc.Logout(ctx, client)
	items, _ = svc.GetWishlist(ctx, client)
	if len(items) != 0 {
		t.Fatalf("guest wishlist should be empty after merge, got %d", len(items))
	}

	items, _ = svc.RemoveFromWishlist(ctx, other, 7)
	if len(items) != 1 || items[0].ID != 3 {
		t.Fatalf("unexpected wishlist after remove: %+v", items)
	}
	if err := svc.ClearWishlist(ctx, other); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if in, _ := svc.InWishlist(ctx, other, 3); in {
		t.Fatalf("expected empty wishlist")
	}
}

func TestCheckout(t *testing.T) {
	fixed := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, Options{
		OrderOptions: []state.OrdersOption{state.WithClock(func() time.Time { return fixed })},
	})
	ctx := context.Background()
	client := newClient()

	if _, err := svc.Checkout(ctx, client, checkoutInput()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for guest, got %v", err)
	}
	signIn(t, svc, client)
	if _, err := svc.Checkout(ctx, client, checkoutInput()); !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("expected ErrCartEmpty, got %v", err)
	}

	bad := checkoutInput()
	bad.ShippingAddress.City = " "
	svc.AddToCart(ctx, client, 1)
	if _, err := svc.Checkout(ctx, client, bad); !errors.Is(err, ErrInvalidCheckout) {
		t.Fatalf("expected ErrInvalidCheckout, got %v", err)
	}

	svc.AddToCart(ctx, client, 1)
	svc.AddToCart(ctx, client, 4)
	order, err := svc.Checkout(ctx, client, checkoutInput())
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if order.Status != models.StatusProcessing || !order.Date.Equal(fixed) {
		t.Fatalf("unexpected order header: %+v", order)
	}
	if order.Subtotal != 335 || order.Shipping != 0 || order.Tax != 26.8 || order.Total != 361.8 {
		t.Fatalf("unexpected totals: %+v", order)
	}
	pm := order.PaymentMethod
	if pm.Last4 != "4242" || pm.CardBrand != "visa" || pm.Type != "credit_card" {
		t.Fatalf("unexpected payment: %+v", pm)
	}

	cart, _ := svc.GetCart(ctx, client)
	if len(cart.Items) != 0 {
		t.Fatalf("cart should be cleared after checkout")
	}

	svc.AddToCart(ctx, client, 15)
	second, err := svc.Checkout(ctx, client, checkoutInput())
	if err != nil {
		t.Fatalf("second checkout: %v", err)
	}
	orders, _ := svc.ListOrders(ctx, client)
	if len(orders) != 2 || orders[0].ID != second.ID || orders[1].ID != order.ID {
		t.Fatalf("orders should be newest first: %+v", orders)
	}
	got, err := svc.GetOrder(ctx, client, order.ID)
	if err != nil || got.ID != order.ID {
		t.Fatalf("GetOrder: %+v %v", got, err)
	}
	if _, err := svc.GetOrder(ctx, client, "missing"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}

	svc.Logout(ctx, client)
	orders, err = svc.ListOrders(ctx, client)
	if err != nil || len(orders) != 0 {
		t.Fatalf("signed out client should see no orders, got %d %v", len(orders), err)
	}
}

func TestSanitizeNeverKeepsCardNumber(t *testing.T) {
	pm := sanitize(PaymentInput{Type: "credit_card", CardNumber: "5555-5555-5555-4444", CVV: "999"})
	if pm.Last4 != "4444" || pm.CardBrand != "mastercard" {
		t.Fatalf("unexpected sanitized payment: %+v", pm)
	}
	if strings.Contains(pm.Last4+pm.CardBrand+pm.Expiry+pm.CardholderName, "5555-5555") {
		t.Fatalf("card number leaked: %+v", pm)
	}
	if pm := sanitize(PaymentInput{Type: "paypal"}); pm.Last4 != "" || pm.CardBrand != "" {
		t.Fatalf("paypal should carry no card data: %+v", pm)
	}
}

func TestAuthenticatorErrorsPropagate(t *testing.T) {
	boom := errors.New("idp down")
	kv := store.NewMemoryStore()
	tm, _ := auth.NewTokenManager(testSecret, time.Hour)
	svc := NewService(kv, &fakeAuth{
		AuthenticateFn: func(string, string) (models.User, error) { return models.User{}, boom },
		RegisterFn:     func(auth.RegisterInput) (models.User, error) { return models.User{}, boom },
	}, tm, Options{Logger: quietLogger()})

	if _, err := svc.Login(context.Background(), newClient(), "a@b.co", "x"); !errors.Is(err, boom) {
		t.Fatalf("expected idp error, got %v", err)
	}
}

func TestConcurrentAddsOnOneClient(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()
	client := newClient()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.AddToCart(ctx, client, 2); err != nil {
				t.Errorf("AddToCart: %v", err)
			}
		}()
	}
	wg.Wait()

	v, _ := svc.GetCart(ctx, client)
	if len(v.Items) != 1 || v.ItemsCount != 20 {
		t.Fatalf("lost updates: %+v", v)
	}
}

func TestBearerTokenMustMatchSession(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()
	client := newClient()
	sess := signIn(t, svc, client)

	if _, err := svc.Profile(WithBearer(ctx, sess.Token), client); err != nil {
		t.Fatalf("profile with own token: %v", err)
	}
	if _, err := svc.Profile(WithBearer(ctx, "forged"), client); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for forged token, got %v", err)
	}

	otherTok, err := svc.tokens.Issue("someone-else", "else@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.GetCart(WithBearer(ctx, otherTok), client); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for another user's token, got %v", err)
	}

	// signing in again is not blocked by a leftover token
	if _, err := svc.Login(WithBearer(ctx, "forged"), client, auth.DemoEmail, auth.DemoPassword); err != nil {
		t.Fatalf("re-login: %v", err)
	}
}

func TestUpdateProfileValidatesEmail(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()
	client := newClient()
	signIn(t, svc, client)

	for _, email := range []string{"", "nope"} {
		e := email
		if _, err := svc.UpdateProfile(ctx, client, models.UserPatch{Email: &e}); !errors.Is(err, auth.ErrInvalidEmail) {
			t.Fatalf("email %q: expected ErrInvalidEmail, got %v", email, err)
		}
	}
	u, err := svc.Profile(ctx, client)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if u.Email != auth.DemoEmail {
		t.Fatalf("email changed to %q", u.Email)
	}
}

func TestRelatedProductsAndBrands(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	ps, err := svc.RelatedProducts(ctx, 3)
	if err != nil {
		t.Fatalf("related: %v", err)
	}
	if len(ps) != 4 {
		t.Fatalf("expected 4 related products, got %d", len(ps))
	}
	for _, p := range ps {
		if p.ID == 3 {
			t.Fatalf("product listed as related to itself")
		}
	}
	if _, err := svc.RelatedProducts(ctx, 999); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if got := svc.Brands(ctx); len(got) == 0 {
		t.Fatalf("expected brands")
	}
}
