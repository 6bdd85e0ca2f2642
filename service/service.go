package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"storefront/auth"
	"storefront/catalog"
	models "storefront/model"
	"storefront/pricing"
	"storefront/state"
	"storefront/store"
)

var (
	ErrInvalidClient   = errors.New("client id must be a UUID")
	ErrUnauthorized    = state.ErrNoSession
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrCartEmpty       = errors.New("cart empty")
)

const relatedCount = 4

// ProfileUpdater is implemented by authenticators that keep their own copy
// of the user profile.
type ProfileUpdater interface {
	UpdateProfile(ctx context.Context, oldEmail string, u models.User) error
}

type Options struct {
	Logger *slog.Logger
	// Latency is waited out before login and register complete.
	Latency time.Duration
	// OrderOptions are passed to every order history the service opens.
	OrderOptions []state.OrdersOption
}

// Service is the composition root of the storefront: it owns the KV, the
// identity collaborator and the token manager, and opens the state
// containers of a client for the duration of one call.
type Service struct {
	kv      store.KV
	authn   auth.Authenticator
	tokens  *auth.TokenManager
	log     *slog.Logger
	latency time.Duration
	orderOp []state.OrdersOption

	clients keyedLocks
	users   keyedLocks
}

func NewService(kv store.KV, authn auth.Authenticator, tokens *auth.TokenManager, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		kv:      kv,
		authn:   authn,
		tokens:  tokens,
		log:     log.With("component", "service"),
		latency: opts.Latency,
		orderOp: opts.OrderOptions,
	}
}

// session is one client's view of the world while its lock is held.
type session struct {
	clientID string
	ns       store.KV
	auth     *state.Auth
}

func clientNamespace(clientID string) string { return "client:" + clientID + ":" }

type bearerKey struct{}

// WithBearer attaches the token a request presented. Calls made under it
// fail with ErrUnauthorized unless the token verifies and names the user
// signed in on the client.
func WithBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey{}, token)
}

func (s *Service) checkBearer(ctx context.Context, a *state.Auth) error {
	tok, _ := ctx.Value(bearerKey{}).(string)
	if tok == "" {
		return nil
	}
	claims, err := s.tokens.Parse(tok)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if uid := a.UserID(); uid != "" && claims.Subject != uid {
		return fmt.Errorf("%w: token belongs to another user", ErrUnauthorized)
	}
	return nil
}

// open locks clientID and restores its session. A stored token that no
// longer verifies signs the client out.
func (s *Service) open(ctx context.Context, clientID string) (*session, func(), error) {
	if _, err := uuid.Parse(clientID); err != nil {
		return nil, nil, ErrInvalidClient
	}
	unlock := s.clients.lockFor(clientID)
	ns := store.Namespace(s.kv, clientNamespace(clientID))
	a, err := state.LoadAuth(ctx, ns)
	if err != nil {
		unlock()
		return nil, nil, err
	}
	if sess, ok := a.Session(); ok {
		if _, err := s.tokens.Parse(sess.Token); err != nil {
			s.log.Info("dropping stale session", "client_id", clientID, "user_id", sess.User.ID, "error", err)
			if err := a.Logout(ctx); err != nil {
				unlock()
				return nil, nil, err
			}
		}
	}
	if err := s.checkBearer(ctx, a); err != nil {
		unlock()
		return nil, nil, err
	}
	return &session{clientID: clientID, ns: ns, auth: a}, unlock, nil
}

func (s *Service) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// --- Catalog ---

func (s *Service) ListProducts(_ context.Context, f catalog.Filter) (ProductList, error) {
	all := catalog.Products()
	ps := all
	if f.Active() {
		ps = catalog.Apply(all, f)
	}
	return ProductList{Products: ps, Count: len(ps), PriceRange: catalog.RangeOf(all)}, nil
}

func (s *Service) GetProduct(_ context.Context, productID int64) (models.Product, error) {
	p, ok := catalog.ByID(productID)
	if !ok {
		return models.Product{}, fmt.Errorf("product %d: %w", productID, ErrProductNotFound)
	}
	return p, nil
}

// RelatedProducts is what a product page shows below the product.
func (s *Service) RelatedProducts(ctx context.Context, productID int64) ([]models.Product, error) {
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	return catalog.Related(productID, relatedCount), nil
}

func (s *Service) Categories(context.Context) []string { return catalog.Categories() }

func (s *Service) Brands(context.Context) []string { return catalog.Brands() }

// --- Auth ---

func (s *Service) Register(ctx context.Context, clientID string, in auth.RegisterInput) (models.Session, error) {
	if _, err := uuid.Parse(clientID); err != nil {
		return models.Session{}, ErrInvalidClient
	}
	if err := in.Validate(); err != nil {
		return models.Session{}, err
	}
	if err := s.wait(ctx); err != nil {
		return models.Session{}, err
	}
	u, err := s.authn.Register(ctx, in)
	if err != nil {
		return models.Session{}, err
	}
	s.log.Info("account registered", "client_id", clientID, "user_id", u.ID)
	return s.signIn(ctx, clientID, u)
}

func (s *Service) Login(ctx context.Context, clientID, email, password string) (models.Session, error) {
	if _, err := uuid.Parse(clientID); err != nil {
		return models.Session{}, ErrInvalidClient
	}
	if err := s.wait(ctx); err != nil {
		return models.Session{}, err
	}
	u, err := s.authn.Authenticate(ctx, email, password)
	if err != nil {
		s.log.Warn("login failed", "client_id", clientID, "error", err)
		return models.Session{}, err
	}
	return s.signIn(ctx, clientID, u)
}

// signIn issues a token, stores the session and folds the guest wishlist
// into the user's.
func (s *Service) signIn(ctx context.Context, clientID string, u models.User) (models.Session, error) {
	token, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return models.Session{}, fmt.Errorf("issue token: %w", err)
	}
	// a caller that gave up while we were authenticating gets no session
	if err := ctx.Err(); err != nil {
		return models.Session{}, err
	}

	// a token from an earlier session does not gate signing in again
	sess, unlock, err := s.open(WithBearer(ctx, ""), clientID)
	if err != nil {
		return models.Session{}, err
	}
	defer unlock()

	if err := sess.auth.Login(ctx, u, token); err != nil {
		return models.Session{}, err
	}
	if err := s.mergeGuestWishlist(ctx, sess, u.ID); err != nil {
		return models.Session{}, err
	}
	s.log.Info("signed in", "client_id", clientID, "user_id", u.ID)
	out, _ := sess.auth.Session()
	return out, nil
}

func (s *Service) mergeGuestWishlist(ctx context.Context, sess *session, userID string) error {
	guest, err := state.LoadWishlist(ctx, sess.ns, state.KeyWishlist)
	if err != nil {
		return err
	}
	items := guest.Items()
	if len(items) == 0 {
		return nil
	}
	unlock := s.users.lockFor(userID)
	defer unlock()
	mine, err := state.LoadWishlist(ctx, s.kv, state.WishlistKey(userID))
	if err != nil {
		return err
	}
	if err := mine.Merge(ctx, items); err != nil {
		return err
	}
	return guest.Clear(ctx)
}

func (s *Service) Logout(ctx context.Context, clientID string) error {
	sess, unlock, err := s.open(ctx, clientID)
	if err != nil {
		return err
	}
	defer unlock()
	uid := sess.auth.UserID()
	if err := sess.auth.Logout(ctx); err != nil {
		return err
	}
	if uid != "" {
		s.log.Info("signed out", "client_id", clientID, "user_id", uid)
	}
	return nil
}

func (s *Service) Profile(ctx context.Context, clientID string) (models.User, error) {
	sess, unlock, err := s.open(ctx, clientID)
	if err != nil {
		return models.User{}, err
	}
	defer unlock()
	cur, ok := sess.auth.Session()
	if !ok {
		return models.User{}, ErrUnauthorized
	}
	return cur.User, nil
}

func (s *Service) UpdateProfile(ctx context.Context, clientID string, patch models.UserPatch) (models.User, error) {
	if patch.Email != nil {
		if err := auth.ValidateEmail(*patch.Email); err != nil {
			return models.User{}, err
		}
	}
	sess, unlock, err := s.open(ctx, clientID)
	if err != nil {
		return models.User{}, err
	}
	defer unlock()
	cur, ok := sess.auth.Session()
	if !ok {
		return models.User{}, ErrUnauthorized
	}
	if pu, ok := s.authn.(ProfileUpdater); ok {
		if err := pu.UpdateProfile(ctx, cur.User.Email, patch.Apply(cur.User)); err != nil {
			return models.User{}, err
		}
	}
	return sess.auth.UpdateUser(ctx, patch)
}

// --- Cart ---

func (s *Service) withCart(ctx context.Context, clientID string, fn func(*state.Cart) error) (CartView, error) {
	sess, unlock, err := s.open(ctx, clientID)
	if err != nil {
		return CartView{}, err
	}
	defer unlock()
	cart, err := state.LoadCart(ctx, sess.ns, state.KeyCart)
	if err != nil {
		return CartView{}, err
	}
	if fn != nil {
		if err := fn(cart); err != nil {
			return CartView{}, err
		}
	}
	return viewOf(cart), nil
}

func viewOf(c *state.Cart) CartView {
	sub := c.Total()
	return CartView{
		Items:                 c.Items(),
		ItemsCount:            c.ItemsCount(),
		Quote:                 pricing.QuoteFor(sub),
		FreeShippingRemaining: pricing.FreeShippingRemaining(sub),
	}
}

func (s *Service) GetCart(ctx context.Context, clientID string) (CartView, error) {
	return s.withCart(ctx, clientID, nil)
}

func (s *Service) AddToCart(ctx context.Context, clientID string, productID int64) (CartView, error) {
	p, err := s.GetProduct(ctx, productID)
	if err != nil {
		return CartView{}, err
	}
	return s.withCart(ctx, clientID, func(c *state.Cart) error {
		return c.AddItem(ctx, p)
	})
}

// UpdateCartItem sets a line's quantity. Quantities below 1 and products not
// in the cart leave it unchanged.
func (s *Service) UpdateCartItem(ctx context.Context, clientID string, productID int64, qty int) (CartView, error) {
	return s.withCart(ctx, clientID, func(c *state.Cart) error {
		return c.UpdateQuantity(ctx, productID, qty)
	})
}

func (s *Service) RemoveCartItem(ctx context.Context, clientID string, productID int64) (CartView, error) {
	return s.withCart(ctx, clientID, func(c *state.Cart) error {
		return c.RemoveItem(ctx, productID)
	})
}

func (s *Service) ClearCart(ctx context.Context, clientID string) (CartView, error) {
	return s.withCart(ctx, clientID, func(c *state.Cart) error {
		return c.ClearCart(ctx)
	})
}

// --- Wishlist ---

// withWishlist opens the wishlist of the signed-in user, or the client's
// guest wishlist when nobody is signed in.
func (s *Service) withWishlist(ctx context.Context, clientID string, fn func(*state.Wishlist) error) ([]models.Product, error) {
	sess, unlock, err := s.open(ctx, clientID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	kv, key := sess.ns, state.KeyWishlist
	if uid := sess.auth.UserID(); uid != "" {
		unlockUser := s.users.lockFor(uid)
		defer unlockUser()
		kv, key = s.kv, state.WishlistKey(uid)
	}
	w, err := state.LoadWishlist(ctx, kv, key)
	if err != nil {
		return nil, err
	}
	if fn != nil {
		if err := fn(w); err != nil {
			return nil, err
		}
	}
	return w.Items(), nil
}

func (s *Service) GetWishlist(ctx context.Context, clientID string) ([]models.Product, error) {
	return s.withWishlist(ctx, clientID, nil)
}

func (s *Service) AddToWishlist(ctx context.Context, clientID string, productID int64) ([]models.Product, error) {
	p, err := s.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return s.withWishlist(ctx, clientID, func(w *state.Wishlist) error {
		_, err := w.Add(ctx, p)
		return err
	})
}

func (s *Service) RemoveFromWishlist(ctx context.Context, clientID string, productID int64) ([]models.Product, error) {
	return s.withWishlist(ctx, clientID, func(w *state.Wishlist) error {
		return w.Remove(ctx, productID)
	})
}

func (s *Service) ClearWishlist(ctx context.Context, clientID string) error {
	_, err := s.withWishlist(ctx, clientID, func(w *state.Wishlist) error {
		return w.Clear(ctx)
	})
	return err
}

func (s *Service) InWishlist(ctx context.Context, clientID string, productID int64) (bool, error) {
	var in bool
	_, err := s.withWishlist(ctx, clientID, func(w *state.Wishlist) error {
		in = w.Contains(productID)
		return nil
	})
	return in, err
}

// --- Orders ---

// ListOrders returns the signed-in user's orders, newest first. A signed-out
// client has no orders.
func (s *Service) ListOrders(ctx context.Context, clientID string) ([]models.Order, error) {
	sess, unlock, err := s.open(ctx, clientID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	orders := state.NewOrders(s.kv, s.orderOp...)
	if err := orders.LoadOrders(ctx, sess.auth.UserID()); err != nil {
		return nil, err
	}
	return orders.List(), nil
}

func (s *Service) GetOrder(ctx context.Context, clientID, orderID string) (models.Order, error) {
	sess, unlock, err := s.open(ctx, clientID)
	if err != nil {
		return models.Order{}, err
	}
	defer unlock()
	if !sess.auth.IsAuthenticated() {
		return models.Order{}, ErrUnauthorized
	}
	orders := state.NewOrders(s.kv, s.orderOp...)
	if err := orders.LoadOrders(ctx, sess.auth.UserID()); err != nil {
		return models.Order{}, err
	}
	o, ok := orders.GetOrder(orderID)
	if !ok {
		return models.Order{}, fmt.Errorf("order %s: %w", orderID, ErrOrderNotFound)
	}
	return o, nil
}
