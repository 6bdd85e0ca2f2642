package service

import (
	"context"

	"storefront/auth"
	"storefront/catalog"
	models "storefront/model"
)

// ServiceInterface is what the HTTP layer needs. Every per-client call takes
// the client id the request was made under.
type ServiceInterface interface {
	ListProducts(ctx context.Context, f catalog.Filter) (ProductList, error)
	GetProduct(ctx context.Context, productID int64) (models.Product, error)
	RelatedProducts(ctx context.Context, productID int64) ([]models.Product, error)
	Categories(ctx context.Context) []string
	Brands(ctx context.Context) []string

	Register(ctx context.Context, clientID string, in auth.RegisterInput) (models.Session, error)
	Login(ctx context.Context, clientID, email, password string) (models.Session, error)
	Logout(ctx context.Context, clientID string) error
	Profile(ctx context.Context, clientID string) (models.User, error)
	UpdateProfile(ctx context.Context, clientID string, patch models.UserPatch) (models.User, error)

	GetCart(ctx context.Context, clientID string) (CartView, error)
	AddToCart(ctx context.Context, clientID string, productID int64) (CartView, error)
	UpdateCartItem(ctx context.Context, clientID string, productID int64, qty int) (CartView, error)
	RemoveCartItem(ctx context.Context, clientID string, productID int64) (CartView, error)
	ClearCart(ctx context.Context, clientID string) (CartView, error)

	GetWishlist(ctx context.Context, clientID string) ([]models.Product, error)
	AddToWishlist(ctx context.Context, clientID string, productID int64) ([]models.Product, error)
	RemoveFromWishlist(ctx context.Context, clientID string, productID int64) ([]models.Product, error)
	ClearWishlist(ctx context.Context, clientID string) error
	InWishlist(ctx context.Context, clientID string, productID int64) (bool, error)

	ListOrders(ctx context.Context, clientID string) ([]models.Order, error)
	GetOrder(ctx context.Context, clientID, orderID string) (models.Order, error)
	Checkout(ctx context.Context, clientID string, in CheckoutInput) (models.Order, error)
}
