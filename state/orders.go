package state

import (
	"context"
	"time"

	"github.com/google/uuid"

	models "storefront/model"
	"storefront/store"
)

// Orders is the order history of one user. With no user bound it still
// accepts orders but keeps them in memory only.
type Orders struct {
	kv     store.KV
	userID string
	orders []models.Order

	now   func() time.Time
	newID func() string
}

type OrdersOption func(*Orders)

// WithClock overrides time.Now for order dates.
func WithClock(now func() time.Time) OrdersOption {
	return func(o *Orders) { o.now = now }
}

// WithIDs overrides the order id generator.
func WithIDs(gen func() string) OrdersOption {
	return func(o *Orders) { o.newID = gen }
}

// NewOrders returns an empty history bound to no user. Call LoadOrders to
// bind it.
func NewOrders(kv store.KV, opts ...OrdersOption) *Orders {
	o := &Orders{
		kv:    kv,
		now:   time.Now,
		newID: func() string { return uuid.Must(uuid.NewV7()).String() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// LoadOrders binds the history to userID and reloads it. An empty userID
// yields an empty history.
func (o *Orders) LoadOrders(ctx context.Context, userID string) error {
	o.userID = userID
	o.orders = nil
	if userID == "" {
		return nil
	}
	var loaded []models.Order
	if err := load(ctx, o.kv, OrdersKey(userID), &loaded); err != nil {
		return err
	}
	o.orders = loaded
	return nil
}

// UserID is the user the history is bound to, "" when none.
func (o *Orders) UserID() string { return o.userID }

// CreateOrder stamps id and date on data, defaults the status to
// processing, and puts the order first in the history.
func (o *Orders) CreateOrder(ctx context.Context, data models.Order) (models.Order, error) {
	order := data
	order.ID = o.newID()
	order.Date = o.now().UTC()
	order.UserID = o.userID
	if order.Status == "" {
		order.Status = models.StatusProcessing
	}
	order.Items = append([]models.CartLine(nil), data.Items...)

	o.orders = append([]models.Order{order}, o.orders...)
	if o.userID == "" {
		return order, nil
	}
	if err := save(ctx, o.kv, OrdersKey(o.userID), o.orders); err != nil {
		return models.Order{}, err
	}
	return order, nil
}

// GetOrder finds an order by id.
func (o *Orders) GetOrder(orderID string) (models.Order, bool) {
	for _, ord := range o.orders {
		if ord.ID == orderID {
			return ord, true
		}
	}
	return models.Order{}, false
}

// List returns the history, newest first.
func (o *Orders) List() []models.Order {
	out := make([]models.Order, len(o.orders))
	copy(out, o.orders)
	return out
}
