package state

import (
	"context"

	models "storefront/model"
	"storefront/pricing"
	"storefront/store"
)

// Cart is the ordered list of cart lines. Invalid input (unknown ids,
// quantities below 1) is ignored rather than reported; the only errors
// returned come from persistence.
type Cart struct {
	kv    store.KV
	key   string
	lines []models.CartLine
}

// LoadCart reads the cart stored under key.
func LoadCart(ctx context.Context, kv store.KV, key string) (*Cart, error) {
	c := &Cart{kv: kv, key: key}
	if err := load(ctx, kv, key, &c.lines); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cart) persist(ctx context.Context) error {
	if c.lines == nil {
		c.lines = []models.CartLine{}
	}
	return save(ctx, c.kv, c.key, c.lines)
}

func (c *Cart) find(productID int64) int {
	for i, l := range c.lines {
		if l.Product.ID == productID {
			return i
		}
	}
	return -1
}

// AddItem increments the line for p, or appends a new line with quantity 1.
func (c *Cart) AddItem(ctx context.Context, p models.Product) error {
	if i := c.find(p.ID); i >= 0 {
		c.lines[i].Quantity++
	} else {
		c.lines = append(c.lines, models.CartLine{Product: p, Quantity: 1})
	}
	return c.persist(ctx)
}

// UpdateQuantity sets the quantity of an existing line. Quantities below 1
// and unknown ids are no-ops; callers remove lines with RemoveItem.
func (c *Cart) UpdateQuantity(ctx context.Context, productID int64, quantity int) error {
	if quantity < 1 {
		return nil
	}
	i := c.find(productID)
	if i < 0 {
		return nil
	}
	c.lines[i].Quantity = quantity
	return c.persist(ctx)
}

func (c *Cart) RemoveItem(ctx context.Context, productID int64) error {
	i := c.find(productID)
	if i < 0 {
		return nil
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	return c.persist(ctx)
}

func (c *Cart) ClearCart(ctx context.Context) error {
	c.lines = []models.CartLine{}
	return c.persist(ctx)
}

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []models.CartLine {
	out := make([]models.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Total is the sum of price*quantity, 0 for an empty cart.
func (c *Cart) Total() float64 {
	return pricing.Subtotal(c.lines)
}

// ItemsCount is the sum of quantities, shown on the header badge.
func (c *Cart) ItemsCount() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}
