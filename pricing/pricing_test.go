package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	models "storefront/model"
)

func TestSubtotal(t *testing.T) {
	lines := []models.CartLine{
		{Product: models.Product{ID: 1, Price: 10}, Quantity: 2},
		{Product: models.Product{ID: 2, Price: 5}, Quantity: 1},
	}
	assert.Equal(t, 25.0, Subtotal(lines))
	assert.Equal(t, 0.0, Subtotal(nil))

	// 0.1 + 0.2 must not drift
	drift := []models.CartLine{
		{Product: models.Product{ID: 1, Price: 0.1}, Quantity: 1},
		{Product: models.Product{ID: 2, Price: 0.2}, Quantity: 1},
	}
	assert.Equal(t, 0.3, Subtotal(drift))
}

func TestQuoteFor(t *testing.T) {
	tests := []struct {
		name     string
		subtotal float64
		want     Quote
	}{
		{"empty cart", 0, Quote{}},
		{"below threshold pays shipping", 25, Quote{Subtotal: 25, Shipping: 5.99, Tax: 2, Total: 32.99}},
		{"exactly 50 still pays", 50, Quote{Subtotal: 50, Shipping: 5.99, Tax: 4, Total: 59.99}},
		{"above threshold ships free", 120, Quote{Subtotal: 120, Shipping: 0, Tax: 9.6, Total: 129.6}},
		{"tax rounds to cents", 10.99, Quote{Subtotal: 10.99, Shipping: 5.99, Tax: 0.88, Total: 17.86}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, QuoteFor(tc.subtotal))
		})
	}
}

func TestFreeShippingRemaining(t *testing.T) {
	assert.Equal(t, 0.0, FreeShippingRemaining(0))
	assert.Equal(t, 25.0, FreeShippingRemaining(25))
	assert.Equal(t, 0.0, FreeShippingRemaining(50.01))
	assert.Equal(t, 0.01, FreeShippingRemaining(49.99))
}
