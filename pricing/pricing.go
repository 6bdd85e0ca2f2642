// Package pricing computes checkout totals. All arithmetic is done in
// decimal and rounded to cents before it is handed back as float64.
package pricing

import (
	"github.com/shopspring/decimal"

	models "storefront/model"
)

var (
	freeShippingOver = decimal.NewFromInt(50)
	flatShipping     = decimal.RequireFromString("5.99")
	taxRate          = decimal.RequireFromString("0.08")
)

// Quote is the order summary shown in the cart and stored on orders.
type Quote struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// Subtotal sums price*quantity over lines.
func Subtotal(lines []models.CartLine) float64 {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(decimal.NewFromFloat(l.Product.Price).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum.Round(2).InexactFloat64()
}

// QuoteFor prices a subtotal: shipping is free above 50, 5.99 otherwise and
// nothing for an empty cart; tax is 8% of the subtotal.
func QuoteFor(subtotal float64) Quote {
	sub := decimal.NewFromFloat(subtotal)
	shipping := decimal.Zero
	if sub.IsPositive() && sub.LessThanOrEqual(freeShippingOver) {
		shipping = flatShipping
	}
	tax := sub.Mul(taxRate).Round(2)
	return Quote{
		Subtotal: sub.Round(2).InexactFloat64(),
		Shipping: shipping.InexactFloat64(),
		Tax:      tax.InexactFloat64(),
		Total:    sub.Add(shipping).Add(tax).Round(2).InexactFloat64(),
	}
}

// FreeShippingRemaining is how much more the customer must add to get free
// shipping, or 0 when it already applies or the cart is empty.
func FreeShippingRemaining(subtotal float64) float64 {
	sub := decimal.NewFromFloat(subtotal)
	if !sub.IsPositive() || sub.GreaterThan(freeShippingOver) {
		return 0
	}
	return freeShippingOver.Sub(sub).Round(2).InexactFloat64()
}
