package service

import (
	"storefront/catalog"
	models "storefront/model"
	"storefront/pricing"
)

// DTOs

type ProductList struct {
	Products   []models.Product   `json:"products"`
	Count      int                `json:"count"`
	PriceRange catalog.PriceRange `json:"priceRange"`
}

type CartView struct {
	Items      []models.CartLine `json:"items"`
	ItemsCount int               `json:"itemsCount"`
	pricing.Quote
	FreeShippingRemaining float64 `json:"freeShippingRemaining"`
}

// PaymentInput is the raw payment form. Only a sanitized
// models.PaymentMethod survives checkout.
type PaymentInput struct {
	Type           string `json:"type"`
	CardNumber     string `json:"cardNumber,omitempty"`
	CardholderName string `json:"cardholderName,omitempty"`
	Expiry         string `json:"expiryDate,omitempty"`
	CVV            string `json:"cvv,omitempty"`
}

type CheckoutInput struct {
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	Payment         PaymentInput           `json:"paymentMethod"`
}
