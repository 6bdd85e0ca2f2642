package models

import "time"

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
	StatusRefunded   OrderStatus = "refunded"
)

type ShippingAddress struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state,omitempty"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
}

// PaymentMethod is the sanitized payment record kept on an order. The full
// card number and CVV never reach it.
type PaymentMethod struct {
	Type           string `json:"type"`
	CardholderName string `json:"cardholderName,omitempty"`
	CardBrand      string `json:"cardBrand,omitempty"`
	Last4          string `json:"last4,omitempty"`
	Expiry         string `json:"expiry,omitempty"`
}

// Order is an immutable snapshot of the cart taken at checkout.
type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId,omitempty"`
	Date            time.Time       `json:"date"`
	Status          OrderStatus     `json:"status"`
	Items           []CartLine      `json:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	Subtotal        float64         `json:"subtotal"`
	Shipping        float64         `json:"shipping"`
	Tax             float64         `json:"tax"`
	Total           float64         `json:"total"`
}
