package models

// CartLine is one product in the cart with its quantity. Quantity is always >= 1.
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}
