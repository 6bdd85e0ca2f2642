package models

// Rating is the aggregate review score shown on product cards.
type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// Product is an immutable catalog record.
type Product struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Brand       string  `json:"brand,omitempty"`
	Image       string  `json:"image"`
	Rating      Rating  `json:"rating"`
	InStock     bool    `json:"inStock"`
	Discount    float64 `json:"discount,omitempty"`
}
