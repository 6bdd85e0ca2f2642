package catalog

import (
	"strings"

	models "storefront/model"
)

// Filter is the shop sidebar state. Zero values mean "not set"; MinPrice and
// MaxPrice are pointers so that an explicit 0 bound still applies.
type Filter struct {
	Search   string   `json:"search,omitempty"`
	Category string   `json:"category,omitempty"`
	Brand    string   `json:"brand,omitempty"`
	MinPrice *float64 `json:"minPrice,omitempty"`
	MaxPrice *float64 `json:"maxPrice,omitempty"`
	InStock  bool     `json:"inStock,omitempty"`
	OnSale   bool     `json:"onSale,omitempty"`
}

// Active reports whether any predicate would run.
func (f Filter) Active() bool {
	return f.Search != "" || f.Category != "" || f.Brand != "" ||
		f.MinPrice != nil || f.MaxPrice != nil || f.InStock || f.OnSale
}

// Apply runs the predicates in sidebar order and keeps the input order. The
// input slice is not modified.
func Apply(in []models.Product, f Filter) []models.Product {
	out := make([]models.Product, 0, len(in))
	query := strings.ToLower(f.Search)
	for _, p := range in {
		if query != "" && !matches(p, query) {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.Brand != "" && p.Brand != f.Brand {
			continue
		}
		if f.MinPrice != nil && p.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && p.Price > *f.MaxPrice {
			continue
		}
		if f.InStock && !p.InStock {
			continue
		}
		if f.OnSale && p.Discount <= 0 {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matches(p models.Product, query string) bool {
	return strings.Contains(strings.ToLower(p.Title), query) ||
		strings.Contains(strings.ToLower(p.Description), query) ||
		strings.Contains(strings.ToLower(p.Category), query) ||
		strings.Contains(strings.ToLower(p.Brand), query)
}

// PriceRange is the min and max price over products, used for the price
// slider bounds. Both are 0 for an empty list.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func RangeOf(in []models.Product) PriceRange {
	if len(in) == 0 {
		return PriceRange{}
	}
	r := PriceRange{Min: in[0].Price, Max: in[0].Price}
	for _, p := range in[1:] {
		if p.Price < r.Min {
			r.Min = p.Price
		}
		if p.Price > r.Max {
			r.Max = p.Price
		}
	}
	return r
}
