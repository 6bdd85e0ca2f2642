package state

import (
	"context"

	models "storefront/model"
	"storefront/store"
)

// Wishlist is a set of products keyed by product id, kept in insertion order.
type Wishlist struct {
	kv    store.KV
	key   string
	items []models.Product
}

func LoadWishlist(ctx context.Context, kv store.KV, key string) (*Wishlist, error) {
	w := &Wishlist{kv: kv, key: key}
	if err := load(ctx, kv, key, &w.items); err != nil {
		return nil, err
	}
	w.items = dedupe(w.items)
	return w, nil
}

// dedupe guards against a stored list written by something other than Add.
func dedupe(in []models.Product) []models.Product {
	seen := make(map[int64]bool, len(in))
	out := in[:0]
	for _, p := range in {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out
}

func (w *Wishlist) persist(ctx context.Context) error {
	if w.items == nil {
		w.items = []models.Product{}
	}
	return save(ctx, w.kv, w.key, w.items)
}

// Add inserts p unless a product with the same id is already present.
// It reports whether p was added.
func (w *Wishlist) Add(ctx context.Context, p models.Product) (bool, error) {
	if w.Contains(p.ID) {
		return false, nil
	}
	w.items = append(w.items, p)
	return true, w.persist(ctx)
}

func (w *Wishlist) Remove(ctx context.Context, productID int64) error {
	for i, p := range w.items {
		if p.ID == productID {
			w.items = append(w.items[:i], w.items[i+1:]...)
			return w.persist(ctx)
		}
	}
	return nil
}

func (w *Wishlist) Clear(ctx context.Context) error {
	w.items = []models.Product{}
	return w.persist(ctx)
}

func (w *Wishlist) Contains(productID int64) bool {
	for _, p := range w.items {
		if p.ID == productID {
			return true
		}
	}
	return false
}

func (w *Wishlist) Items() []models.Product {
	out := make([]models.Product, len(w.items))
	copy(out, w.items)
	return out
}

// Merge adds every product of other that is not yet present, keeping order.
// Used when a guest signs in with items already saved.
func (w *Wishlist) Merge(ctx context.Context, other []models.Product) error {
	changed := false
	for _, p := range other {
		if w.Contains(p.ID) {
			continue
		}
		w.items = append(w.items, p)
		changed = true
	}
	if !changed {
		return nil
	}
	return w.persist(ctx)
}
