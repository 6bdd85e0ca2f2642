// Package state holds the storefront state containers: cart, wishlist,
// orders and the signed-in session. Each container owns one collection,
// loads it from a store.KV and writes it back after every mutation.
package state

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront/store"
)

// Storage keys, relative to whatever namespace the KV is scoped to.
const (
	KeyCart      = "cart"
	KeyWishlist  = "wishlist"
	KeyAuthToken = "auth_token"
	KeyUserData  = "user_data"
)

// OrdersKey is where a user's order history lives.
func OrdersKey(userID string) string { return "orders_" + userID }

// WishlistKey is the wishlist key for a signed-in user.
func WishlistKey(userID string) string { return "wishlist_" + userID }

// load decodes key into v. A missing key leaves v untouched.
func load(ctx context.Context, kv store.KV, key string, v any) error {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func save(ctx context.Context, kv store.KV, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
