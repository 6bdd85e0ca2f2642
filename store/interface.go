package store

import (
	"context"
	"errors"
)

// ErrEmptyKey is returned by every backend when asked to touch the "" key.
var ErrEmptyKey = errors.New("store: empty key")

// KV is the persistence boundary for the storefront state containers.
// Values are opaque bytes; callers decide the encoding.
type KV interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}
