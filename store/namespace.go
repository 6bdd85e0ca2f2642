package store

import "context"

type namespaced struct {
	kv     KV
	prefix string
}

// Namespace returns a view of kv where every key is prefixed. Closing the
// view does not close kv.
func Namespace(kv KV, prefix string) KV {
	return &namespaced{kv: kv, prefix: prefix}
}

func (n *namespaced) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}
	return n.kv.Get(ctx, n.prefix+key)
}

func (n *namespaced) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	return n.kv.Set(ctx, n.prefix+key, value)
}

func (n *namespaced) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return n.kv.Delete(ctx, n.prefix+key)
}

func (n *namespaced) Close() error { return nil }
