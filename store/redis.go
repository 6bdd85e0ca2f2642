package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore keeps values in Redis under "<namespace>:<key>".
type RedisStore struct {
	client    *redis.Client
	namespace string
}

type RedisOptions struct {
	URL       string
	DB        int
	Namespace string
}

func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	if opts.URL == "" {
		return nil, errors.New("redis URL is required")
	}
	ropt, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	if opts.DB > 0 {
		ropt.DB = opts.DB
	}
	client := redis.NewClient(ropt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStoreFromClient(client, opts.Namespace), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, namespace string) *RedisStore {
	return &RedisStore{client: client, namespace: namespace}
}

func (s *RedisStore) key(k string) string {
	if s.namespace == "" {
		return k
	}
	return s.namespace + ":" + k
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}
	v, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	return s.client.Set(ctx, s.key(key), value, 0).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return s.client.Del(ctx, s.key(key)).Err()
}

func (s *RedisStore) Close() error { return s.client.Close() }
