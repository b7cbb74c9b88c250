package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStorage implements Storage on top of a go-redis client, letting
// multiple service instances share one cached feature set.
type RedisStorage struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// RedisOption configures a RedisStorage.
type RedisOption func(*RedisStorage)

// WithRedisTTL sets an expiry applied to every stored key. Zero (the
// default) stores keys without expiry.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStorage) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewRedisStorage creates a Redis-backed storage using the provided client.
// The caller retains ownership of the client and its lifecycle.
func NewRedisStorage(client redis.UniversalClient, opts ...RedisOption) (*RedisStorage, error) {
	if client == nil {
		return nil, ErrNilClient
	}

	s := &RedisStorage{client: client}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Get returns the value for key, or ErrNotFound.
func (s *RedisStorage) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", err
	}
	return v, nil
}

// Set stores value under key, overwriting any existing value.
func (s *RedisStorage) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, key, value, s.ttl).Err()
}

// Remove deletes key. Removing an absent key is not an error.
func (s *RedisStorage) Remove(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
