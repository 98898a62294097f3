package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/identity-api/internal/core/domain"
)

// KVStore implements ports.KeyValueStore on Redis. Each key expires on its
// own TTL; SET and DEL are atomic per key, which is all the OTP and blacklist
// entries need.
type KVStore struct {
	client *redis.Client
}

// NewKVStore creates a KVStore wrapping the given Redis client.
func NewKVStore(client *redis.Client) *KVStore {
	return &KVStore{client: client}
}

// Set stores value under key, overwriting any existing entry and resetting
// its expiry.
func (s *KVStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("kv set: %w", err)
	}
	return nil
}

// Get returns the value for key, or domain.ErrKeyNotFound when the key is
// absent or expired. Connectivity failures keep their own error.
func (s *KVStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrKeyNotFound
		}
		return "", fmt.Errorf("kv get: %w", err)
	}
	return val, nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("kv delete: %w", err)
	}
	return nil
}
