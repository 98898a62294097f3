package ports

import (
	"context"
	"time"
)

// KeyValueStore is an ephemeral store with per-key expiry. It backs OTP
// challenges and the token blacklist.
//
// Set overwrites any existing entry and resets its expiry. Get returns
// domain.ErrKeyNotFound for absent or expired keys; connectivity failures
// return a different error. Delete is idempotent.
type KeyValueStore interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}
