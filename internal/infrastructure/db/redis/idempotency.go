package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultIdempotencyTTL = 24 * time.Hour

// IdempotencyStore remembers client-supplied idempotency keys per user.
// Key format: idem:<user_id>:<key>
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Claim records key for scope and reports whether this is its first use.
func (s *IdempotencyStore) Claim(ctx context.Context, scope, key string) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.key(scope, key), "1", s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("idempotency claim: %w", err)
	}
	return ok, nil
}

// Release forgets key so a failed request can be retried with it.
func (s *IdempotencyStore) Release(ctx context.Context, scope, key string) error {
	if err := s.client.Del(ctx, s.key(scope, key)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(scope, key string) string {
	return fmt.Sprintf("idem:%s:%s", scope, key)
}
