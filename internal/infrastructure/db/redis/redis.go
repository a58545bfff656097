package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTimeout = 5 * time.Second

// Config holds the Redis connection settings.
type Config struct {
	Addr    string
	DB      int
	Timeout time.Duration
}

// Connect creates a client and pings it before returning.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		DB:          cfg.DB,
		DialTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}

// Pinger adapts a client to the readiness check.
type Pinger struct {
	Client *redis.Client
}

func (p Pinger) Ping(ctx context.Context) error {
	return p.Client.Ping(ctx).Err()
}
