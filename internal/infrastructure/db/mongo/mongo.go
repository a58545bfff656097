package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const defaultTimeout = 10 * time.Second

// Config holds the connection settings for the catalog database.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect dials MongoDB, pings the primary and returns the client together
// with the selected database.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// EnsureIndexes creates the indexes every repository relies on for uniqueness.
func EnsureIndexes(ctx context.Context, repos ...indexer) error {
	for _, r := range repos {
		if err := r.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
	}
	return nil
}

// Pinger adapts a client to the readiness check.
type Pinger struct {
	Client *mongo.Client
}

func (p Pinger) Ping(ctx context.Context) error {
	return p.Client.Ping(ctx, readpref.Primary())
}
