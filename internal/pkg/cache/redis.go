// Package cache wires an optional Redis client and exposes a small
// TTL-cache adapter that remembers hostname safety verdicts, so a
// hostname already found unsafe is rejected without another DNS lookup.
package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"zenpdf-worker/configs"
)

// NewRedisClient creates a new Redis client
func NewRedisClient(cfg configs.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Ping the Redis server to ensure the connection is established
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}
