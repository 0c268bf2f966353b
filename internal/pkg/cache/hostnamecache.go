package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const hostnameKeyPrefix = "zenpdf:webfetch:hostsafe:"

// HostnameSafetyCache caches hostname -> public-IP-safety verdicts in
// Redis. The fetcher rejects a host with a cached unsafe verdict
// without resolving it; a host with a cached safe verdict is still
// resolved and filtered, since the fetch needs a concrete IP to pin.
type HostnameSafetyCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewHostnameSafetyCache wraps client. client may be nil, in which case
// every Get reports not-found and every Set is a no-op, so the fetcher
// always falls through to a live DNS resolution.
func NewHostnameSafetyCache(client *redis.Client, logger *zap.Logger) *HostnameSafetyCache {
	return &HostnameSafetyCache{client: client, logger: logger}
}

// Get reports the cached verdict for hostname, if any.
func (c *HostnameSafetyCache) Get(ctx context.Context, hostname string) (safe bool, found bool) {
	if c.client == nil {
		return false, false
	}
	val, err := c.client.Get(ctx, hostnameKeyPrefix+hostname).Result()
	if err != nil {
		return false, false
	}
	return val == "1", true
}

// Set stores hostname's verdict for ttl.
func (c *HostnameSafetyCache) Set(ctx context.Context, hostname string, safe bool, ttl time.Duration) {
	if c.client == nil {
		return
	}
	val := "0"
	if safe {
		val = "1"
	}
	if err := c.client.Set(ctx, hostnameKeyPrefix+hostname, val, ttl).Err(); err != nil {
		c.logger.Warn("failed to cache hostname safety verdict", zap.String("hostname", hostname), zap.Error(err))
	}
}
