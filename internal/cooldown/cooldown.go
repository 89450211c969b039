// Package cooldown rate-limits individual command invocations per user,
// backed by Redis so cooldowns survive restarts and are shared across
// replicas.
package cooldown

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect parses redisURL, creates a client, and verifies connectivity with a ping.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return client, nil
}

// Limiter grants one invocation per key per ttl window.
type Limiter struct {
	client *redis.Client
}

// NewLimiter constructs a Limiter over the given Redis client.
func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

// Allow reports whether the key is outside its cooldown window, and if so
// starts a new window of the given ttl. SETNX makes the check-and-claim a
// single atomic step.
func (l *Limiter) Allow(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, "cooldown:"+key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cooldown check for %s: %w", key, err)
	}
	return ok, nil
}
