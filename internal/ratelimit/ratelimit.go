// Package ratelimit provides an atomic per-IP request limiter over Redis
// for the public submission endpoints. A GET then INCR sequence would race
// under concurrent requests, so check and increment run in one Lua script.
package ratelimit

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const fixedWindowScript = `
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local ttl = tonumber(ARGV[2])

local current = tonumber(redis.call("GET", key) or "0")
if current >= limit then
    return 0
end

local newVal = redis.call("INCR", key)
if newVal == 1 then
    redis.call("EXPIRE", key, ttl)
end
return 1
`

// Limiter counts requests per client IP in fixed one-minute windows.
type Limiter struct {
	redis       *redis.Client
	perMinute   int
	fixedWindow *redis.Script
}

// New creates a limiter over an existing Redis client.
func New(client *redis.Client, perMinute int) *Limiter {
	return &Limiter{
		redis:       client,
		perMinute:   perMinute,
		fixedWindow: redis.NewScript(fixedWindowScript),
	}
}

// NewFromURL connects to Redis and returns a limiter, verifying the
// connection up front so a bad URL fails at boot rather than at first use.
func NewFromURL(redisURL string, perMinute int) (*Limiter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return New(client, perMinute), nil
}

// Allow reports whether one more request from ip within scope fits the
// current window. Redis failures fail open: a degraded limiter must not take
// the capture endpoints down with it.
func (l *Limiter) Allow(ctx context.Context, scope, ip string) bool {
	key := fmt.Sprintf("ratelimit:%s:%s:%d", scope, ip, time.Now().Unix()/60)

	allowed, err := l.fixedWindow.Run(ctx, l.redis, []string{key}, l.perMinute, 120).Int64()
	if err != nil {
		log.Printf("[ratelimit] check failed for %s: %v", scope, err)
		return true
	}
	return allowed == 1
}

// Close closes the underlying Redis connection.
func (l *Limiter) Close() error {
	return l.redis.Close()
}
