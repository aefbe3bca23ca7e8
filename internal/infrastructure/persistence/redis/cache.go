// Package redis implements the optional Redis layer of Elevate.
//
// Key components:
//   - Cache: JSON values with TTLs
//   - DashboardCache: per-user dashboard snapshots behind a circuit breaker
//   - Locker: a per-name write lock shared by every process of one deployment
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/elevate-hub/elevate/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds Redis connection configuration.
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int

	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// KeyPrefix namespaces every key, e.g. "elevate:".
	KeyPrefix string
}

// DefaultConfig returns a local single-node configuration.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         6379,
		PoolSize:     4,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		KeyPrefix:    "elevate:",
	}
}

// Addr returns the Redis address in "host:port" format.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrCacheMiss is returned when the requested key is not found in cache.
	ErrCacheMiss = errors.New("cache: key not found")

	// ErrCacheConnection is returned when Redis connection fails.
	ErrCacheConnection = errors.New("cache: connection failed")

	// ErrCacheSerialization is returned when serialization/deserialization fails.
	ErrCacheSerialization = errors.New("cache: serialization failed")

	// ErrCacheKeyEmpty is returned when an empty key is provided.
	ErrCacheKeyEmpty = errors.New("cache: key cannot be empty")

	// ErrCacheBypassed is returned while the circuit breaker keeps Redis out
	// of the request path.
	ErrCacheBypassed = errors.New("cache: bypassed while circuit is open")
)

// ══════════════════════════════════════════════════════════════════════════════
// KEYS AND TTLs
// ══════════════════════════════════════════════════════════════════════════════

const (
	// PrefixDashboard namespaces dashboard snapshots.
	PrefixDashboard = "dashboard:"

	// PrefixLock namespaces write locks.
	PrefixLock = "lock:"
)

const (
	// TTLDashboard bounds how stale a cached dashboard can get.
	TTLDashboard = 10 * time.Minute

	// TTLWriteLock is how long an abandoned write lock survives.
	TTLWriteLock = 10 * time.Second
)

// DashboardKey returns the key of a user's dashboard for one calendar day.
func DashboardKey(username, day string) string {
	return PrefixDashboard + username + ":" + day
}

// DashboardPattern matches every cached dashboard of a user.
func DashboardPattern(username string) string {
	return PrefixDashboard + username + ":*"
}

// LockKey returns the write-lock key of a user or of a shared store.
func LockKey(name string) string {
	return PrefixLock + "write:" + name
}

// ══════════════════════════════════════════════════════════════════════════════
// CACHE CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Cache stores JSON values in Redis.
type Cache struct {
	client *redis.Client
	prefix string
}

// NewCache connects to Redis, retrying the initial ping with r when given.
func NewCache(ctx context.Context, cfg Config, r *retry.Retrier) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ping := func(ctx context.Context) error {
		pctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
		return classifyPingError(client.Ping(pctx).Err())
	}

	var err error
	if r == nil {
		err = ping(ctx)
	} else {
		err = r.Do(ctx, ping)
	}
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}

	return NewCacheFromClient(client, cfg.KeyPrefix), nil
}

// classifyPingError marks authentication failures as permanent so startup
// does not keep retrying a wrong password.
func classifyPingError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	for _, prefix := range []string{"NOAUTH", "WRONGPASS", "ERR invalid password", "ERR AUTH"} {
		if strings.HasPrefix(msg, prefix) {
			return retry.Permanent(err)
		}
	}
	return err
}

// NewCacheFromClient wraps an existing client.
func NewCacheFromClient(client *redis.Client, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

// Client returns the underlying Redis client.
func (c *Cache) Client() *redis.Client {
	return c.client
}

// Key applies the configured namespace.
func (c *Cache) Key(key string) string {
	return c.prefix + key
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping checks if Redis is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Set stores value as JSON under key with the given TTL.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if key == "" {
		return ErrCacheKeyEmpty
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return c.client.Set(ctx, c.Key(key), data, ttl).Err()
}

// Get decodes the JSON value under key into dest.
// Returns ErrCacheMiss if the key doesn't exist.
func (c *Cache) Get(ctx context.Context, key string, dest any) error {
	if key == "" {
		return ErrCacheKeyEmpty
	}

	data, err := c.client.Get(ctx, c.Key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return nil
}

// Delete removes keys.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.Key(k)
	}
	return c.client.Del(ctx, full...).Err()
}

// DeleteByPattern deletes every key matching pattern, scanning in batches.
func (c *Cache) DeleteByPattern(ctx context.Context, pattern string) error {
	if pattern == "" {
		return ErrCacheKeyEmpty
	}

	iter := c.client.Scan(ctx, 0, c.Key(pattern), 100).Iterator()
	var keys []string

	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) >= 100 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}

	if len(keys) > 0 {
		return c.client.Del(ctx, keys...).Err()
	}
	return nil
}
