package redis

import (
	"context"
	"errors"
	"time"

	"github.com/elevate-hub/elevate/pkg/circuitbreaker"
	"github.com/elevate-hub/elevate/pkg/logger"
)

// DashboardCache keeps per-user dashboard snapshots. Every Redis call goes
// through a circuit breaker, and failures degrade to cache misses so the
// caller recomputes from storage.
type DashboardCache struct {
	cache   *Cache
	breaker *circuitbreaker.CircuitBreaker
	log     *logger.Logger
	ttl     time.Duration
	timeout time.Duration
}

// NewDashboardCache creates a DashboardCache.
func NewDashboardCache(cache *Cache, breaker *circuitbreaker.CircuitBreaker, log *logger.Logger) *DashboardCache {
	if log == nil {
		log = logger.Nop()
	}
	return &DashboardCache{
		cache:   cache,
		breaker: breaker,
		log:     log.With(logger.Component("dashboard-cache")),
		ttl:     TTLDashboard,
		timeout: 300 * time.Millisecond,
	}
}

// Get loads the snapshot for (username, day) into dest. The boolean is
// false on a miss, an open circuit or any Redis error.
func (d *DashboardCache) Get(ctx context.Context, username, day string, dest any) bool {
	err := d.run(ctx, func(ctx context.Context) error {
		return d.cache.Get(ctx, DashboardKey(username, day), dest)
	})
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrCacheMiss):
		return false
	default:
		d.warn("get", username, err)
		return false
	}
}

// Set stores a snapshot. Failures are logged and dropped.
func (d *DashboardCache) Set(ctx context.Context, username, day string, value any) {
	err := d.run(ctx, func(ctx context.Context) error {
		return d.cache.Set(ctx, DashboardKey(username, day), value, d.ttl)
	})
	if err != nil {
		d.warn("set", username, err)
	}
}

// Invalidate drops every snapshot of the user.
func (d *DashboardCache) Invalidate(ctx context.Context, username string) {
	err := d.run(ctx, func(ctx context.Context) error {
		return d.cache.DeleteByPattern(ctx, DashboardPattern(username))
	})
	if err != nil {
		d.warn("invalidate", username, err)
	}
}

func (d *DashboardCache) run(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if d.breaker == nil {
		return fn(ctx)
	}
	return d.breaker.ExecuteWithFallback(ctx, fn, func(error) error {
		return ErrCacheBypassed
	})
}

func (d *DashboardCache) warn(op, username string, err error) {
	if errors.Is(err, ErrCacheBypassed) {
		d.log.Debug("dashboard cache bypassed", logger.Operation(op), logger.Username(username))
		return
	}
	fields := []logger.Field{
		logger.Operation(op),
		logger.Username(username),
		logger.Err(err),
	}
	if d.breaker != nil {
		fields = append(fields,
			logger.String("circuit", d.breaker.State().String()),
			logger.Int("consecutive_failures", d.breaker.Counts().ConsecutiveFailures),
		)
	}
	d.log.Warn("dashboard cache unavailable", fields...)
}

// BreakerIsFailure counts only infrastructure errors against the breaker;
// misses and bad payloads are normal results.
func BreakerIsFailure(err error) bool {
	return !errors.Is(err, ErrCacheMiss) && !errors.Is(err, ErrCacheSerialization)
}
