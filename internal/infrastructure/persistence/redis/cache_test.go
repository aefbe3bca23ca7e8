package redis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/elevate-hub/elevate/pkg/circuitbreaker"
	"github.com/elevate-hub/elevate/pkg/logger"
	"github.com/elevate-hub/elevate/pkg/retry"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "dashboard:alice:2024-05-20", DashboardKey("alice", "2024-05-20"))
	assert.Equal(t, "dashboard:alice:*", DashboardPattern("alice"))
	assert.Equal(t, "lock:write:alice", LockKey("alice"))
	assert.Equal(t, "localhost:6379", DefaultConfig().Addr())
}

func TestCache_KeyPrefix(t *testing.T) {
	c := NewCacheFromClient(nil, "elevate:")
	assert.Equal(t, "elevate:dashboard:bob:x", c.Key(DashboardKey("bob", "x")))
}

func TestCache_EmptyKey(t *testing.T) {
	c := NewCacheFromClient(nil, "")
	ctx := context.Background()

	assert.ErrorIs(t, c.Set(ctx, "", 1, time.Minute), ErrCacheKeyEmpty)
	assert.ErrorIs(t, c.Get(ctx, "", new(int)), ErrCacheKeyEmpty)
	assert.ErrorIs(t, c.DeleteByPattern(ctx, ""), ErrCacheKeyEmpty)
	assert.NoError(t, c.Delete(ctx))
}

func TestBreakerIsFailure(t *testing.T) {
	assert.False(t, BreakerIsFailure(ErrCacheMiss))
	assert.False(t, BreakerIsFailure(fmt.Errorf("%w: bad json", ErrCacheSerialization)))
	assert.True(t, BreakerIsFailure(errors.New("dial tcp: connection refused")))
}

func TestDashboardCache_DegradesWhenRedisIsDown(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	breaker := circuitbreaker.New("test", circuitbreaker.WithFailureThreshold(1), circuitbreaker.WithIsFailure(BreakerIsFailure))
	var logs bytes.Buffer
	log := logger.New(logger.Options{Output: &logs, Level: logger.LevelWarn, Format: logger.FormatJSON})
	dc := NewDashboardCache(NewCacheFromClient(client, ""), breaker, log)
	ctx := context.Background()

	var dest map[string]int
	assert.False(t, dc.Get(ctx, "alice", "2024-05-20", &dest))
	assert.Equal(t, circuitbreaker.StateOpen, breaker.State())
	assert.Equal(t, 1, strings.Count(logs.String(), "dashboard cache unavailable"))
	assert.Contains(t, logs.String(), `"circuit":"open"`)

	// Open circuit: no network round trip, still a miss, no further warnings.
	assert.False(t, dc.Get(ctx, "alice", "2024-05-20", &dest))
	dc.Set(ctx, "alice", "2024-05-20", map[string]int{"x": 1})
	dc.Invalidate(ctx, "alice")
	assert.Equal(t, 1, strings.Count(logs.String(), "dashboard cache unavailable"))
}

func TestClassifyPingError(t *testing.T) {
	assert.NoError(t, classifyPingError(nil))
	assert.True(t, retry.IsPermanent(classifyPingError(errors.New("WRONGPASS invalid username-password pair"))))
	assert.True(t, retry.IsPermanent(classifyPingError(errors.New("NOAUTH Authentication required."))))

	refused := errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")
	assert.False(t, retry.IsPermanent(classifyPingError(refused)))
}
