package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/elevate-hub/elevate/internal/domain/shared"
	"github.com/elevate-hub/elevate/internal/domain/study"
)

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockConfig tunes Locker.
type LockConfig struct {
	// TTL expires a lock whose holder died.
	TTL time.Duration

	// Wait bounds how long Lock keeps trying.
	Wait time.Duration

	// Poll is the pause between attempts.
	Poll time.Duration
}

// DefaultLockConfig returns the standard write-lock settings.
func DefaultLockConfig() LockConfig {
	return LockConfig{
		TTL:  TTLWriteLock,
		Wait: 5 * time.Second,
		Poll: 50 * time.Millisecond,
	}
}

// Locker implements study.Locker with SET NX PX and a token-checked release.
type Locker struct {
	cache  *Cache
	config LockConfig
}

// NewLocker creates a Locker.
func NewLocker(cache *Cache, config LockConfig) *Locker {
	return &Locker{cache: cache, config: config}
}

var _ study.Locker = (*Locker)(nil)

// Lock acquires the write lock of a user or of a shared store.
func (l *Locker) Lock(ctx context.Context, username shared.Username) (study.Unlock, error) {
	key := l.cache.Key(LockKey(username.String()))
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, l.config.Wait)
	defer cancel()

	ticker := time.NewTicker(l.config.Poll)
	defer ticker.Stop()

	for {
		ok, err := l.cache.client.SetNX(ctx, key, token, l.config.TTL).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("redis lock: %w", err)
		}
		if ok {
			return l.unlocker(key, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, shared.ErrUserLocked
		case <-ticker.C:
		}
	}
}

func (l *Locker) unlocker(key, token string) study.Unlock {
	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.cache.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("redis unlock: %w", err)
		}
		return nil
	}
}
