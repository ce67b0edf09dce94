package locking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseLua deletes the lock key only if it still holds the caller's token,
// so an expired holder can never release a lock someone else now owns.
const releaseLua = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`

const defaultRetryInterval = 25 * time.Millisecond

// RedisLocker is a Locker shared by every API instance pointing at the same
// Redis. Locks carry a TTL so a crashed holder cannot wedge an account.
type RedisLocker struct {
	rdb           redis.UniversalClient
	release       *redis.Script
	ttl           time.Duration
	retryInterval time.Duration
	prefix        string
}

// NewRedisLocker creates a RedisLocker. ttl bounds how long a lock survives
// a holder that never releases it.
func NewRedisLocker(rdb redis.UniversalClient, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		rdb:           rdb,
		release:       redis.NewScript(releaseLua),
		ttl:           ttl,
		retryInterval: defaultRetryInterval,
		prefix:        "papertrade:lock:",
	}
}

// Acquire implements Locker. It polls SETNX until the key is free or ctx ends.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.New().String()
	lk := l.prefix + key

	ticker := time.NewTicker(l.retryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.rdb.SetNX(ctx, lk, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrLockTimeout, key, ctx.Err())
			}
			return nil, fmt.Errorf("redis: acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrLockTimeout, key, ctx.Err())
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's context may already be done by the time it releases.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = l.release.Run(releaseCtx, l.rdb, []string{lk}, token).Err()
		})
	}, nil
}

var _ Locker = (*RedisLocker)(nil)
