package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain"
)

// Per-user preference writes are serialized through a short-lived redis
// lock; contention is rare, so a handful of quick retries is enough.
const (
	lockAttempts   = 5
	lockRetryDelay = 50 * time.Millisecond
)

type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

var _ Locker = (*RedisLocker)(nil)

type RedisLocker struct {
	cli *redis.Client
}

func NewLocker(c *Client) *RedisLocker {
	return &RedisLocker{cli: c.cli}
}

// TryLock acquires key with a random token, retrying briefly while the
// holder finishes. The token is required to release, so a slow holder
// can't be unlocked by a later acquirer.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	for attempt := 0; attempt < lockAttempts; attempt++ {
		ok, err := l.cli.SetNX(ctx, key, token, ttl).Result()
		if err == nil && ok {
			return token, nil
		}
		// Transient redis errors retry on the same schedule as contention.
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
	return "", domain.ErrLockNotAcquired
}

var luaUnlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	_, err := luaUnlock.Run(ctx, l.cli, []string{key}, token).Result()
	return err
}
