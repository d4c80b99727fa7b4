package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockLost is returned on release when the key expired or changed owner
// before the holder gave it up.
var ErrLockLost = errors.New("lock: lock expired before release")

const (
	defaultTTL   = 10 * time.Second
	defaultRetry = 25 * time.Millisecond
	keyPrefix    = "roombook:lock:"
)

// releaseScript deletes the key only while it still carries the holder's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker shared by every process using the same Redis.
//
// Each lock expires after TTL so a crashed holder cannot block a room
// forever. Work done under the lock must finish well within TTL.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
}

// NewRedisLocker returns a RedisLocker. A non-positive ttl selects the default.
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisLocker{client: client, ttl: ttl, retry: defaultRetry}
}

// Lock implements Locker, polling until the key is free or ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, key string) (Release, error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("lock: acquire %q: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	return func(ctx context.Context) error {
		n, err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Int()
		if err != nil {
			return fmt.Errorf("lock: release %q: %w", key, err)
		}
		if n == 0 {
			return fmt.Errorf("lock: release %q: %w", key, ErrLockLost)
		}
		return nil
	}, nil
}
