package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"fitlesson-settlement/internal/domain"
)

// RedisLocker is a SETNX lock with a token-checked Lua unlock. It serializes
// payout submissions by the same trainer across processes.
type RedisLocker struct {
	cli *redis.Client
}

func NewLocker(c *Client) *RedisLocker {
	return &RedisLocker{cli: c.cli}
}

// TryLock distinguishes a contended lock from a store outage: contention
// means a duplicate submission, an outage is a retriable upstream failure.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	var lastErr error
	for i := 0; i < 5; i++ {
		ok, err := l.cli.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			lastErr = err
			time.Sleep(50 * time.Millisecond) // wait before retrying
			continue
		}
		lastErr = nil
		if ok {
			return token, nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	if lastErr != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, lastErr)
	}
	return "", domain.ErrDuplicateActiveRequest
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
