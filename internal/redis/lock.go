package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("clinic day lock not acquired")
)

// Locker serializes booking commits for a single clinic day. The scope is
// one civil day because the clinic has one practitioner: every confirmed
// booking conflicts with every other on time, regardless of service, so
// commits for the same day must queue while commits for different days run
// freely.
type Locker interface {
	WithDayLock(ctx context.Context, day string, fn func(ctx context.Context) error) error
}

type redisDayLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
}

// NewRedisDayLocker creates a locker backed by a per-day Redis key. Lock
// acquisition blocks, polling every retry interval, until the lock is free
// or the caller's context expires; a racing committer therefore waits its
// turn and then observes the conflict, rather than being told to come back.
func NewRedisDayLocker(client *redis.Client, ttl, retry time.Duration) Locker {
	return &redisDayLocker{
		client: client,
		ttl:    ttl,
		retry:  retry,
	}
}

func (l *redisDayLocker) WithDayLock(ctx context.Context, day string, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:clinic-day:%s", day)
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return fmt.Errorf("acquire day lock: %w", err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrLockNotAcquired, ctx.Err())
		case <-time.After(l.retry):
		}
	}

	defer func() {
		_ = l.release(ctx, key, token)
	}()

	// The critical section must finish before the lock's TTL can lapse.
	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisDayLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release day lock: %w", err)
	}
	return nil
}
