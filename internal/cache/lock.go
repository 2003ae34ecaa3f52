package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// chatLockPrefix is the Redis key prefix for per-user chat locks.
	chatLockPrefix = "lock:chat:"
	// lockRetryInterval is how often a waiting Lock retries SET NX.
	lockRetryInterval = 50 * time.Millisecond
)

// ErrLockTimeout is returned when the context ends before the lock is held.
var ErrLockTimeout = errors.New("timed out waiting for lock")

// Locker serializes work per key. The returned function releases the lock
// and is safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// releaseScript deletes the lock only while it still holds our token, so an
// expired holder cannot release a lock taken over by someone else.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// RedisLocker is a Locker shared by every process using the same Redis.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLocker returns a RedisLocker whose locks expire after ttl even if the
// holder never releases them.
func (c *Cache) NewLocker(ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: c.client, ttl: ttl}
}

// Lock blocks until key is held or ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := chatLockPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %w", ErrLockTimeout, ctx.Err())
			}
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}
		if ok {
			var once sync.Once
			return func() {
				once.Do(func() {
					ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer cancel()
					_ = releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err()
				})
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrLockTimeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

// LocalLocker is an in-process Locker for single-instance deployments.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*localLock
}

type localLock struct {
	sem  chan struct{}
	refs int
}

// NewLocalLocker creates an empty LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*localLock)}
}

// Lock blocks until key is held or ctx is done.
func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	lk, ok := l.locks[key]
	if !ok {
		lk = &localLock{sem: make(chan struct{}, 1)}
		l.locks[key] = lk
	}
	lk.refs++
	l.mu.Unlock()

	select {
	case lk.sem <- struct{}{}:
	case <-ctx.Done():
		l.forget(key, lk)
		return nil, fmt.Errorf("%w: %w", ErrLockTimeout, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-lk.sem
			l.forget(key, lk)
		})
	}, nil
}

func (l *LocalLocker) forget(key string, lk *localLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, key)
	}
}

// size reports how many keys are tracked.
func (l *LocalLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
