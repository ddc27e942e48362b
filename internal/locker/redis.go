package locker

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/readerbot/core/logger"
)

const retryInterval = 25 * time.Millisecond

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Locker shared by several bot replicas.
type Redis struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	wait   time.Duration
}

// RedisOptions configures NewRedis.
type RedisOptions struct {
	Prefix string
	// TTL bounds how long a crashed holder keeps the lock.
	TTL time.Duration
	// Wait bounds how long Lock retries before ErrLockTimeout.
	Wait time.Duration
}

// Connect parses url, pings the server and returns the client.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// NewRedis wraps rdb as a Locker.
func NewRedis(rdb *redis.Client, opts RedisOptions) *Redis {
	prefix := strings.TrimSpace(opts.Prefix)
	if prefix == "" {
		prefix = "readerbot:lock"
	}
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Second
	}
	if opts.Wait <= 0 {
		opts.Wait = 5 * time.Second
	}
	return &Redis{rdb: rdb, prefix: prefix, ttl: opts.TTL, wait: opts.Wait}
}

// Lock retries SET NX until the key is free, the wait budget elapses or ctx is done.
func (r *Redis) Lock(ctx context.Context, userID int64) (func(), error) {
	key := fmt.Sprintf("%s:%d", r.prefix, userID)
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	deadline := time.Now().Add(r.wait)
	for {
		ok, err := r.rdb.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("lock %s: %w", key, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}
		t := time.NewTimer(retryInterval)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()
			err := releaseScript.Run(relCtx, r.rdb, []string{key}, token).Err()
			if err != nil && !errors.Is(err, redis.Nil) {
				logger.Warn(ctx, "locker", "unlock.fail",
					slog.String("key", key),
					slog.String("err", err.Error()),
				)
			}
		})
	}, nil
}

func newToken() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("lock token: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}
