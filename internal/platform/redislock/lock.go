package redislock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/pao-report-backend/internal/platform/logger"
)

// ErrHeld is returned by Acquire when another holder owns the key.
var ErrHeld = errors.New("lock held")

// releaseScript deletes the key only when the caller still owns it.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Config struct {
	Addr   string
	Prefix string
	TTL    time.Duration
}

type Locker struct {
	log    *logger.Logger
	rdb    goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

// New connects to redis and pings it. An empty Addr returns (nil, nil) so
// callers can run without a lock.
func New(ctx context.Context, log *logger.Logger, cfg Config) (*Locker, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, nil
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewWithClient(log, rdb, cfg), nil
}

func NewWithClient(log *logger.Logger, rdb goredis.UniversalClient, cfg Config) *Locker {
	prefix := strings.TrimSpace(cfg.Prefix)
	if prefix == "" {
		prefix = "pao:generate:"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Locker{
		log:    log.With("service", "RedisLocker"),
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Acquire takes the lock for id. The returned func releases it and is safe
// to call more than once.
func (l *Locker) Acquire(ctx context.Context, id string) (func(), error) {
	if l == nil {
		return func() {}, nil
	}
	key := l.prefix + id
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	if !ok {
		return nil, ErrHeld
	}
	released := false
	return func() {
		if released {
			return
		}
		released = true
		relCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := releaseScript.Run(relCtx, l.rdb, []string{key}, token).Err(); err != nil {
			l.log.Warn("Release generation lock failed", "key", key, "error", err)
		}
	}, nil
}

func (l *Locker) Close() error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Close()
}
