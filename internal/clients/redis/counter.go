package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/sashaspath/backend/internal/logger"
)

// DayCounter is the redis-backed daily usage counter. INCR is atomic, so the
// admit decision never needs a lock: a caller that increments past the limit
// decrements right back and is rejected, which admits exactly limit callers
// per day regardless of interleaving.
type DayCounter interface {
	ReserveUnit(ctx context.Context, day string, limit int) (count int, allowed bool, err error)
	GetCount(ctx context.Context, day string) (int, error)
	Close() error
}

type dayCounter struct {
	log       *logger.Logger
	rdb       *goredis.Client
	keyPrefix string
}

// Day keys linger for two days; the new calendar key supersedes the old one.
const counterKeyTTL = 48 * time.Hour

func NewDayCounter(log *logger.Logger) (DayCounter, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	prefix := strings.TrimSpace(os.Getenv("REDIS_QUOTA_PREFIX"))
	if prefix == "" {
		prefix = "quota:day"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &dayCounter{
		log:       log.With("service", "RedisDayCounter"),
		rdb:       rdb,
		keyPrefix: prefix,
	}, nil
}

func (c *dayCounter) key(day string) string {
	return c.keyPrefix + ":" + day
}

func (c *dayCounter) ReserveUnit(ctx context.Context, day string, limit int) (int, bool, error) {
	if limit <= 0 {
		count, err := c.GetCount(ctx, day)
		return count, false, err
	}

	key := c.key(day)
	n, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, false, fmt.Errorf("redis incr: %w", err)
	}
	if n == 1 {
		if err := c.rdb.Expire(ctx, key, counterKeyTTL).Err(); err != nil {
			c.log.Warn("Failed to set TTL on quota key", "key", key, "error", err)
		}
	}
	if n > int64(limit) {
		if err := c.rdb.Decr(ctx, key).Err(); err != nil {
			c.log.Warn("Failed to roll back over-limit increment", "key", key, "error", err)
		}
		return limit, false, nil
	}
	return int(n), true, nil
}

func (c *dayCounter) GetCount(ctx context.Context, day string) (int, error) {
	n, err := c.rdb.Get(ctx, c.key(day)).Int()
	if err == goredis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get: %w", err)
	}
	return n, nil
}

func (c *dayCounter) Close() error {
	return c.rdb.Close()
}
