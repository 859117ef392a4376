// Package cache agrupa los adaptadores sobre Redis.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RateLimiter cuenta peticiones por clave dentro de una ventana fija.
type RateLimiter interface {
	// Allow registra una petición y devuelve si está permitida y cuántas quedan en la ventana.
	Allow(ctx context.Context, key string) (allowed bool, remaining int, err error)
}

// RedisRateLimiter ventana fija con INCR + EXPIRE. La clave incluye el inicio de la ventana.
type RedisRateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

// NewRedisClient crea el cliente y verifica la conexión con PING.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

// NewRedisRateLimiter limit peticiones por window.
func NewRedisRateLimiter(rdb *redis.Client, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{rdb: rdb, limit: limit, window: window, prefix: "ratelimit", now: time.Now}
}

// Allow implementa RateLimiter.
func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	k := windowKey(l.prefix, key, l.now(), l.window)

	var incr *redis.IntCmd
	_, err := l.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.Expire(ctx, k, l.window)
		return nil
	})
	if err != nil {
		return false, 0, fmt.Errorf("rate limit %s: %w", key, err)
	}
	count := int(incr.Val())
	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= l.limit, remaining, nil
}

func windowKey(prefix, key string, now time.Time, window time.Duration) string {
	start := now.Truncate(window).Unix()
	return fmt.Sprintf("%s:%s:%d", prefix, key, start)
}
