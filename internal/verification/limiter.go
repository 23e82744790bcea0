package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter throttles code delivery per phone: one code per cooldown and at
// most maxInWindow codes per window. Exceeding the window blocks the phone
// for three windows.
type Limiter struct {
	client      *redis.Client
	window      time.Duration
	maxInWindow int
	cooldown    time.Duration
}

// NewLimiter constructs a limiter.
func NewLimiter(client *redis.Client, window time.Duration, maxInWindow int, cooldown time.Duration) *Limiter {
	return &Limiter{client: client, window: window, maxInWindow: maxInWindow, cooldown: cooldown}
}

// Allow records an attempt or returns a *RateLimitError.
func (l *Limiter) Allow(ctx context.Context, phone string) error {
	blockKey := "verify:block:" + phone
	lastKey := "verify:last:" + phone
	countKey := "verify:count:" + phone

	ttl, err := l.client.TTL(ctx, blockKey).Result()
	if err != nil {
		return fmt.Errorf("read block ttl: %w", err)
	}
	if ttl > 0 {
		return &RateLimitError{RetryAfter: ttl, Blocked: true}
	}

	ttl, err = l.client.TTL(ctx, lastKey).Result()
	if err != nil {
		return fmt.Errorf("read cooldown ttl: %w", err)
	}
	if ttl > 0 {
		return &RateLimitError{RetryAfter: ttl}
	}

	cnt, err := l.client.Incr(ctx, countKey).Result()
	if err != nil {
		return fmt.Errorf("count attempts: %w", err)
	}
	if cnt == 1 {
		if err := l.client.Expire(ctx, countKey, l.window).Err(); err != nil {
			return fmt.Errorf("expire attempts: %w", err)
		}
	}

	if l.maxInWindow > 0 && int(cnt) > l.maxInWindow {
		block := l.window * 3
		if err := l.client.Set(ctx, blockKey, "1", block).Err(); err != nil {
			return fmt.Errorf("block phone: %w", err)
		}
		return &RateLimitError{RetryAfter: block, Blocked: true}
	}

	if l.cooldown > 0 {
		if err := l.client.Set(ctx, lastKey, "1", l.cooldown).Err(); err != nil {
			return fmt.Errorf("set cooldown: %w", err)
		}
	}
	return nil
}
