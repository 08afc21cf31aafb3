package security

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/creamcroissant/vpnadmin/internal/cache"
)

var (
	ErrLimiterNotReady = errors.New("rate limiter not initialized / 限流器未初始化")
	ErrInvalidLimit    = errors.New("limit must be positive / limit 必须为正数")
)

// RateLimiter 是固定窗口计数器，按客户端 IP 限制 /api 请求。
type RateLimiter struct {
	counters cache.Store
}

// RateResult 描述 Allow 调用的结果。
type RateResult struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the wait until the window resets, rounded up to whole seconds.
func (r RateResult) RetryAfter(now time.Time) time.Duration {
	wait := r.ResetAt.Sub(now)
	if wait <= 0 {
		return 0
	}
	return wait.Truncate(time.Second) + time.Second
}

// NewRateLimiter 使用共享缓存的 "rate" 命名空间保存计数。
func NewRateLimiter(store cache.Store) (*RateLimiter, error) {
	if store == nil {
		return nil, fmt.Errorf("rate limiter requires cache store / 限流器需要缓存存储")
	}
	return &RateLimiter{counters: store.Namespace("rate")}, nil
}

// Allow 记一次请求并判断 key 在当前窗口内是否还有额度。
func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (RateResult, error) {
	if l == nil {
		return RateResult{}, ErrLimiterNotReady
	}
	if limit <= 0 {
		return RateResult{}, ErrInvalidLimit
	}
	if window <= 0 {
		window = time.Minute
	}

	count, resetAt, err := l.counters.Increment(ctx, key, 1, window)
	if err != nil {
		return RateResult{}, fmt.Errorf("increment rate counter: %w", err)
	}
	return RateResult{
		Allowed:   count <= int64(limit),
		Remaining: max(limit-int(count), 0),
		ResetAt:   resetAt,
	}, nil
}

// Reset 清除指定 key 的计数。
func (l *RateLimiter) Reset(ctx context.Context, key string) {
	if l == nil {
		return
	}
	l.counters.Delete(ctx, key)
}
