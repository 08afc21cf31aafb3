package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/creamcroissant/vpnadmin/internal/cache"
)

const (
	statsKeyServers      = "servers"
	statsKeyConfigs      = "configs"
	statsKeyPremiumUsers = "premium_users"
	statsKeyAdLogs       = "ad_logs"
)

// statsCache 缓存聚合统计结果；实体变更时按 key 失效。store 为空时不缓存。
type statsCache struct {
	store  cache.Store
	ttl    time.Duration
	logger *slog.Logger
}

func newStatsCache(store cache.Store, ttl time.Duration, logger *slog.Logger) *statsCache {
	if store != nil {
		store = store.Namespace("stats")
	}
	return &statsCache{store: store, ttl: ttl, logger: logger}
}

func (c *statsCache) invalidate(ctx context.Context, key string) {
	if c == nil || c.store == nil {
		return
	}
	c.store.Delete(ctx, key)
	if c.logger != nil {
		c.logger.DebugContext(ctx, "stats cache invalidated", "key", key)
	}
}

func cachedStats[T any](ctx context.Context, c *statsCache, key string, compute func(context.Context) (T, error)) (T, error) {
	if c == nil || c.store == nil || c.ttl <= 0 {
		return compute(ctx)
	}
	if cached, ok := cache.Load[T](ctx, c.store, key); ok {
		return cached, nil
	}
	fresh, err := compute(ctx)
	if err != nil {
		return fresh, err
	}
	c.store.Set(ctx, key, fresh, c.ttl)
	return fresh, nil
}
