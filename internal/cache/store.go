// 文件路径: internal/cache/store.go
// 模块说明: 这是 internal 模块里的 store 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// ErrEmptyKey is returned by Increment for a blank key.
var ErrEmptyKey = errors.New("cache: empty key / 缓存 key 为空")

// Store 是进程内缓存：统计快照、吊销的令牌 ID 和限流计数都放在这里。
// 值按原样保存，不做序列化；命名空间之间互不可见。
type Store interface {
	Get(ctx context.Context, key string) (any, bool)
	Set(ctx context.Context, key string, value any, ttl time.Duration)
	Delete(ctx context.Context, key string)

	// Increment 对固定窗口计数器加 delta。key 不存在时新建，窗口长度为 window；
	// 之后的自增不会延长窗口。返回当前计数和窗口结束时间。
	Increment(ctx context.Context, key string, delta int64, window time.Duration) (int64, time.Time, error)

	// Namespace 返回共享底层缓存、key 带前缀的子视图。
	Namespace(prefix string) Store

	// Purge drops every key under this store's namespace.
	Purge(ctx context.Context) int
}

// Load 读取 key 并断言成 T。类型不符按未命中处理。
func Load[T any](ctx context.Context, s Store, key string) (T, bool) {
	var zero T
	raw, ok := s.Get(ctx, key)
	if !ok {
		return zero, false
	}
	v, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// Options 配置内存缓存行为。
type Options struct {
	DefaultTTL      time.Duration
	CleanupInterval time.Duration
	Prefix          string
}

// NewStore 创建基于 go-cache 的缓存实现。
func NewStore(opts Options) Store {
	ttl := opts.DefaultTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	cleanup := opts.CleanupInterval
	if cleanup <= 0 {
		cleanup = ttl
	}
	return &memoryStore{
		backend:    gocache.New(ttl, cleanup),
		defaultTTL: ttl,
		prefix:     joinPrefix("", opts.Prefix),
	}
}

type memoryStore struct {
	backend    *gocache.Cache
	defaultTTL time.Duration
	prefix     string
}

func (s *memoryStore) Get(_ context.Context, key string) (any, bool) {
	return s.backend.Get(s.key(key))
}

func (s *memoryStore) Set(_ context.Context, key string, value any, ttl time.Duration) {
	s.backend.Set(s.key(key), value, s.ttl(ttl))
}

func (s *memoryStore) Delete(_ context.Context, key string) {
	s.backend.Delete(s.key(key))
}

func (s *memoryStore) Increment(_ context.Context, key string, delta int64, window time.Duration) (int64, time.Time, error) {
	if strings.TrimSpace(key) == "" {
		return 0, time.Time{}, ErrEmptyKey
	}
	k := s.key(key)
	// Add 只在 key 不存在（或已过期）时生效，窗口从第一次计数开始。
	_ = s.backend.Add(k, int64(0), s.ttl(window))
	n, err := s.backend.IncrementInt64(k, delta)
	if err != nil {
		return 0, time.Time{}, err
	}
	_, resetAt, _ := s.backend.GetWithExpiration(k)
	return n, resetAt, nil
}

func (s *memoryStore) Namespace(prefix string) Store {
	return &memoryStore{
		backend:    s.backend,
		defaultTTL: s.defaultTTL,
		prefix:     joinPrefix(s.prefix, prefix),
	}
}

// Purge 遍历底层缓存，删除当前命名空间下的全部 key。
func (s *memoryStore) Purge(_ context.Context) int {
	removed := 0
	for k := range s.backend.Items() {
		if s.prefix == "" || strings.HasPrefix(k, s.prefix+"/") {
			s.backend.Delete(k)
			removed++
		}
	}
	return removed
}

func (s *memoryStore) key(key string) string {
	key = strings.TrimSpace(key)
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

func (s *memoryStore) ttl(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return s.defaultTTL
	}
	return ttl
}

func joinPrefix(base, next string) string {
	next = strings.Trim(next, "/ ")
	switch {
	case next == "":
		return base
	case base == "":
		return next
	}
	return base + "/" + next
}
