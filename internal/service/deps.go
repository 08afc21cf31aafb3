package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/creamcroissant/vpnadmin/internal/cache"
	"github.com/creamcroissant/vpnadmin/internal/repository"
	"github.com/creamcroissant/vpnadmin/internal/security"
)

// refreshDateLayout 是 serversUpdated/configsUpdated 的日期格式。
const refreshDateLayout = "2006-01-02"

// Deps 汇总实体服务共用的依赖。Store 必填，其余为空时使用安全的默认值。
type Deps struct {
	Store    repository.Store
	Cache    cache.Store
	Audit    security.Recorder
	Logger   *slog.Logger
	Now      func() time.Time
	StatsTTL time.Duration
}

// core 是各个服务内嵌的公共部分。
type core struct {
	store  repository.Store
	audit  security.Recorder
	logger *slog.Logger
	now    func() time.Time
	stats  *statsCache
}

func newCore(d Deps, component string) core {
	if d.Store == nil {
		panic("service: Deps.Store is required")
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	logger = logger.With("component", component)
	return core{
		store:  d.Store,
		audit:  d.Audit,
		logger: logger,
		now:    now,
		stats:  newStatsCache(d.Cache, d.StatsTTL, logger),
	}
}

func (c core) record(ctx context.Context, kind, entityID string, metadata map[string]any) {
	if c.audit == nil {
		return
	}
	actor, ip := security.ActorFromContext(ctx)
	c.audit.Record(ctx, security.Event{
		Kind:     kind,
		ActorID:  actor,
		EntityID: entityID,
		IP:       ip,
		Metadata: metadata,
		Occurred: c.now().UTC(),
	})
}

// loadSettings 读取应用设置；尚未保存过时返回默认值。
func (c core) loadSettings(ctx context.Context) (*repository.AppSettings, error) {
	settings, err := c.store.AppSettings().Get(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		defaults := DefaultAppSettings()
		return &defaults, nil
	}
	if err != nil {
		return nil, err
	}
	return settings, nil
}

// 刷新日期戳所在的列。
const (
	stampServers = "servers_updated"
	stampConfigs = "configs_updated"
)

// stampRefresh 更新移动端用来判断是否需要刷新列表的日期戳。只改这一列，
// 单行不存在时先写入默认值。失败只记日志。
func (c core) stampRefresh(ctx context.Context, column string) {
	now := c.now().UTC()
	day := now.Format(refreshDateLayout)
	repo := c.store.AppSettings()
	err := repo.Stamp(ctx, column, day, now.Unix())
	if errors.Is(err, repository.ErrNotFound) {
		defaults := DefaultAppSettings()
		defaults.UpdatedAt = now.Unix()
		if _, err = repo.Seed(ctx, &defaults); err == nil {
			err = repo.Stamp(ctx, column, day, now.Unix())
		}
	}
	if err != nil {
		c.logger.WarnContext(ctx, "save refresh stamp failed", "column", column, "error", err)
	}
}

// mapRepoErr 把仓储层的 not found 翻译成服务层错误。
func mapRepoErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
