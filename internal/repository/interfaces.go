// 文件路径: internal/repository/interfaces.go
// 模块说明: 这是 internal 模块里的 interfaces 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package repository

import "context"

// Store 暴露每个聚合根对应的仓储接口。
type Store interface {
	Servers() ServerRepository
	Configs() ConfigRepository
	PremiumUsers() PremiumUserRepository
	AdLogs() AdLogRepository
	AppSettings() AppSettingsRepository
	Settings() SettingRepository
}

// ServerRepository 管理节点记录。List 按插入顺序返回。
type ServerRepository interface {
	List(ctx context.Context, filter ServerFilter) ([]*Server, error)
	FindByID(ctx context.Context, id string) (*Server, error)
	Create(ctx context.Context, server *Server) error
	Update(ctx context.Context, server *Server) error
	Delete(ctx context.Context, id string) (bool, error)
	TouchPing(ctx context.Context, id string, at int64) error
}

// ConfigRepository 管理连接配置。
type ConfigRepository interface {
	List(ctx context.Context, filter ConfigFilter) ([]*Config, error)
	FindByID(ctx context.Context, id string) (*Config, error)
	Create(ctx context.Context, config *Config) error
	Update(ctx context.Context, config *Config) error
	Delete(ctx context.Context, id string) (bool, error)
	IncrementDownloads(ctx context.Context, id string) error
	Vote(ctx context.Context, id string, positive bool) error
}

// PremiumUserRepository 管理付费用户。
type PremiumUserRepository interface {
	List(ctx context.Context, filter PremiumUserFilter) ([]*PremiumUser, error)
	FindByID(ctx context.Context, id string) (*PremiumUser, error)
	FindByDeviceID(ctx context.Context, deviceID string) (*PremiumUser, error)
	Create(ctx context.Context, user *PremiumUser) error
	Update(ctx context.Context, user *PremiumUser) error
	Delete(ctx context.Context, id string) (bool, error)
	ListLapsed(ctx context.Context, nowUnix int64) ([]*PremiumUser, error)
}

// AdLogRepository 存储广告回调与用户广告状态。
type AdLogRepository interface {
	InsertCallback(ctx context.Context, cb *AdCallback) error
	ListCallbacks(ctx context.Context, filter AdCallbackFilter) ([]*AdCallback, error)
	CountCallbacks(ctx context.Context, sinceMillis int64) (int64, error)
	CountBy(ctx context.Context, column string) ([]AdCallbackCount, error)
	CountUniqueUsers(ctx context.Context) (int64, error)
	DeleteCallbacksBefore(ctx context.Context, beforeMillis int64) (int64, error)
	GetStatus(ctx context.Context, userID string) (*UserAdStatus, error)
	// BumpStatus folds one callback into the user's row in a single statement and returns the stored result.
	BumpStatus(ctx context.Context, userID string, bump StatusBump) (*UserAdStatus, error)
	ListStatuses(ctx context.Context) ([]*UserAdStatus, error)
}

// AppSettingsRepository 读写应用设置单行及其版本历史。
type AppSettingsRepository interface {
	Get(ctx context.Context) (*AppSettings, error)
	Save(ctx context.Context, settings *AppSettings) error
	AppendVersion(ctx context.Context, v *AppVersion) error
	ListVersions(ctx context.Context, limit int) ([]*AppVersion, error)
	// Seed 只在单行不存在时写入 settings，返回是否写入。
	Seed(ctx context.Context, settings *AppSettings) (bool, error)
	// Stamp 只改一个刷新日期列（servers_updated / configs_updated），不碰其它字段。
	// 单行还不存在时返回 ErrNotFound。
	Stamp(ctx context.Context, column, day string, updatedAt int64) error
}

// SettingRepository 处理系统配置的存取。
type SettingRepository interface {
	Get(ctx context.Context, key string) (*Setting, error)
	Upsert(ctx context.Context, setting *Setting) error
	// InsertIfAbsent 只在 key 不存在或值为空白时写入，返回是否写入成功。
	InsertIfAbsent(ctx context.Context, setting *Setting) (bool, error)
	List(ctx context.Context) ([]Setting, error)
}
