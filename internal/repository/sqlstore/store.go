// 文件路径: internal/repository/sqlstore/store.go
// 模块说明: 这是 internal 模块里的 store 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package sqlstore

import (
	"database/sql"

	"github.com/creamcroissant/vpnadmin/internal/repository"
)

// Store wires SQL-backed repository implementations.
// The same queries run on SQLite and Postgres; placeholders are rebound per driver.
type Store struct {
	db           *sql.DB
	driver       string
	servers      repository.ServerRepository
	configs      repository.ConfigRepository
	premiumUsers repository.PremiumUserRepository
	adLogs       repository.AdLogRepository
	appSettings  repository.AppSettingsRepository
	settings     repository.SettingRepository
}

// NewStore constructs a repository store for the given driver ("sqlite" or "postgres").
func NewStore(db *sql.DB, driver string) *Store {
	c := conn{db: db, postgres: driver == "postgres"}
	return &Store{
		db:           db,
		driver:       driver,
		servers:      &serverRepo{c: c},
		configs:      &configRepo{c: c},
		premiumUsers: &premiumUserRepo{c: c},
		adLogs:       &adLogRepo{c: c},
		appSettings:  &appSettingsRepo{c: c},
		settings:     &settingRepo{c: c},
	}
}

// DB exposes the underlying handle for maintenance commands.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Driver reports which SQL dialect the store speaks.
func (s *Store) Driver() string {
	return s.driver
}

func (s *Store) Servers() repository.ServerRepository {
	return s.servers
}

func (s *Store) Configs() repository.ConfigRepository {
	return s.configs
}

func (s *Store) PremiumUsers() repository.PremiumUserRepository {
	return s.premiumUsers
}

func (s *Store) AdLogs() repository.AdLogRepository {
	return s.adLogs
}

func (s *Store) AppSettings() repository.AppSettingsRepository {
	return s.appSettings
}

func (s *Store) Settings() repository.SettingRepository {
	return s.settings
}

var _ repository.Store = (*Store)(nil)
