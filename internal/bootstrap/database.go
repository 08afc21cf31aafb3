// 文件路径: internal/bootstrap/database.go
// 模块说明: 这是 internal 模块里的 database 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/creamcroissant/vpnadmin/internal/config"
	"github.com/creamcroissant/vpnadmin/internal/migrations"
)

// OpenDatabase opens the configured driver and returns the handle plus the driver name
// the repository and migration layers expect.
func OpenDatabase(cfg config.DBConfig) (*sql.DB, string, error) {
	switch cfg.Driver {
	case "", migrations.DriverSQLite:
		db, err := OpenSQLite(cfg.Path)
		return db, migrations.DriverSQLite, err
	case migrations.DriverPostgres:
		db, err := OpenPostgres(cfg.DSN, cfg.MaxConns)
		return db, migrations.DriverPostgres, err
	default:
		return nil, "", fmt.Errorf("unsupported database driver %q / 不支持的数据库驱动", cfg.Driver)
	}
}

// OpenSQLite ensures the parent directory exists, then opens a SQLite connection with sane pragmas.
func OpenSQLite(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("SQLite 路径不能为空 / SQLite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(30000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// 单写者：SQLite 同一时间只允许一个写连接，限制连接数可以避免 SQLITE_BUSY。
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout=30000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

// OpenPostgres opens a Postgres pool through pgx's database/sql adapter.
func OpenPostgres(dsn string, maxConns int) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("Postgres DSN 不能为空 / Postgres DSN is required")
	}
	connCfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	db := stdlib.OpenDB(*connCfg)
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(maxConns)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}
