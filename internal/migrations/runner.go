// 文件路径: internal/migrations/runner.go
// 模块说明: 这是 internal 模块里的 runner 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package migrations

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// goose 的方言和 FS 是全局变量，这里用锁串行化。
var mu sync.Mutex

func setup(driver string) (string, error) {
	goose.SetBaseFS(Files)
	switch driver {
	case "", DriverSQLite:
		return "sqlite", goose.SetDialect("sqlite3")
	case DriverPostgres:
		return "postgres", goose.SetDialect("postgres")
	default:
		return "", fmt.Errorf("migrations: unsupported driver %q", driver)
	}
}

// Up migrates the schema to the latest version.
func Up(db *sql.DB, driver string) error {
	mu.Lock()
	defer mu.Unlock()
	dir, err := setup(driver)
	if err != nil {
		return err
	}
	return goose.Up(db, dir)
}

// Down rolls back a single migration.
func Down(db *sql.DB, driver string) error {
	mu.Lock()
	defer mu.Unlock()
	dir, err := setup(driver)
	if err != nil {
		return err
	}
	return goose.Down(db, dir)
}

// Status prints migration status.
func Status(db *sql.DB, driver string) error {
	mu.Lock()
	defer mu.Unlock()
	dir, err := setup(driver)
	if err != nil {
		return err
	}
	return goose.Status(db, dir)
}
