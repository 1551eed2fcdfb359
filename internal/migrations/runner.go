// 文件路径: internal/migrations/runner.go
// 模块说明: 这是 internal 模块里的 runner 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package migrations

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

var setupOnce sync.Once

func setup() {
	setupOnce.Do(func() {
		goose.SetBaseFS(SQLite)
		_ = goose.SetDialect("sqlite3")
	})
}

// Up migrates the SQLite schema to the latest version.
func Up(db *sql.DB) error {
	setup()
	if err := goose.Up(db, "sqlite"); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// Down rolls back a single migration.
func Down(db *sql.DB) error {
	setup()
	return goose.Down(db, "sqlite")
}

// Status prints migration status.
func Status(db *sql.DB) error {
	setup()
	return goose.Status(db, "sqlite")
}

// Version reports the current schema version.
func Version(db *sql.DB) (int64, error) {
	setup()
	return goose.GetDBVersion(db)
}
