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

	_ "modernc.org/sqlite"

	"github.com/creamcroissant/ordersync/internal/repository/sqlite"
)

// OpenSQLite ensures the parent directory exists, then opens a SQLite connection in WAL mode.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("SQLite 路径不能为空 / SQLite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(30000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// kv_store 的读改写由进程内锁串行化，单连接可以避免 SQLITE_BUSY。
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

// BackupSQLite 把数据库快照写到 dir 下，文件名带 UTC 时间戳，返回快照路径。
func BackupSQLite(ctx context.Context, store *sqlite.Store, dir string, now time.Time) (string, error) {
	if store == nil {
		return "", fmt.Errorf("backup requires the sqlite driver / 只有 sqlite 驱动支持备份")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	dest := filepath.Join(dir, fmt.Sprintf("ordersync-%s.db", now.UTC().Format("20060102T150405Z")))
	if _, err := os.Stat(dest); err == nil {
		return "", fmt.Errorf("backup %s already exists / 备份文件已存在", dest)
	}
	if err := store.Backup(ctx, dest); err != nil {
		return "", fmt.Errorf("vacuum into %s: %w", dest, err)
	}
	return dest, nil
}
