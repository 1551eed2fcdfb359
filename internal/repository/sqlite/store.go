// 文件路径: internal/repository/sqlite/store.go
// 模块说明: 这是 internal 模块里的 store 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package sqlite

import (
	"context"
	"database/sql"
	"time"
)

// Store wires the SQLite-backed key-value table.
type Store struct {
	db *sql.DB
	kv *kvRepo
}

// NewStore constructs a SQLite-backed store. The kv_store table must exist
// (see migrations.Up).
func NewStore(db *sql.DB) *Store {
	return &Store{
		db: db,
		kv: &kvRepo{db: db, now: time.Now},
	}
}

// DB exposes the underlying handle for maintenance commands such as backup.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	return s.kv.Get(ctx, key)
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.kv.Set(ctx, key, value)
}

func (s *Store) Keys(ctx context.Context) ([]string, error) {
	return s.kv.Keys(ctx)
}

// Ping verifies the connection is usable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Backup writes a consistent snapshot of the database to dest with VACUUM INTO.
// dest must not exist yet.
func (s *Store) Backup(ctx context.Context, dest string) error {
	_, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, dest)
	return err
}
