// 文件路径: internal/repository/sqlite/kv.go
// 模块说明: 这是 internal 模块里的 kv 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/creamcroissant/ordersync/internal/repository"
)

type kvRepo struct {
	db  *sql.DB
	now func() time.Time
}

func (r *kvRepo) Get(ctx context.Context, key string) (string, bool, error) {
	const query = `SELECT value FROM kv_store WHERE key = ?`
	var value string
	if err := r.db.QueryRowContext(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (r *kvRepo) Set(ctx context.Context, key, value string) error {
	const stmt = `INSERT INTO kv_store(key, value, updated_at) VALUES(?, ?, ?)
                  ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, stmt, key, value, r.now().Unix())
	return err
}

// Keys lists stored keys ordered by name.
func (r *kvRepo) Keys(ctx context.Context) ([]string, error) {
	const query = `SELECT key FROM kv_store ORDER BY key`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

var _ repository.KeyValueStore = (*kvRepo)(nil)
