// 文件路径: internal/bootstrap/storage.go
// 模块说明: 这是 internal 模块里的 storage 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/creamcroissant/ordersync/internal/cache"
	"github.com/creamcroissant/ordersync/internal/config"
	"github.com/creamcroissant/ordersync/internal/migrations"
	"github.com/creamcroissant/ordersync/internal/repository"
	"github.com/creamcroissant/ordersync/internal/repository/memory"
	"github.com/creamcroissant/ordersync/internal/repository/redis"
	"github.com/creamcroissant/ordersync/internal/repository/sqlite"
	"github.com/creamcroissant/ordersync/internal/support/retry"
)

// Storage 持有选中的键值存储后端以及关闭它所需的资源。
type Storage struct {
	Driver string
	KV     repository.KeyValueStore
	// SQLite is set only for the sqlite driver.
	SQLite *sqlite.Store

	ping  func(ctx context.Context) error
	close func() error
}

// OpenStorage 按 storage.driver 打开后端；sqlite 会先执行迁移。
// Connecting is retried with exponential backoff.
func OpenStorage(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	retryCfg := cfg.Retry
	if cfg.ConnectRetries > 0 {
		retryCfg.MaxRetries = cfg.ConnectRetries
	}
	onRetry := func(attempt int, wait time.Duration, err error) {
		logger.Warn("storage connect failed, retrying",
			"driver", cfg.Driver, "attempt", attempt, "wait", wait, "error", err)
	}

	var st *Storage
	err := retry.Do(ctx, retryCfg, func(ctx context.Context) error {
		var err error
		st, err = openStorage(ctx, cfg)
		return err
	}, onRetry)
	if err != nil {
		return nil, err
	}
	logger.Info("storage ready", "driver", st.Driver)
	return st, nil
}

func openStorage(ctx context.Context, cfg config.StorageConfig) (*Storage, error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		db, err := OpenSQLite(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		if err := migrations.Up(db); err != nil {
			db.Close()
			return nil, retry.Permanent(err)
		}
		store := sqlite.NewStore(db)
		return &Storage{
			Driver: config.DriverSQLite,
			KV:     store,
			SQLite: store,
			ping:   store.Ping,
			close:  store.Close,
		}, nil
	case config.DriverMemory:
		kv := memory.NewKV(cache.NewStore(cache.Options{Prefix: "ordersync", DefaultTTL: cache.NoExpiration}))
		return &Storage{
			Driver: config.DriverMemory,
			KV:     kv,
			ping:   func(context.Context) error { return nil },
			close:  func() error { return nil },
		}, nil
	case config.DriverRedis:
		client, err := redis.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, err
		}
		kv := redis.NewKV(client, cfg.Redis.Prefix)
		return &Storage{
			Driver: config.DriverRedis,
			KV:     kv,
			ping:   func(ctx context.Context) error { return client.Ping(ctx).Err() },
			close:  kv.Close,
		}, nil
	default:
		return nil, retry.Permanent(fmt.Errorf("unknown storage driver %q / 未知存储驱动", cfg.Driver))
	}
}

// Ping 检查后端是否可用。
func (s *Storage) Ping(ctx context.Context) error {
	if s == nil || s.ping == nil {
		return errors.New("storage not initialized / 存储未初始化")
	}
	return s.ping(ctx)
}

// Close 释放后端连接，可重复调用。
func (s *Storage) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	closeFn := s.close
	s.close = nil
	return closeFn()
}
