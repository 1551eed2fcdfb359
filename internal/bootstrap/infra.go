// 文件路径: internal/bootstrap/infra.go
// 模块说明: 这是 internal 模块里的 infra 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/creamcroissant/ordersync/internal/auth/token"
	"github.com/creamcroissant/ordersync/internal/cache"
	"github.com/creamcroissant/ordersync/internal/config"
	"github.com/creamcroissant/ordersync/internal/repository"
	"github.com/creamcroissant/ordersync/internal/repository/kvstore"
	"github.com/creamcroissant/ordersync/internal/security"
	"github.com/creamcroissant/ordersync/internal/service"
)

// Infrastructure bundles the storage backend, repositories and the sync service.
type Infrastructure struct {
	Storage  *Storage
	Statuses *kvstore.SyncedStatusRepo
	Legacy   *kvstore.LegacyOrderRepo
	Sync     service.OrderStatusSyncService
	Token    *token.Manager
	Registry *prometheus.Registry
	Metrics  *service.SyncMetrics
	// Limiter is nil unless http.write_rate_limit.limit is positive.
	Limiter *security.RateLimiter
}

// BuildInfrastructure opens storage and composes the service graph. The
// token manager is only built when auth is enabled or forceToken is set.
func BuildInfrastructure(ctx context.Context, cfg *config.Config, logger *slog.Logger, forceToken bool) (*Infrastructure, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required / 配置不能为空")
	}
	if logger == nil {
		logger = slog.Default()
	}

	storage, err := OpenStorage(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	var metrics *service.SyncMetrics
	if cfg.Metrics.Enabled {
		metrics = service.NewSyncMetrics(registry, cfg.Metrics.Namespace)
	}

	locks := kvstore.NewKeyLocks()
	statuses := kvstore.NewSyncedStatusRepo(storage.KV, cfg.Sync.StatusesKey, locks)
	legacy := kvstore.NewLegacyOrderRepo(storage.KV, cfg.Sync.LegacyKey, locks)

	var mirror repository.LegacyOrderRepository
	if cfg.Sync.MirrorLegacy {
		mirror = legacy
	}
	svc := service.NewOrderStatusSyncService(statuses, mirror,
		service.WithLogger(logger.With("component", "order_sync")),
		service.WithMetrics(metrics),
	)

	infra := &Infrastructure{
		Storage:  storage,
		Statuses: statuses,
		Legacy:   legacy,
		Sync:     svc,
		Registry: registry,
		Metrics:  metrics,
	}

	if rl := cfg.HTTP.WriteRateLimit; rl.Limit > 0 {
		limiter, err := security.NewRateLimiter(cache.NewStore(cache.Options{DefaultTTL: rl.Window}), rl.Limit, rl.Window)
		if err != nil {
			storage.Close()
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
		infra.Limiter = limiter
	}

	if cfg.Auth.Enabled || forceToken {
		manager, err := token.NewManager(token.Options{
			SigningKey: []byte(cfg.Auth.SigningKey),
			Issuer:     cfg.Auth.Issuer,
			Audience:   cfg.Auth.Audience,
			TTL:        cfg.Auth.TokenTTL,
			Leeway:     cfg.Auth.Leeway,
		})
		if err != nil {
			storage.Close()
			return nil, fmt.Errorf("token manager: %w", err)
		}
		infra.Token = manager
	}
	return infra, nil
}

// Close releases the storage backend.
func (i *Infrastructure) Close() error {
	if i == nil {
		return nil
	}
	return i.Storage.Close()
}
