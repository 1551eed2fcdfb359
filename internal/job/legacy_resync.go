// 文件路径: internal/job/legacy_resync.go
// 模块说明: 这是 internal 模块里的 legacy_resync 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package job

import (
	"context"
	"log/slog"
)

// LegacyResyncName is the registered name of LegacyResyncJob.
const LegacyResyncName = "legacy.resync"

// Resyncer is satisfied by service.OrderStatusSyncService.
type Resyncer interface {
	ResyncLegacyOrders(ctx context.Context) (int, error)
}

// LegacyResyncJob 定期把同步状态重新写回旧订单列表，修补镜像写入失败留下的空缺。
type LegacyResyncJob struct {
	sync   Resyncer
	logger *slog.Logger
}

func NewLegacyResyncJob(sync Resyncer, logger *slog.Logger) *LegacyResyncJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &LegacyResyncJob{sync: sync, logger: logger}
}

func (j *LegacyResyncJob) Name() string { return LegacyResyncName }

func (j *LegacyResyncJob) Run(ctx context.Context) error {
	n, err := j.sync.ResyncLegacyOrders(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		j.logger.Info("legacy orders resynced", "records", n)
	}
	return nil
}
