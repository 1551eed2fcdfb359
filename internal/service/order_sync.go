package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/creamcroissant/ordersync/internal/repository"
)

// OrderStatusSyncService keeps the latest fulfilment status per order and
// mirrors every write into the legacy orders list on a best-effort basis.
type OrderStatusSyncService interface {
	// GetSyncedOrderStatuses never fails; unreadable data yields an empty map.
	GetSyncedOrderStatuses(ctx context.Context) map[string]repository.SyncedOrderStatus
	GetSyncedOrderStatus(ctx context.Context, orderID string) (repository.SyncedOrderStatus, bool)
	// SetSyncedOrderStatus is a no-op for an empty orderID. Only the primary
	// write can fail; legacy mirror failures are logged and dropped.
	SetSyncedOrderStatus(ctx context.Context, orderID string, key repository.StatusKey) error
	GetLatestSyncedOrderStatus(ctx context.Context) (repository.SyncedOrderStatus, bool)
	// ResyncLegacyOrders re-applies every synced status to the legacy list
	// and returns the number of records patched.
	ResyncLegacyOrders(ctx context.Context) (int, error)
}

// OrderSyncOption customises NewOrderStatusSyncService.
type OrderSyncOption func(*orderStatusSyncService)

// WithLogger sets the logger used for swallowed failures.
func WithLogger(logger *slog.Logger) OrderSyncOption {
	return func(s *orderStatusSyncService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) OrderSyncOption {
	return func(s *orderStatusSyncService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMetrics attaches Prometheus counters.
func WithMetrics(m *SyncMetrics) OrderSyncOption {
	return func(s *orderStatusSyncService) {
		s.metrics = m
	}
}

type orderStatusSyncService struct {
	statuses repository.SyncedStatusRepository
	legacy   repository.LegacyOrderRepository
	logger   *slog.Logger
	now      func() time.Time
	metrics  *SyncMetrics

	stampMu sync.Mutex
	last    time.Time
}

// NewOrderStatusSyncService composes the two repositories. legacy may be nil,
// in which case mirroring is skipped.
func NewOrderStatusSyncService(statuses repository.SyncedStatusRepository, legacy repository.LegacyOrderRepository, opts ...OrderSyncOption) OrderStatusSyncService {
	s := &orderStatusSyncService{
		statuses: statuses,
		legacy:   legacy,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *orderStatusSyncService) GetSyncedOrderStatuses(ctx context.Context) map[string]repository.SyncedOrderStatus {
	all, err := s.statuses.LoadAll(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrCorruptValue) {
			s.metrics.corrupt()
			s.logger.Warn("synced order statuses unreadable, treating as empty", "error", err)
		} else {
			s.logger.Error("load synced order statuses failed", "error", err)
		}
		return map[string]repository.SyncedOrderStatus{}
	}
	return all
}

func (s *orderStatusSyncService) GetSyncedOrderStatus(ctx context.Context, orderID string) (repository.SyncedOrderStatus, bool) {
	if orderID == "" {
		return repository.SyncedOrderStatus{}, false
	}
	status, ok := s.GetSyncedOrderStatuses(ctx)[orderID]
	return status, ok
}

func (s *orderStatusSyncService) SetSyncedOrderStatus(ctx context.Context, orderID string, key repository.StatusKey) error {
	if orderID == "" {
		return nil
	}
	entry := repository.SyncedOrderStatus{
		OrderID:   orderID,
		StatusKey: key,
		UpdatedAt: s.stamp(),
	}
	err := s.statuses.Put(ctx, entry)
	s.metrics.write(key, err)
	if err != nil {
		return err
	}

	s.mirrorLegacy(ctx, []repository.SyncedOrderStatus{entry})
	return nil
}

func (s *orderStatusSyncService) GetLatestSyncedOrderStatus(ctx context.Context) (repository.SyncedOrderStatus, bool) {
	var (
		latest     repository.SyncedOrderStatus
		latestTime time.Time
		found      bool
	)
	for _, status := range s.GetSyncedOrderStatuses(ctx) {
		t := status.UpdatedTime()
		if !found || t.After(latestTime) || (t.Equal(latestTime) && status.OrderID > latest.OrderID) {
			latest, latestTime, found = status, t, true
		}
	}
	return latest, found
}

func (s *orderStatusSyncService) ResyncLegacyOrders(ctx context.Context) (int, error) {
	if s.legacy == nil {
		return 0, nil
	}
	all, err := s.statuses.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	if len(all) == 0 {
		return 0, nil
	}
	patches := make([]repository.LegacyStatusPatch, 0, len(all))
	for _, status := range all {
		patches = append(patches, legacyPatch(status))
	}
	n, err := s.legacy.ApplyStatus(ctx, patches)
	s.metrics.mirror(n, err)
	return n, err
}

// mirrorLegacy is best effort: the synced map is authoritative and has
// already been written by the time this runs.
func (s *orderStatusSyncService) mirrorLegacy(ctx context.Context, entries []repository.SyncedOrderStatus) {
	if s.legacy == nil || len(entries) == 0 {
		return
	}
	patches := make([]repository.LegacyStatusPatch, 0, len(entries))
	for _, e := range entries {
		patches = append(patches, legacyPatch(e))
	}
	n, err := s.legacy.ApplyStatus(ctx, patches)
	s.metrics.mirror(n, err)
	if err != nil {
		s.logger.Warn("legacy order mirror failed", "order_id", entries[0].OrderID, "error", err)
		return
	}
	if n > 0 {
		s.logger.Debug("legacy order mirrored", "order_id", entries[0].OrderID, "records", n)
	}
}

// stamp returns a strictly increasing millisecond timestamp so that
// consecutive writes from this process never tie.
func (s *orderStatusSyncService) stamp() string {
	s.stampMu.Lock()
	defer s.stampMu.Unlock()
	now := s.now().UTC().Truncate(time.Millisecond)
	if !now.After(s.last) {
		now = s.last.Add(time.Millisecond)
	}
	s.last = now
	return repository.FormatTimestamp(now)
}

func legacyPatch(status repository.SyncedOrderStatus) repository.LegacyStatusPatch {
	return repository.LegacyStatusPatch{
		OrderID:        status.OrderID,
		Status:         NormalizeLegacyStatus(status.StatusKey),
		TrackingStatus: string(status.StatusKey),
		UpdatedAt:      status.UpdatedAt,
	}
}
