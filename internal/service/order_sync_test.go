package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/ordersync/internal/repository"
	"github.com/creamcroissant/ordersync/internal/repository/kvstore"
	"github.com/creamcroissant/ordersync/internal/repository/memory"
)

// spyKV counts calls and can fail reads or writes per key.
type spyKV struct {
	inner   repository.KeyValueStore
	gets    int
	sets    map[string]int
	failGet map[string]error
	failSet map[string]error
}

func newSpyKV() *spyKV {
	return &spyKV{
		inner:   memory.NewKV(nil),
		sets:    map[string]int{},
		failGet: map[string]error{},
		failSet: map[string]error{},
	}
}

func (s *spyKV) Get(ctx context.Context, key string) (string, bool, error) {
	s.gets++
	if err := s.failGet[key]; err != nil {
		return "", false, err
	}
	return s.inner.Get(ctx, key)
}

func (s *spyKV) Set(ctx context.Context, key, value string) error {
	s.sets[key]++
	if err := s.failSet[key]; err != nil {
		return err
	}
	return s.inner.Set(ctx, key, value)
}

type fixture struct {
	kv    *spyKV
	svc   OrderStatusSyncService
	clock *fakeClock
	logs  *bytes.Buffer
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newFixture(t *testing.T, opts ...OrderSyncOption) fixture {
	t.Helper()
	kv := newSpyKV()
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	logs := &bytes.Buffer{}
	locks := kvstore.NewKeyLocks()
	base := []OrderSyncOption{
		WithClock(clock.Now),
		WithLogger(slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))),
	}
	svc := NewOrderStatusSyncService(
		kvstore.NewSyncedStatusRepo(kv, "", locks),
		kvstore.NewLegacyOrderRepo(kv, "", locks),
		append(base, opts...)...,
	)
	return fixture{kv: kv, svc: svc, clock: clock, logs: logs}
}

func TestSetThenGetReturnsStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, key := range StatusKeys {
		require.NoError(t, f.svc.SetSyncedOrderStatus(ctx, "ORD-1", key))
		got, ok := f.svc.GetSyncedOrderStatus(ctx, "ORD-1")
		require.True(t, ok)
		assert.Equal(t, key, got.StatusKey)
		assert.Equal(t, "ORD-1", got.OrderID)
	}
}

func TestSetOverwritesPreviousStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.svc.SetSyncedOrderStatus(ctx, "ORD-1", repository.StatusDelivered))
	require.NoError(t, f.svc.SetSyncedOrderStatus(ctx, "ORD-1", repository.StatusPreparing))

	all := f.svc.GetSyncedOrderStatuses(ctx)
	require.Len(t, all, 1)
	assert.Equal(t, repository.StatusPreparing, all["ORD-1"].StatusKey)
}

func TestEmptyOrderIDSkipsStorage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, ok := f.svc.GetSyncedOrderStatus(ctx, "")
	assert.False(t, ok)
	assert.Zero(t, f.kv.gets)

	require.NoError(t, f.svc.SetSyncedOrderStatus(ctx, "", repository.StatusReady))
	assert.Zero(t, f.kv.gets)
	assert.Empty(t, f.kv.sets)
}

func TestCorruptStatusMapReadsAsEmpty(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.kv.inner.Set(ctx, kvstore.DefaultSyncedStatusKey, "not json"))

	all := f.svc.GetSyncedOrderStatuses(ctx)
	assert.NotNil(t, all)
	assert.Empty(t, all)
	assert.Contains(t, f.logs.String(), "treating as empty")

	_, ok := f.svc.GetLatestSyncedOrderStatus(ctx)
	assert.False(t, ok)
}

func TestReadFailureReadsAsEmpty(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.kv.failGet[kvstore.DefaultSyncedStatusKey] = errors.New("device storage unavailable")

	assert.Empty(t, f.svc.GetSyncedOrderStatuses(ctx))
	assert.Contains(t, f.logs.String(), "device storage unavailable")
}

func TestLatestSyncedOrderStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, ok := f.svc.GetLatestSyncedOrderStatus(ctx)
	assert.False(t, ok)

	require.NoError(t, f.svc.SetSyncedOrderStatus(ctx, "T3", repository.StatusReady))
	f.clock.Advance(time.Second)
	require.NoError(t, f.svc.SetSyncedOrderStatus(ctx, "T1", repository.StatusReady))
	f.clock.Advance(time.Second)
	require.NoError(t, f.svc.SetSyncedOrderStatus(ctx, "T2", repository.StatusReady))
	f.clock.Advance(time.Second)
	require.NoError(t, f.svc.SetSyncedOrderStatus(ctx, "T3", repository.StatusDelivered))

	latest, ok := f.svc.GetLatestSyncedOrderStatus(ctx)
	require.True(t, ok)
	assert.Equal(t, "T3", latest.OrderID)
	assert.Equal(t, repository.StatusDelivered, latest.StatusKey)
	assert.Equal(t, "2024-05-01T12:00:03.000Z", latest.UpdatedAt)
}

func TestLatestBreaksTiesByOrderID(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV(nil)
	require.NoError(t, kv.Set(ctx, kvstore.DefaultSyncedStatusKey,
		`{"A":{"orderId":"A","statusKey":"ready","updatedAt":"2024-01-01T00:00:00.000Z"},"B":{"orderId":"B","statusKey":"ready","updatedAt":"2024-01-01T00:00:00.000Z"}}`))
	svc := NewOrderStatusSyncService(kvstore.NewSyncedStatusRepo(kv, "", nil), nil)

	latest, ok := svc.GetLatestSyncedOrderStatus(ctx)
	require.True(t, ok)
	assert.Equal(t, "B", latest.OrderID)
}

func TestStampsStrictlyIncreaseUnderFrozenClock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.svc.SetSyncedOrderStatus(ctx, "A", repository.StatusReady))
	require.NoError(t, f.svc.SetSyncedOrderStatus(ctx, "B", repository.StatusReady))

	all := f.svc.GetSyncedOrderStatuses(ctx)
	assert.True(t, all["B"].UpdatedTime().After(all["A"].UpdatedTime()))
	latest, _ := f.svc.GetLatestSyncedOrderStatus(ctx)
	assert.Equal(t, "B", latest.OrderID)
}

func TestMirrorPatchesLegacyRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.kv.inner.Set(ctx, kvstore.DefaultLegacyOrdersKey, `[{"id":"A","status":"preparing"},{"id":"B","status":"preparing"}]`))

	require.NoError(t, f.svc.SetSyncedOrderStatus(ctx, "A", repository.StatusDelivered))

	orders, err := kvstore.NewLegacyOrderRepo(f.kv.inner, "", nil).List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "completed", orders[0].Status)
	assert.Equal(t, "delivered", orders[0].TrackingStatus)
	assert.Equal(t, "2024-05-01T12:00:00.000Z", orders[0].UpdatedAt)
	assert.Equal(t, "preparing", orders[1].Status)
	assert.Empty(t, orders[1].TrackingStatus)
	assert.JSONEq(t, `{"id":"B","status":"preparing"}`, string(orders[1].Raw))
}

func TestMirrorNoOpWithoutLegacyList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.svc.SetSyncedOrderStatus(ctx, "A", repository.StatusReady))

	got, ok := f.svc.GetSyncedOrderStatus(ctx, "A")
	require.True(t, ok)
	assert.Equal(t, repository.StatusReady, got.StatusKey)
	assert.Zero(t, f.kv.sets[kvstore.DefaultLegacyOrdersKey])
}

func TestMirrorFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	metrics := NewSyncMetrics(reg, "test")
	f := newFixture(t, WithMetrics(metrics))
	require.NoError(t, f.kv.inner.Set(ctx, kvstore.DefaultLegacyOrdersKey, `[{"id":"A","status":"preparing"}]`))
	f.kv.failSet[kvstore.DefaultLegacyOrdersKey] = errors.New("legacy store read-only")

	require.NoError(t, f.svc.SetSyncedOrderStatus(ctx, "A", repository.StatusOnTheWay))

	got, ok := f.svc.GetSyncedOrderStatus(ctx, "A")
	require.True(t, ok)
	assert.Equal(t, repository.StatusOnTheWay, got.StatusKey)
	assert.Contains(t, f.logs.String(), "legacy order mirror failed")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.mirrorFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.writes.WithLabelValues("onTheWay", "ok")))
}

func TestPrimaryWriteFailurePropagates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.kv.inner.Set(ctx, kvstore.DefaultLegacyOrdersKey, `[{"id":"A","status":"preparing"}]`))
	boom := errors.New("quota exceeded")
	f.kv.failSet[kvstore.DefaultSyncedStatusKey] = boom

	err := f.svc.SetSyncedOrderStatus(ctx, "A", repository.StatusReady)
	require.ErrorIs(t, err, boom)

	// The mirror never runs when the primary write fails.
	assert.Zero(t, f.kv.sets[kvstore.DefaultLegacyOrdersKey])
}

func TestPrimaryReadFailurePropagatesOnWrite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	boom := errors.New("read failed")
	f.kv.failGet[kvstore.DefaultSyncedStatusKey] = boom

	require.ErrorIs(t, f.svc.SetSyncedOrderStatus(ctx, "A", repository.StatusReady), boom)
	assert.Zero(t, f.kv.sets[kvstore.DefaultSyncedStatusKey])
}

func TestUnknownStatusKeyFallsBackToPreparing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.kv.inner.Set(ctx, kvstore.DefaultLegacyOrdersKey, `[{"id":"A","status":"ready"}]`))

	require.NoError(t, f.svc.SetSyncedOrderStatus(ctx, "A", repository.StatusKey("cancelled")))

	got, ok := f.svc.GetSyncedOrderStatus(ctx, "A")
	require.True(t, ok)
	assert.Equal(t, repository.StatusKey("cancelled"), got.StatusKey)

	orders, err := kvstore.NewLegacyOrderRepo(f.kv.inner, "", nil).List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "preparing", orders[0].Status)
	assert.Equal(t, "cancelled", orders[0].TrackingStatus)
}

func TestEndToEndScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.svc.SetSyncedOrderStatus(ctx, "ORD-1", repository.StatusPreparing))
	require.NoError(t, f.svc.SetSyncedOrderStatus(ctx, "ORD-1", repository.StatusReady))
	require.NoError(t, f.svc.SetSyncedOrderStatus(ctx, "ORD-2", repository.StatusOnTheWay))

	all := f.svc.GetSyncedOrderStatuses(ctx)
	require.Len(t, all, 2)
	assert.Equal(t, repository.StatusReady, all["ORD-1"].StatusKey)
	assert.Equal(t, repository.StatusOnTheWay, all["ORD-2"].StatusKey)

	latest, ok := f.svc.GetLatestSyncedOrderStatus(ctx)
	require.True(t, ok)
	assert.Equal(t, "ORD-2", latest.OrderID)
}

func TestResyncLegacyOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// Statuses written before the legacy list existed are not mirrored.
	require.NoError(t, f.svc.SetSyncedOrderStatus(ctx, "A", repository.StatusDelivered))
	require.NoError(t, f.svc.SetSyncedOrderStatus(ctx, "B", repository.StatusOnTheWay))
	require.NoError(t, f.kv.inner.Set(ctx, kvstore.DefaultLegacyOrdersKey, `[{"id":"A","status":"preparing"},{"orderId":"B","status":"preparing"},{"id":"C","status":"preparing"}]`))

	n, err := f.svc.ResyncLegacyOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	orders, err := kvstore.NewLegacyOrderRepo(f.kv.inner, "", nil).List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "completed", orders[0].Status)
	assert.Equal(t, "ready", orders[1].Status)
	assert.Equal(t, "onTheWay", orders[1].TrackingStatus)
	assert.Equal(t, "preparing", orders[2].Status)
}

func TestResyncWithoutLegacyRepository(t *testing.T) {
	svc := NewOrderStatusSyncService(kvstore.NewSyncedStatusRepo(memory.NewKV(nil), "", nil), nil)
	n, err := svc.ResyncLegacyOrders(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
