package job

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/ordersync/internal/repository"
	"github.com/creamcroissant/ordersync/internal/repository/kvstore"
	"github.com/creamcroissant/ordersync/internal/repository/memory"
	"github.com/creamcroissant/ordersync/internal/service"
)

type countingJob struct {
	name  string
	calls atomic.Int32
	err   error
}

func (c *countingJob) Name() string { return c.name }

func (c *countingJob) Run(ctx context.Context) error {
	c.calls.Add(1)
	return c.err
}

func TestSchedulerRegisterValidation(t *testing.T) {
	s := NewScheduler(nil, 0)

	_, err := s.Register("", &countingJob{name: "a"})
	require.Error(t, err)
	_, err = s.Register("@every 1m", nil)
	require.Error(t, err)
	_, err = s.Register("not a spec", &countingJob{name: "a"})
	require.Error(t, err)

	_, err = s.Register("@every 1m", &countingJob{name: "a"})
	require.NoError(t, err)
	_, err = s.Register("@every 2m", &countingJob{name: "a"})
	require.ErrorContains(t, err, "already registered")

	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0].Name)
	assert.Equal(t, "@every 1m", entries[0].Spec)
}

func TestSchedulerRunNow(t *testing.T) {
	s := NewScheduler(nil, time.Second)
	job := &countingJob{name: "a", err: errors.New("boom")}
	_, err := s.Register("@every 1h", job)
	require.NoError(t, err)

	require.EqualError(t, s.RunNow(context.Background(), "a"), "boom")
	assert.Equal(t, int32(1), job.calls.Load())
	require.Error(t, s.RunNow(context.Background(), "missing"))
}

func TestSchedulerFiresJobs(t *testing.T) {
	s := NewScheduler(nil, time.Second)
	job := &countingJob{name: "tick"}
	_, err := s.Register("@every 1s", job)
	require.NoError(t, err)

	s.Start()
	assert.Eventually(t, func() bool { return job.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	<-s.Stop().Done()
}

func TestLegacyResyncJob(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV(nil)
	locks := kvstore.NewKeyLocks()
	statuses := kvstore.NewSyncedStatusRepo(kv, "", locks)
	legacy := kvstore.NewLegacyOrderRepo(kv, "", locks)
	svc := service.NewOrderStatusSyncService(statuses, legacy)

	require.NoError(t, svc.SetSyncedOrderStatus(ctx, "A", repository.StatusReady))
	require.NoError(t, legacy.Replace(ctx, []byte(`[{"id":"A","status":"preparing"}]`)))

	job := NewLegacyResyncJob(svc, nil)
	assert.Equal(t, LegacyResyncName, job.Name())
	require.NoError(t, job.Run(ctx))

	orders, err := legacy.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ready", orders[0].Status)
}
