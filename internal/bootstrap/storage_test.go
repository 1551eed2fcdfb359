package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/ordersync/internal/config"
	"github.com/creamcroissant/ordersync/internal/repository"
	"github.com/creamcroissant/ordersync/internal/support/retry"
)

func TestOpenStorageMemory(t *testing.T) {
	ctx := context.Background()
	st, err := OpenStorage(ctx, config.StorageConfig{Driver: config.DriverMemory}, nil)
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.KV.Set(ctx, "orders", "[]"))
	v, ok, err := st.KV.Get(ctx, "orders")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", v)
	require.NoError(t, st.Ping(ctx))
	assert.Nil(t, st.SQLite)
}

func TestOpenStorageSQLiteAndBackup(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st, err := OpenStorage(ctx, config.StorageConfig{
		Driver: config.DriverSQLite,
		SQLite: config.SQLiteConfig{Path: filepath.Join(dir, "nested", "kv.db")},
	}, nil)
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.KV.Set(ctx, "synced_order_statuses_v1", `{}`))
	require.NotNil(t, st.SQLite)

	now := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	dest, err := BackupSQLite(ctx, st.SQLite, filepath.Join(dir, "backups"), now)
	require.NoError(t, err)
	assert.Equal(t, "ordersync-20240501T083000Z.db", filepath.Base(dest))
	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	_, err = BackupSQLite(ctx, st.SQLite, filepath.Join(dir, "backups"), now)
	assert.ErrorContains(t, err, "already exists")
}

func TestOpenStorageUnknownDriverIsNotRetried(t *testing.T) {
	cfg := config.StorageConfig{Driver: "mongo", Retry: retry.Config{Enabled: true, MaxRetries: 5, InitialInterval: time.Hour}}
	_, err := OpenStorage(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "unknown storage driver")
}

func TestBackupRequiresSQLite(t *testing.T) {
	_, err := BackupSQLite(context.Background(), nil, t.TempDir(), time.Now())
	assert.Error(t, err)
}

func TestBuildInfrastructureMirrorsByDefault(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		Storage: config.StorageConfig{Driver: config.DriverMemory},
		Sync:    config.SyncConfig{StatusesKey: "statuses", LegacyKey: "legacy", MirrorLegacy: true},
		Metrics: config.MetricsConfig{Enabled: true, Namespace: "test"},
	}
	infra, err := BuildInfrastructure(ctx, cfg, nil, false)
	require.NoError(t, err)
	defer infra.Close()
	assert.Nil(t, infra.Token)

	require.NoError(t, infra.Legacy.Replace(ctx, []byte(`[{"id":"A","status":"preparing"}]`)))
	require.NoError(t, infra.Sync.SetSyncedOrderStatus(ctx, "A", repository.StatusDelivered))

	orders, err := infra.Legacy.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "completed", orders[0].Status)

	families, err := infra.Registry.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "test_sync_status_writes_total")
}

func TestBuildInfrastructureWithoutMirror(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		Storage: config.StorageConfig{Driver: config.DriverMemory},
		Sync:    config.SyncConfig{StatusesKey: "statuses", LegacyKey: "legacy"},
		Auth:    config.AuthConfig{SigningKey: "k", Issuer: "ordersync"},
	}
	infra, err := BuildInfrastructure(ctx, cfg, nil, true)
	require.NoError(t, err)
	defer infra.Close()
	require.NotNil(t, infra.Token)

	require.NoError(t, infra.Legacy.Replace(ctx, []byte(`[{"id":"A","status":"preparing"}]`)))
	require.NoError(t, infra.Sync.SetSyncedOrderStatus(ctx, "A", repository.StatusDelivered))

	orders, err := infra.Legacy.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "preparing", orders[0].Status)
}
