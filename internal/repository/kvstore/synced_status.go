package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/creamcroissant/ordersync/internal/repository"
)

// DefaultSyncedStatusKey is the storage key of the synced-status map.
const DefaultSyncedStatusKey = "synced_order_statuses_v1"

var _ repository.SyncedStatusRepository = (*SyncedStatusRepo)(nil)

// SyncedStatusRepo keeps the whole orderId → SyncedOrderStatus map as one
// JSON object.
type SyncedStatusRepo struct {
	kv    repository.KeyValueStore
	key   string
	locks *KeyLocks
}

// NewSyncedStatusRepo builds the repository; empty key falls back to
// DefaultSyncedStatusKey and nil locks to the process-wide table.
func NewSyncedStatusRepo(kv repository.KeyValueStore, key string, locks *KeyLocks) *SyncedStatusRepo {
	if key == "" {
		key = DefaultSyncedStatusKey
	}
	return &SyncedStatusRepo{kv: kv, key: key, locks: locksOrShared(locks)}
}

// Key returns the storage key in use.
func (r *SyncedStatusRepo) Key() string {
	return r.key
}

func (r *SyncedStatusRepo) LoadAll(ctx context.Context) (map[string]repository.SyncedOrderStatus, error) {
	raw, found, err := r.kv.Get(ctx, r.key)
	if err != nil {
		return map[string]repository.SyncedOrderStatus{}, fmt.Errorf("load %s: %w", r.key, err)
	}
	if !found {
		return map[string]repository.SyncedOrderStatus{}, nil
	}
	return decodeStatusMap(r.key, raw)
}

func (r *SyncedStatusRepo) Put(ctx context.Context, status repository.SyncedOrderStatus) error {
	unlock := r.locks.Lock(r.key)
	defer unlock()

	all, err := r.LoadAll(ctx)
	if err != nil && !errors.Is(err, repository.ErrCorruptValue) {
		return err
	}
	all[status.OrderID] = status

	data, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("encode %s: %w", r.key, err)
	}
	if err := r.kv.Set(ctx, r.key, string(data)); err != nil {
		return fmt.Errorf("save %s: %w", r.key, err)
	}
	return nil
}

// decodeStatusMap accepts only a JSON object at the top level. Entries that
// are not objects themselves are dropped; a missing orderId is taken from
// the map key.
func decodeStatusMap(key, raw string) (map[string]repository.SyncedOrderStatus, error) {
	out := map[string]repository.SyncedOrderStatus{}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return out, fmt.Errorf("%w: %s: %v", repository.ErrCorruptValue, key, err)
	}
	for id, entry := range entries {
		var s repository.SyncedOrderStatus
		if err := json.Unmarshal(entry, &s); err != nil {
			continue
		}
		if s.OrderID == "" {
			s.OrderID = id
		}
		out[id] = s
	}
	return out, nil
}
