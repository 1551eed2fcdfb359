// Package memory provides a process-local KeyValueStore backed by the cache package.
package memory

import (
	"context"

	"github.com/creamcroissant/ordersync/internal/cache"
	"github.com/creamcroissant/ordersync/internal/repository"
)

var _ repository.KeyValueStore = (*KV)(nil)

// KV keeps values for the lifetime of the process.
type KV struct {
	store cache.Store
}

// NewKV wraps store; a nil store gets a fresh non-expiring cache.
func NewKV(store cache.Store) *KV {
	if store == nil {
		store = cache.NewStore(cache.Options{DefaultTTL: cache.NoExpiration, Prefix: "ordersync"})
	}
	return &KV{store: store.Namespace("kv")}
}

func (k *KV) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	v, ok := k.store.GetString(ctx, key)
	return v, ok, nil
}

func (k *KV) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return k.store.SetString(ctx, key, value, cache.NoExpiration)
}

// Keys lists stored keys, sorted.
func (k *KV) Keys(ctx context.Context) []string {
	return k.store.Keys(ctx)
}
