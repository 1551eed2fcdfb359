// Package redis stores key-value blobs in Redis under a configurable prefix.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/creamcroissant/ordersync/internal/repository"
)

var _ repository.KeyValueStore = (*KV)(nil)

// KV implements repository.KeyValueStore on top of plain GET/SET.
type KV struct {
	client goredis.UniversalClient
	prefix string
}

// Connect parses url, applies pool settings and pings the server.
func Connect(ctx context.Context, url string) (*goredis.Client, error) {
	opt, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opt.MaxRetries = 3
	opt.DialTimeout = 5 * time.Second

	client := goredis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewKV wraps client; keys are stored as "<prefix>:<key>".
func NewKV(client goredis.UniversalClient, prefix string) *KV {
	return &KV{client: client, prefix: strings.Trim(prefix, ": ")}
}

func (k *KV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := k.client.Get(ctx, k.key(key)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return v, true, nil
}

func (k *KV) Set(ctx context.Context, key, value string) error {
	return k.client.Set(ctx, k.key(key), value, 0).Err()
}

// Close releases the client.
func (k *KV) Close() error {
	return k.client.Close()
}

func (k *KV) key(key string) string {
	if k.prefix == "" {
		return key
	}
	return k.prefix + ":" + key
}
