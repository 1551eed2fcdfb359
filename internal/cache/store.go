// 文件路径: internal/cache/store.go
// 模块说明: 这是 internal 模块里的 store 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package cache

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// NoExpiration keeps an item until it is deleted or overwritten.
const NoExpiration = gocache.NoExpiration

// Store 定义进程内缓存接口，支持命名空间隔离。
type Store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetString(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (any, bool)
	GetString(ctx context.Context, key string) (string, bool)
	Delete(ctx context.Context, key string)
	// Increment adds delta to an int64 counter, creating it with ttl when absent.
	Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
	// TTL reports how long key has left. Zero means the key never expires.
	TTL(ctx context.Context, key string) (time.Duration, bool)
	Keys(ctx context.Context) []string
	Namespace(prefix string) Store
}

// Options 配置内存缓存行为。DefaultTTL 为 NoExpiration 时条目永不过期。
type Options struct {
	DefaultTTL      time.Duration
	CleanupInterval time.Duration
	Prefix          string
}

// NewStore 创建基于 go-cache 的缓存实现，并支持命名空间。
func NewStore(opts Options) Store {
	defaultTTL := opts.DefaultTTL
	if defaultTTL == 0 {
		defaultTTL = 5 * time.Minute
	}
	cleanup := opts.CleanupInterval
	if cleanup <= 0 {
		cleanup = time.Minute
	}
	if defaultTTL == NoExpiration {
		// go-cache skips the janitor for non-positive intervals.
		cleanup = 0
	}
	backend := gocache.New(defaultTTL, cleanup)

	return &goCacheStore{
		backend:    backend,
		mu:         &sync.Mutex{},
		defaultTTL: defaultTTL,
		prefix:     normalizePrefix(opts.Prefix),
	}
}

type goCacheStore struct {
	backend    *gocache.Cache
	mu         *sync.Mutex // 计数器的创建与自增共用一把锁，命名空间之间共享
	defaultTTL time.Duration
	prefix     string
}

func (s *goCacheStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	s.backend.Set(s.prefixed(key), value, s.normalizeTTL(ttl))
	return nil
}

func (s *goCacheStore) SetString(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.Set(ctx, key, value, ttl)
}

func (s *goCacheStore) Get(_ context.Context, key string) (any, bool) {
	return s.backend.Get(s.prefixed(key))
}

func (s *goCacheStore) GetString(ctx context.Context, key string) (string, bool) {
	raw, ok := s.Get(ctx, key)
	if !ok {
		return "", false
	}
	switch v := raw.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	}
	return "", false
}

func (s *goCacheStore) Delete(_ context.Context, key string) {
	s.backend.Delete(s.prefixed(key))
}

func (s *goCacheStore) Increment(_ context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	full := s.prefixed(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.backend.Get(full); !ok {
		s.backend.Set(full, delta, s.normalizeTTL(ttl))
		return delta, nil
	}
	return s.backend.IncrementInt64(full, delta)
}

func (s *goCacheStore) TTL(_ context.Context, key string) (time.Duration, bool) {
	_, exp, ok := s.backend.GetWithExpiration(s.prefixed(key))
	if !ok {
		return 0, false
	}
	if exp.IsZero() {
		return 0, true
	}
	return time.Until(exp), true
}

// Keys lists the unprefixed keys of this namespace in sorted order.
func (s *goCacheStore) Keys(_ context.Context) []string {
	items := s.backend.Items()
	keys := make([]string, 0, len(items))
	for full := range items {
		if s.prefix == "" {
			keys = append(keys, full)
			continue
		}
		if rest, ok := strings.CutPrefix(full, s.prefix+":"); ok {
			keys = append(keys, rest)
		}
	}
	sort.Strings(keys)
	return keys
}

func (s *goCacheStore) Namespace(prefix string) Store {
	return &goCacheStore{
		backend:    s.backend,
		mu:         s.mu,
		defaultTTL: s.defaultTTL,
		prefix:     joinPrefixes(s.prefix, prefix),
	}
}

func (s *goCacheStore) prefixed(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return s.prefix
	}
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

func (s *goCacheStore) normalizeTTL(ttl time.Duration) time.Duration {
	if ttl == 0 || (ttl < 0 && ttl != NoExpiration) {
		return s.defaultTTL
	}
	return ttl
}

func normalizePrefix(prefix string) string {
	return strings.Trim(prefix, ": ")
}

func joinPrefixes(parts ...string) string {
	var normalized []string
	for _, part := range parts {
		trimmed := normalizePrefix(part)
		if trimmed != "" {
			normalized = append(normalized, trimmed)
		}
	}
	return strings.Join(normalized, ":")
}
