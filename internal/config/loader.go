package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Drivers accepted by storage.driver.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// LoadOptions 调整配置文件的查找方式，主要给命令行和测试用。
type LoadOptions struct {
	// File forces a specific config file instead of searching for config.yaml.
	File string
	// SearchPaths replaces the default "." and "/etc/ordersync/".
	SearchPaths []string
	// DotEnvDirs replaces the default ".env" lookup directories.
	DotEnvDirs []string
}

func Load() (*Config, error) {
	return LoadWith(LoadOptions{})
}

func LoadWith(opts LoadOptions) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		paths := opts.SearchPaths
		if len(paths) == 0 {
			paths = []string{".", "/etc/ordersync/"}
		}
		for _, p := range paths {
			v.AddConfigPath(p)
		}
	}

	v.SetEnvPrefix("ORDERSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("storage.redis.url", "ORDERSYNC_STORAGE_REDIS_URL", "REDIS_URL"); err != nil {
		return nil, fmt.Errorf("bind env storage.redis.url: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || opts.File != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	dirs := opts.DotEnvDirs
	if dirs == nil {
		dirs = []string{".", "..", "../.."}
	}
	if err := loadDotEnv(v, dirs); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查互相依赖的配置项。
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite:
		if strings.TrimSpace(c.Storage.SQLite.Path) == "" {
			return errors.New("storage.sqlite.path is required / sqlite 路径不能为空")
		}
	case DriverMemory:
	case DriverRedis:
		if strings.TrimSpace(c.Storage.Redis.URL) == "" {
			return errors.New("storage.redis.url is required / redis 地址不能为空")
		}
	default:
		return fmt.Errorf("unknown storage driver %q / 未知存储驱动", c.Storage.Driver)
	}
	if c.Auth.Enabled && (c.Auth.SigningKey == "" || c.Auth.SigningKey == "change-me") {
		return errors.New("auth.signing_key must be set when auth is enabled / 启用认证时必须设置签名密钥")
	}
	if c.HTTP.WriteRateLimit.Limit < 0 {
		return errors.New("http.write_rate_limit.limit must not be negative / 限流次数不能为负数")
	}
	if c.Sync.StatusesKey == c.Sync.LegacyKey {
		return errors.New("sync.statuses_key and sync.legacy_key must differ / 两个存储键不能相同")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", "0.0.0.0:8080")
	v.SetDefault("http.shutdown_timeout", "15s")
	v.SetDefault("http.write_rate_limit.limit", 0)
	v.SetDefault("http.write_rate_limit.window", "1m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.environment", "production")

	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.sqlite.path", "data/ordersync.db")
	v.SetDefault("storage.redis.prefix", "ordersync")
	v.SetDefault("storage.connect_retries", 3)
	v.SetDefault("storage.retry.enabled", true)
	v.SetDefault("storage.retry.initial_interval", "500ms")
	v.SetDefault("storage.retry.max_interval", "5s")
	v.SetDefault("storage.retry.multiplier", 2)
	v.SetDefault("storage.backup_dir", "data/backups")
	v.SetDefault("storage.timeout", "5s")

	v.SetDefault("sync.statuses_key", "synced_order_statuses_v1")
	v.SetDefault("sync.legacy_key", "orders")
	v.SetDefault("sync.strict_status_keys", false)
	v.SetDefault("sync.mirror_legacy", true)

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.signing_key", "change-me")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.issuer", "ordersync")
	v.SetDefault("auth.audience", "ordersync-client")
	v.SetDefault("auth.leeway", "30s")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "ordersync")

	v.SetDefault("jobs.legacy_resync", "@every 5m")
	v.SetDefault("jobs.timeout", "1m")
}

func loadDotEnv(v *viper.Viper, dirs []string) error {
	for _, path := range dirs {
		file := filepath.Clean(filepath.Join(path, ".env"))
		if _, err := os.Stat(file); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("stat .env: %w", err)
		}

		// 单独的 viper 实例读取 .env，避免和主配置的类型混在一起。
		envViper := viper.New()
		envViper.SetConfigFile(file)
		envViper.SetConfigType("env")
		if err := envViper.ReadInConfig(); err != nil {
			return fmt.Errorf("read .env: %w", err)
		}
		bindLegacyEnv(v, envViper)
	}
	return nil
}

// bindLegacyEnv maps flat .env keys onto the hierarchical config. Real
// ORDERSYNC_* variables still win because AutomaticEnv is consulted on Get.
func bindLegacyEnv(target *viper.Viper, source *viper.Viper) {
	mappings := map[string]string{
		"HTTP_ADDR":        "http.addr",
		"SHUTDOWN_TIMEOUT": "http.shutdown_timeout",
		"LOG_LEVEL":        "log.level",
		"LOG_FORMAT":       "log.format",
		"LOG_ADD_SOURCE":   "log.add_source",
		"APP_ENV":          "log.environment",
		"DB_PATH":          "storage.sqlite.path",
		"STORAGE_DRIVER":   "storage.driver",
		"REDIS_URL":        "storage.redis.url",
		"REDIS_PREFIX":     "storage.redis.prefix",
		"AUTH_SIGNING_KEY": "auth.signing_key",
		"APP_KEY":          "auth.signing_key",
		"AUTH_TOKEN_TTL":   "auth.token_ttl",
		"METRICS_TOKEN":    "metrics.token",
	}

	for oldKey, newKey := range mappings {
		if val := source.GetString(oldKey); val != "" {
			target.Set(newKey, val)
		}
	}
}
