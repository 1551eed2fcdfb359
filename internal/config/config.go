package config

import (
	"log/slog"
	"time"

	"github.com/creamcroissant/ordersync/internal/support/logging"
	"github.com/creamcroissant/ordersync/internal/support/retry"
)

// Config 汇总应用的全部配置。
type Config struct {
	HTTP    HTTPConfig    `mapstructure:"http"`
	Log     LogConfig     `mapstructure:"log"`
	Storage StorageConfig `mapstructure:"storage"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Jobs    JobsConfig    `mapstructure:"jobs"`
}

// HTTPConfig 定义 HTTP 服务配置。
type HTTPConfig struct {
	Addr            string          `mapstructure:"addr"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout"`
	WriteRateLimit  RateLimitConfig `mapstructure:"write_rate_limit"`
}

// RateLimitConfig 限制每个调用方在窗口内的状态写入次数。Limit 为 0 表示不限流。
type RateLimitConfig struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

// LogConfig 定义日志配置。
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
	AddSource   bool   `mapstructure:"add_source"`
	Environment string `mapstructure:"environment"`
}

// StorageConfig 选择键值存储后端。
type StorageConfig struct {
	Driver         string        `mapstructure:"driver"`
	SQLite         SQLiteConfig  `mapstructure:"sqlite"`
	Redis          RedisConfig   `mapstructure:"redis"`
	ConnectRetries int           `mapstructure:"connect_retries"`
	Retry          retry.Config  `mapstructure:"retry"`
	BackupDir      string        `mapstructure:"backup_dir"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	URL    string `mapstructure:"url"`
	Prefix string `mapstructure:"prefix"`
}

// SyncConfig 定义同步状态与旧订单列表的存储键。
type SyncConfig struct {
	StatusesKey      string `mapstructure:"statuses_key"`
	LegacyKey        string `mapstructure:"legacy_key"`
	StrictStatusKeys bool   `mapstructure:"strict_status_keys"`
	MirrorLegacy     bool   `mapstructure:"mirror_legacy"`
}

// AuthConfig 定义认证配置。
type AuthConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	Issuer     string        `mapstructure:"issuer"`
	Audience   string        `mapstructure:"audience"`
	Leeway     time.Duration `mapstructure:"leeway"`
}

// MetricsConfig 定义 Prometheus 指标配置。
type MetricsConfig struct {
	Enabled   bool      `mapstructure:"enabled"`
	Namespace string    `mapstructure:"namespace"`
	Token     string    `mapstructure:"token"`
	Buckets   []float64 `mapstructure:"buckets"`
}

// JobsConfig 定义定时任务的 cron 表达式，空字符串表示关闭。
type JobsConfig struct {
	LegacyResync string        `mapstructure:"legacy_resync"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

func (c LogConfig) SlogLevel() slog.Level {
	return logging.ParseLevel(c.Level)
}
