// 文件路径: internal/support/logging/logger.go
// 模块说明: 这是 internal 模块里的 logger 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options customize the slog logger construction.
type Options struct {
	Level     slog.Level
	Format    string
	AddSource bool
	// Output defaults to os.Stdout.
	Output io.Writer
}

// New returns a slog.Logger configured according to options (JSON by default).
func New(opts Options) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: opts.Level, AddSource: opts.AddSource}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "text", "console":
		handler = slog.NewTextHandler(out, handlerOpts)
	default:
		handler = slog.NewJSONHandler(out, handlerOpts)
	}

	return slog.New(handler).With("service", "ordersync")
}

// ParseLevel 把配置里的字符串转换成 slog.Level，未知值按 info 处理。
func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
