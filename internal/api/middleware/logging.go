// 文件路径: internal/api/middleware/logging.go
// 模块说明: 增强日志中间件，支持请求追踪 ID 和慢请求日志
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/creamcroissant/ordersync/internal/api/requestctx"
)

// LoggingConfig 日志中间件配置
type LoggingConfig struct {
	Logger        *slog.Logger
	SlowThreshold time.Duration // 慢请求阈值，超过此时间会记录为 WARN
	SkipPaths     []string      // 跳过日志的路径（如健康检查）
}

// StructuredLogger 结构化日志中间件
func StructuredLogger(config LoggingConfig) func(http.Handler) http.Handler {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.SlowThreshold == 0 {
		config.SlowThreshold = 500 * time.Millisecond
	}

	skipPathMap := make(map[string]bool)
	for _, p := range config.SkipPaths {
		skipPathMap[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipPathMap[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID == "" {
				requestID = "unknown"
			}

			// 包装 ResponseWriter 以捕获状态码
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Header().Set("X-Request-ID", requestID)

			// 调用方信息由下游的鉴权中间件写入，这里用指针把它带回来。
			var caller requestctx.CallerClaims
			next.ServeHTTP(ww, r.WithContext(requestctx.WithCallerSink(r.Context(), &caller)))

			duration := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			attrs := []slog.Attr{
				slog.String("request_id", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Duration("duration", duration),
				slog.String("remote_addr", r.RemoteAddr),
				slog.Int("bytes", ww.BytesWritten()),
			}
			if caller.Subject != "" {
				attrs = append(attrs, slog.String("caller", caller.Subject), slog.String("role", caller.Role))
			}

			level := slog.LevelInfo
			msg := "request completed"

			if status >= 500 {
				level = slog.LevelError
				msg = "request failed"
			} else if status >= 400 {
				level = slog.LevelWarn
				msg = "request error"
			} else if duration > config.SlowThreshold {
				level = slog.LevelWarn
				msg = "slow request"
				attrs = append(attrs, slog.Duration("slow_threshold", config.SlowThreshold))
			}

			config.Logger.LogAttrs(r.Context(), level, msg, attrs...)
		})
	}
}
