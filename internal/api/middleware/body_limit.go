// 文件路径: internal/api/middleware/body_limit.go
// 模块说明: 请求体大小限制，状态写入只需要很小的 JSON。
package middleware

import "net/http"

// DefaultMaxBodyBytes caps request bodies for the status API.
const DefaultMaxBodyBytes int64 = 64 * 1024

// BodyLimit 请求体大小限制中间件，maxBytes <= 0 时使用 DefaultMaxBodyBytes。
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
