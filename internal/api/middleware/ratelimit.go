package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/creamcroissant/ordersync/internal/api/requestctx"
	"github.com/creamcroissant/ordersync/internal/security"
)

// Limiter is satisfied by *security.RateLimiter.
type Limiter interface {
	Allow(ctx context.Context, key string) (security.RateResult, error)
	Limit() int
}

// WriteRateLimit throttles requests per authenticated caller, falling back to
// the remote address when no caller is attached. Limiter failures let the
// request through.
func WriteRateLimit(limiter Limiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ip:" + r.RemoteAddr
			if caller := requestctx.CallerFromContext(r.Context()); caller.Subject != "" {
				key = "caller:" + caller.Subject
			}
			res, err := limiter.Allow(r.Context(), key)
			if err != nil {
				if logger != nil {
					logger.Warn("rate limiter unavailable", "key", key, "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			if !res.Allowed {
				retry := int(time.Until(res.ResetAt).Round(time.Second).Seconds())
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				writeError(w, http.StatusTooManyRequests, "too many status updates")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
