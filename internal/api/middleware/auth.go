// 文件路径: internal/api/middleware/auth.go
// 模块说明: 这是 internal 模块里的 auth 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/creamcroissant/ordersync/internal/api/requestctx"
	"github.com/creamcroissant/ordersync/internal/auth/token"
)

// TokenParser is satisfied by *token.Manager.
type TokenParser interface {
	Parse(tokenString string) (*token.Claims, error)
}

// CallerGuard authenticates the bearer token and, when roles is non-empty,
// requires the caller's role to be one of them.
func CallerGuard(parser TokenParser, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if parser == nil {
				writeUnauthorized(w, "auth unavailable")
				return
			}
			raw := extractBearer(r.Header.Get("Authorization"))
			if raw == "" {
				writeUnauthorized(w, "missing authorization header")
				return
			}
			claims, err := parser.Parse(raw)
			if err != nil {
				if errors.Is(err, token.ErrExpiredToken) {
					writeUnauthorized(w, "token expired")
					return
				}
				writeUnauthorized(w, "invalid token")
				return
			}
			if len(roles) > 0 && !slices.Contains(roles, claims.Role) {
				writeForbidden(w, "role "+claims.Role+" may not access this resource")
				return
			}
			ctx := requestctx.WithCaller(r.Context(), requestctx.CallerClaims{
				Subject:   claims.Subject,
				Role:      claims.Role,
				SessionID: claims.SessionID,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearer(header string) string {
	trimmed := strings.TrimSpace(header)
	if trimmed == "" {
		return ""
	}
	parts := strings.SplitN(trimmed, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return trimmed
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, message)
}

func writeForbidden(w http.ResponseWriter, message string) {
	writeError(w, http.StatusForbidden, message)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
