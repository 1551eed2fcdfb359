// 文件路径: internal/api/requestctx/caller.go
// 模块说明: 这是 internal 模块里的 caller 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package requestctx

import "context"

// CallerClaims stores the authenticated caller derived from the bearer token.
type CallerClaims struct {
	Subject   string
	Role      string
	SessionID string
}

type contextKey string

const (
	callerContextKey contextKey = "ordersync-caller"
	callerSinkKey    contextKey = "ordersync-caller-sink"
)

// WithCaller attaches caller data to the context for downstream handlers.
// An upstream sink registered with WithCallerSink receives a copy.
func WithCaller(ctx context.Context, claims CallerClaims) context.Context {
	if dst, ok := ctx.Value(callerSinkKey).(*CallerClaims); ok && dst != nil {
		*dst = claims
	}
	return context.WithValue(ctx, callerContextKey, claims)
}

// WithCallerSink lets outer middleware observe the caller resolved further down the chain.
func WithCallerSink(ctx context.Context, dst *CallerClaims) context.Context {
	return context.WithValue(ctx, callerSinkKey, dst)
}

// CallerFromContext fetches caller claims, returning zero value if missing.
func CallerFromContext(ctx context.Context) CallerClaims {
	if ctx == nil {
		return CallerClaims{}
	}
	claims, _ := ctx.Value(callerContextKey).(CallerClaims)
	return claims
}
