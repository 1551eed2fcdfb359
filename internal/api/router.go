// 文件路径: internal/api/router.go
// 模块说明: 这是 internal 模块里的 router 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/creamcroissant/ordersync/internal/api/handler"
	"github.com/creamcroissant/ordersync/internal/api/middleware"
	"github.com/creamcroissant/ordersync/internal/auth/token"
	"github.com/creamcroissant/ordersync/internal/config"
	"github.com/creamcroissant/ordersync/internal/repository"
	"github.com/creamcroissant/ordersync/internal/service"
)

// Services 是路由需要的依赖集合。
type Services struct {
	Sync    service.OrderStatusSyncService
	Legacy  repository.LegacyOrderRepository
	Health  handler.Pinger
	Driver  string
	Token   middleware.TokenParser
	Metrics *prometheus.Registry
	// Limiter throttles PUT requests; nil disables throttling.
	Limiter middleware.Limiter
}

// Options 控制路由的可选行为。
type Options struct {
	AuthEnabled      bool
	StrictStatusKeys bool
	Metrics          config.MetricsConfig
}

// NewRouter wires the status API, health check and metrics endpoint.
func NewRouter(logger *slog.Logger, services Services, opts Options) http.Handler {
	if services.Sync == nil {
		panic("router requires OrderStatusSyncService")
	}
	if services.Legacy == nil {
		panic("router requires LegacyOrderRepository")
	}
	if opts.AuthEnabled && services.Token == nil {
		panic("router requires a token parser when auth is enabled")
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(
		chiMiddleware.RequestID,
		chiMiddleware.RealIP,
	)

	metricsEnabled := opts.Metrics.Enabled && services.Metrics != nil
	if metricsEnabled {
		httpMetrics := middleware.NewMetrics(services.Metrics, middleware.MetricsConfig{
			Namespace: opts.Metrics.Namespace,
			Buckets:   opts.Metrics.Buckets,
		})
		r.Use(httpMetrics.Middleware())
	}

	r.Use(
		middleware.BodyLimit(middleware.DefaultMaxBodyBytes),
		middleware.StructuredLogger(middleware.LoggingConfig{
			Logger:        logger,
			SlowThreshold: 500 * time.Millisecond,
			SkipPaths:     []string{"/healthz", "/metrics"},
		}),
		chiMiddleware.Recoverer,
	)

	r.Get("/healthz", handler.Health(services.Health, services.Driver))

	if metricsEnabled {
		metricsHandler := promhttp.HandlerFor(services.Metrics, promhttp.HandlerOpts{})
		if opts.Metrics.Token != "" {
			r.With(middleware.MetricsGuard(opts.Metrics.Token)).Handle("/metrics", metricsHandler)
		} else {
			r.Handle("/metrics", metricsHandler)
		}
	}

	statusHandler := handler.NewOrderStatusHandler(services.Sync, opts.StrictStatusKeys, logger)
	legacyHandler := handler.NewLegacyOrderHandler(services.Legacy, logger)

	guard := func(roles ...string) func(http.Handler) http.Handler {
		if !opts.AuthEnabled {
			return func(next http.Handler) http.Handler { return next }
		}
		return middleware.CallerGuard(services.Token, roles...)
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/order-statuses", func(statuses chi.Router) {
			statuses.Use(guard())
			statuses.Get("/", statusHandler.List)
			statuses.Get("/latest", statusHandler.Latest)
			statuses.Get("/{orderID}", statusHandler.Get)
			statuses.With(
				guard(token.RoleSeller, token.RoleOperator),
				middleware.WriteRateLimit(services.Limiter, logger),
			).Put("/{orderID}", statusHandler.Set)
		})
		api.With(guard(token.RoleSeller, token.RoleOperator)).Get("/legacy-orders", legacyHandler.List)
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		logger.Warn("unmapped route hit", "method", req.Method, "path", req.URL.Path)
		http.NotFound(w, req)
	})

	return r
}
