package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/ordersync/internal/api/requestctx"
	"github.com/creamcroissant/ordersync/internal/auth/token"
	"github.com/creamcroissant/ordersync/internal/cache"
	"github.com/creamcroissant/ordersync/internal/security"
)

func newManager(t *testing.T) *token.Manager {
	t.Helper()
	m, err := token.NewManager(token.Options{SigningKey: []byte("k"), Issuer: "ordersync", TTL: time.Hour})
	require.NoError(t, err)
	return m
}

func issue(t *testing.T, m *token.Manager, role string) string {
	t.Helper()
	signed, _, err := m.Issue(token.IssueInput{Subject: "caller-1", Role: role})
	require.NoError(t, err)
	return signed
}

func TestCallerGuard(t *testing.T) {
	m := newManager(t)
	var seen requestctx.CallerClaims
	h := CallerGuard(m, token.RoleSeller, token.RoleOperator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestctx.CallerFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"buyer forbidden", "Bearer " + issue(t, m, token.RoleBuyer), http.StatusForbidden},
		{"seller allowed", "Bearer " + issue(t, m, token.RoleSeller), http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
	assert.Equal(t, "caller-1", seen.Subject)
	assert.Equal(t, token.RoleSeller, seen.Role)
}

func TestCallerGuardWithoutParser(t *testing.T) {
	rec := httptest.NewRecorder()
	CallerGuard(nil)(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExtractBearer(t *testing.T) {
	assert.Equal(t, "abc", extractBearer("Bearer abc"))
	assert.Equal(t, "abc", extractBearer("bearer  abc "))
	assert.Equal(t, "abc", extractBearer("abc"))
	assert.Empty(t, extractBearer("  "))
}

func TestStructuredLoggerRecordsCaller(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	m := newManager(t)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID, StructuredLogger(LoggingConfig{Logger: logger, SkipPaths: []string{"/healthz"}}))
	r.With(CallerGuard(m)).Get("/x", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, m, token.RoleOperator))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "status=418")
	assert.Contains(t, out, "caller=caller-1")
	assert.Contains(t, out, "role=operator")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	buf.Reset()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Empty(t, buf.String())
}

func TestMetricsUseRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, MetricsConfig{Namespace: "test"})

	r := chi.NewRouter()
	r.Use(metrics.Middleware())
	r.Get("/orders/{orderID}", func(w http.ResponseWriter, _ *http.Request) {})

	for _, id := range []string{"A", "B", "C"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/"+id, nil))
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.requestsTotal.WithLabelValues("GET", "/orders/{orderID}", "200")))
}

func TestMetricsGuard(t *testing.T) {
	h := MetricsGuard("s3cret")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBodyLimit(t *testing.T) {
	h := BodyLimit(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
		}
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/", strings.NewReader("0123456789")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (security.RateResult, error) {
	return security.RateResult{}, errors.New("counter broken")
}

func (brokenLimiter) Limit() int { return 1 }

func TestWriteRateLimit(t *testing.T) {
	limiter, err := security.NewRateLimiter(cache.NewStore(cache.Options{}), 1, time.Minute)
	require.NoError(t, err)
	h := WriteRateLimit(limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(subject string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/order-statuses/A", nil)
		if subject != "" {
			req = req.WithContext(requestctx.WithCaller(req.Context(), requestctx.CallerClaims{Subject: subject}))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := send("seller-1")
	assert.Equal(t, http.StatusNoContent, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", first.Header().Get("X-RateLimit-Remaining"))

	blocked := send("seller-1")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusNoContent, send("seller-2").Code)
	assert.Equal(t, http.StatusNoContent, send("").Code)
}

func TestWriteRateLimitFailsOpen(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h := WriteRateLimit(brokenLimiter{}, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, buf.String(), "rate limiter unavailable")
}
