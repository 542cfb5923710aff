package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hsmarket/storefront/pkg/auth"
	"github.com/hsmarket/storefront/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRecoveryReturnsEnvelope(t *testing.T) {
	h := middleware.Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"status":500,"message":"Internal Server Error"}`, rec.Body.String())
}

func TestLimiterBlocksAfterMax(t *testing.T) {
	l := middleware.NewLimiter(2, time.Minute)
	h := l.Middleware(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "other clients have their own window")
}

func TestCORSPreflight(t *testing.T) {
	h := middleware.CORS(middleware.DefaultCORSOptions([]string{"https://hsmarket.ma"}))(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/api/orders", nil)
	req.Header.Set("Origin", "https://hsmarket.ma")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://hsmarket.ma", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set("Origin", "https://evil.test")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

type authorizerFunc func(ctx context.Context, token string) (*auth.Claims, error)

func (f authorizerFunc) Authorize(ctx context.Context, token string) (*auth.Claims, error) {
	return f(ctx, token)
}

func TestAdminOnly(t *testing.T) {
	a := authorizerFunc(func(_ context.Context, token string) (*auth.Claims, error) {
		if token == "good" {
			return &auth.Claims{Role: auth.RoleAdmin}, nil
		}
		return nil, errors.New("bad token")
	})

	var seen *auth.Claims
	h := middleware.AdminOnly(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = middleware.ClaimsFromCtx(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	serve := func(req *http.Request) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, serve(httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer bad")
	assert.Equal(t, http.StatusUnauthorized, serve(req))

	req = httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer good")
	assert.Equal(t, http.StatusOK, serve(req))
	require.NotNil(t, seen)
	assert.Equal(t, auth.RoleAdmin, seen.Role)

	// The query token is only honoured on websocket upgrades.
	assert.Equal(t, http.StatusUnauthorized, serve(httptest.NewRequest(http.MethodGet, "/api/admin/orders?token=good", nil)))

	req = httptest.NewRequest(http.MethodGet, "/api/admin/live?token=good", nil)
	req.Header.Set("Upgrade", "websocket")
	assert.Equal(t, http.StatusOK, serve(req))

	req = httptest.NewRequest(http.MethodGet, "/api/admin/orders/stream?token=good", nil)
	req.Header.Set("Accept", "text/event-stream")
	assert.Equal(t, http.StatusOK, serve(req))
}
