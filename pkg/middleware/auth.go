package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/hsmarket/storefront/pkg/auth"
	"github.com/hsmarket/storefront/pkg/logger"
	"github.com/hsmarket/storefront/pkg/response"
)

// Authorizer validates an admin bearer token.
type Authorizer interface {
	Authorize(ctx context.Context, token string) (*auth.Claims, error)
}

type claimsKey struct{}

// ClaimsFromCtx returns the claims stored by AdminOnly.
func ClaimsFromCtx(c context.Context) (*auth.Claims, bool) {
	claims, ok := c.Value(claimsKey{}).(*auth.Claims)
	return claims, ok
}

// BearerToken extracts the token from the Authorization header, or from the
// token query parameter on websocket upgrades and event streams, where
// browsers cannot set headers.
func BearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") ||
		strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		return r.URL.Query().Get("token")
	}
	return ""
}

// AdminOnly rejects requests without a valid admin token.
func AdminOnly(a Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				response.Unauthorized(w)
				return
			}
			claims, err := a.Authorize(r.Context(), token)
			if err != nil {
				logger.WithCtx(r.Context()).Warn("admin token rejected", "error", err)
				response.Unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
		})
	}
}
