// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/campusworks/portalgate/internal/logging"
	"github.com/campusworks/portalgate/internal/rbac"
)

type contextKey string

// principalContextKey is the context key under which the guard stores
// the resolved principal.
const principalContextKey contextKey = "principal"

// AccessTokenCookie is the cookie the guard falls back to when no
// Authorization header is present. Browser clients use the cookie;
// API clients use the header.
const AccessTokenCookie = "portalgate_access"

// ContextWithPrincipal returns a new context carrying the principal.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext retrieves the principal stored by the guard.
// Returns nil if the request did not pass through the guard.
func PrincipalFromContext(ctx context.Context) *Principal {
	if p, ok := ctx.Value(principalContextKey).(*Principal); ok {
		return p
	}
	return nil
}

// Guard is the request authentication middleware. It extracts the
// bearer credential, resolves it to a Principal, and stores the
// principal in the request context. Requests without a valid
// credential never reach the protected handler.
type Guard struct {
	resolver *Resolver
}

// NewGuard creates a request guard on the given resolver.
func NewGuard(resolver *Resolver) *Guard {
	return &Guard{resolver: resolver}
}

// extractCredential pulls the bearer token from the Authorization
// header, falling back to the access token cookie.
func extractCredential(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header != "" {
		const prefix = "Bearer "
		if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
			return header[len(prefix):]
		}
		return ""
	}

	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// Authenticate wraps a handler with credential resolution. Missing
// credentials map to 401 NO_TOKEN; invalid or malformed ones to 401
// TOKEN_VERIFICATION_FAILED. The response does not distinguish forged
// from expired credentials.
func (g *Guard) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential := extractCredential(r)
		if credential == "" {
			writeAuthError(w, http.StatusUnauthorized, CodeNoToken, "authentication required")
			return
		}

		p, err := g.resolver.Resolve(r.Context(), credential)
		if err != nil {
			logging.Ctx(r.Context()).Debug().
				Err(err).
				Str("path", r.URL.Path).
				Msg("Credential resolution failed")
			writeAuthError(w, http.StatusUnauthorized, CodeTokenVerificationFailed, "invalid or expired credentials")
			return
		}

		ctx := ContextWithPrincipal(r.Context(), p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Require returns middleware that rejects principals whose role is not
// in the allowed set. Must run after Authenticate.
func Require(roles ...rbac.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if p == nil {
				writeAuthError(w, http.StatusUnauthorized, CodeNoToken, "authentication required")
				return
			}
			if !rbac.HasRole(p.Role, roles) {
				writeAuthError(w, http.StatusForbidden, CodeInsufficientPermissions, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAtLeast returns middleware that rejects principals below the
// given privilege threshold. Must run after Authenticate.
func RequireAtLeast(threshold rbac.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if p == nil {
				writeAuthError(w, http.StatusUnauthorized, CodeNoToken, "authentication required")
				return
			}
			if !rbac.AtLeast(p.Role, threshold) {
				writeAuthError(w, http.StatusForbidden, CodeInsufficientPermissions, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRegion returns middleware that rejects non-admin principals
// without a home region. Admin roles operate portal-wide and are
// exempt. Must run after Authenticate.
func RequireRegion() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if p == nil {
				writeAuthError(w, http.StatusUnauthorized, CodeNoToken, "authentication required")
				return
			}
			if !p.IsAdmin() && !p.HasRegion() {
				writeAuthError(w, http.StatusForbidden, CodeRegionRequired, "a home region is required for this operation")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeAuthError writes the structured denial payload.
func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": message,
	}); err != nil {
		logging.Error().Err(err).Msg("Error encoding auth error response")
	}
}
