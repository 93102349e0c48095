// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

package authz

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/campusworks/portalgate/internal/auth"
	"github.com/campusworks/portalgate/internal/logging"
)

// Middleware enforces route-level policies from the casbin enforcer.
// It runs after the request guard, so a principal is always in context.
type Middleware struct {
	enforcer *Enforcer
}

// NewMiddleware creates a new route policy middleware.
func NewMiddleware(enforcer *Enforcer) *Middleware {
	return &Middleware{enforcer: enforcer}
}

// AuthorizeRequest derives the action from the HTTP method and
// enforces the route policy for the request path.
func (m *Middleware) AuthorizeRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := auth.PrincipalFromContext(r.Context())
		if principal == nil {
			writeDenial(w, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS", "no authentication context")
			return
		}

		action := methodToAction(r.Method)
		object := r.URL.Path

		allowed, err := m.enforcer.Enforce(principal.Role, object, action)
		if err != nil {
			logging.Error().Err(err).Str("path", object).Msg("Route policy enforcement error")
			writeDenial(w, http.StatusInternalServerError, "INTERNAL", "authorization error")
			return
		}

		RecordRoutePolicy(principal.Role, allowed)

		if !allowed {
			writeDenial(w, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS", "insufficient permissions")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// methodToAction maps HTTP methods to policy actions.
func methodToAction(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return "read"
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return "write"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// writeDenial writes the structured denial payload.
func writeDenial(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // nothing useful to do if the response write fails
	json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": message,
	})
}
