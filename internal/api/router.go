// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/campusworks/portalgate/internal/auth"
	"github.com/campusworks/portalgate/internal/authz"
	"github.com/campusworks/portalgate/internal/config"
	"github.com/campusworks/portalgate/internal/middleware"
	"github.com/campusworks/portalgate/internal/rbac"
)

// RouterDeps carries everything the HTTP surface is assembled from.
type RouterDeps struct {
	Guard            *auth.Guard
	AuthHandlers     *auth.Handlers
	ResourceHandlers *Handlers
	RouteAuthorizer  *authz.Middleware
	PolicyHandlers   *authz.Handlers
	Security         config.SecurityConfig
}

// NewRouter assembles the full route tree.
//
// Layering, outermost first: request id, real IP, recoverer, CORS,
// rate limit, metrics. Authentication and route policy enforcement sit
// on the protected subtrees, not globally, so /healthz and /metrics
// stay reachable for probes and scrapers.
func NewRouter(deps RouterDeps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	if len(deps.Security.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   deps.Security.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	if !deps.Security.RateLimitDisabled {
		window := deps.Security.RateLimitWindow
		if window <= 0 {
			window = time.Minute
		}
		limit := deps.Security.RateLimitReqs
		if limit <= 0 {
			limit = 100
		}
		r.Use(httprate.LimitByIP(limit, window))
	}

	r.Use(middleware.PrometheusMetrics)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			// Credential endpoints get a much tighter budget than the
			// rest of the API.
			login := chi.Chain()
			if !deps.Security.RateLimitDisabled && deps.Security.LoginRateLimitReqs > 0 {
				login = chi.Chain(httprate.LimitByIP(deps.Security.LoginRateLimitReqs, time.Minute))
			}
			r.With(login.Handler).Post("/login", deps.AuthHandlers.Login)
			r.With(login.Handler).Post("/refresh", deps.AuthHandlers.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(deps.Guard.Authenticate)
				r.Post("/logout", deps.AuthHandlers.Logout)
				r.Post("/logout-all", deps.AuthHandlers.LogoutAll)
				r.Get("/me", deps.AuthHandlers.Me)
			})
		})

		r.Route("/resources", func(r chi.Router) {
			r.Use(deps.Guard.Authenticate)
			r.Use(deps.RouteAuthorizer.AuthorizeRequest)

			r.Get("/", deps.ResourceHandlers.List)
			r.With(
				auth.RequireAtLeast(rbac.RoleCompanyAdmin),
				auth.RequireRegion(),
			).Post("/", deps.ResourceHandlers.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", deps.ResourceHandlers.Get)
				r.Put("/", deps.ResourceHandlers.Update)
				r.Delete("/", deps.ResourceHandlers.Delete)
				r.Post("/publish", deps.ResourceHandlers.Publish)
				r.Post("/close", deps.ResourceHandlers.Close)
				r.Post("/enroll", deps.ResourceHandlers.Enroll)
				r.Delete("/enroll", deps.ResourceHandlers.Withdraw)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(deps.Guard.Authenticate)
			r.Use(auth.Require(rbac.RoleOwner, rbac.RoleSecretariat))

			r.Get("/authz/policies", deps.PolicyHandlers.ListPolicies)
			r.Post("/authz/policies/reload", deps.PolicyHandlers.ReloadPolicies)
			r.Get("/authz/audit/stats", deps.PolicyHandlers.AuditStats)
		})
	})

	return r
}
