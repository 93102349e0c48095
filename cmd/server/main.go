// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

// Package main is the entry point for the Portalgate server.
//
// Portalgate is the authentication and authorization service for a
// multi-tenant training portal: it resolves credentials to principals,
// enforces role and region based visibility over portal resources, and
// serves the resource and enrollment API.
//
// The server initializes components in the following order:
//
//  1. Configuration: defaults, optional YAML file, environment (Koanf v2)
//  2. Session store: in-memory or BadgerDB-backed
//  3. User directory: accounts from configuration
//  4. Auth: JWT manager, resolver, request guard, login lockout
//  5. Authorization: casbin route enforcer, decision engine, audit trail
//  6. HTTP server and background janitors under a suture supervisor tree
//
// Shutdown is graceful on SIGINT and SIGTERM: the listener drains
// in-flight requests, then the supervisor stops the janitors and the
// audit trail is flushed.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/campusworks/portalgate/internal/api"
	"github.com/campusworks/portalgate/internal/auth"
	"github.com/campusworks/portalgate/internal/authz"
	"github.com/campusworks/portalgate/internal/config"
	"github.com/campusworks/portalgate/internal/logging"
	"github.com/campusworks/portalgate/internal/rbac"
	"github.com/campusworks/portalgate/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("session_store", cfg.Session.Store).
		Int("users", len(cfg.Users)).
		Msg("Starting Portalgate")

	backingSessions, err := buildSessionStore(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize session store")
	}
	sessions := authz.InstrumentSessions(backingSessions)
	defer func() {
		if err := sessions.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing session store")
		}
	}()

	users, err := buildUserStore(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load user directory")
	}

	jwtManager, err := auth.NewJWTManager(
		cfg.Security.JWTSecret,
		cfg.Security.Issuer,
		cfg.Security.AccessTTL,
		cfg.Security.RefreshTTL,
	)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}

	guard := auth.NewGuard(auth.NewResolver(jwtManager, sessions))

	var lockout *auth.LockoutManager
	lockoutStore := auth.NewMemoryLockoutStore()
	if cfg.Lockout.Enabled {
		lockout = auth.NewLockoutManager(lockoutStore, &auth.LockoutConfig{
			Enabled:                  true,
			MaxAttempts:              cfg.Lockout.MaxAttempts,
			LockoutDuration:          cfg.Lockout.Duration,
			MaxLockoutDuration:       cfg.Lockout.MaxDuration,
			EnableExponentialBackoff: cfg.Lockout.ExponentialBackoff,
		})
		logging.Info().
			Int("max_attempts", cfg.Lockout.MaxAttempts).
			Dur("duration", cfg.Lockout.Duration).
			Msg("Login lockout enabled")
	} else {
		logging.Warn().Msg("Login lockout disabled; brute-force attempts are not throttled")
	}

	enforcer, err := authz.NewEnforcer(&authz.EnforcerConfig{
		ModelPath:      cfg.Authz.ModelPath,
		PolicyPath:     cfg.Authz.PolicyPath,
		AutoReload:     cfg.Authz.AutoReload,
		ReloadInterval: cfg.Authz.ReloadInterval,
		CacheEnabled:   cfg.Authz.CacheEnabled,
		CacheTTL:       cfg.Authz.CacheTTL,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize route policy enforcer")
	}
	defer enforcer.Close()

	audit := authz.NewAuditLogger(&authz.AuditLoggerConfig{
		Enabled:    cfg.Authz.Audit.Enabled,
		LogAllowed: cfg.Authz.Audit.LogAllowed,
		LogDenied:  cfg.Authz.Audit.LogDenied,
		SampleRate: cfg.Authz.Audit.SampleRate,
		BufferSize: cfg.Authz.Audit.BufferSize,
	})
	authzSvc := authz.NewService(audit)
	defer authzSvc.Close()

	repo := api.NewMemoryRepository()

	router := api.NewRouter(api.RouterDeps{
		Guard:            guard,
		AuthHandlers:     auth.NewHandlers(jwtManager, sessions, users, lockout),
		ResourceHandlers: api.NewHandlers(repo, authzSvc),
		RouteAuthorizer:  authz.NewMiddleware(enforcer),
		PolicyHandlers:   authz.NewHandlers(enforcer, audit),
		Security:         cfg.Security,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(supervisor.DefaultTreeConfig())
	tree.AddAPIService(supervisor.NewHTTPService(server, supervisor.DefaultTreeConfig().ShutdownTimeout))
	tree.AddMaintenanceService(supervisor.NewJanitorService(
		"session-janitor",
		cfg.Session.CleanupInterval,
		func(ctx context.Context) (int, error) {
			return sessions.CleanupExpired(ctx)
		},
	))
	tree.AddMaintenanceService(supervisor.NewJanitorService(
		"lockout-janitor",
		cfg.Session.CleanupInterval,
		func(ctx context.Context) (int, error) {
			return lockoutStore.CleanupExpired(ctx)
		},
	))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", addr).Msg("Portalgate listening")

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree terminated")
		os.Exit(1)
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service missed shutdown deadline")
		}
	}

	logging.Info().Msg("Portalgate stopped")
}

// buildSessionStore selects the configured session backend.
func buildSessionStore(cfg *config.Config) (auth.SessionStore, error) {
	switch cfg.Session.Store {
	case "badger":
		return auth.NewBadgerSessionStore(cfg.Session.Path, logging.Logger())
	case "memory":
		logging.Warn().Msg("In-memory session store; sessions will not survive restarts")
		return auth.NewMemorySessionStore(), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}
}

// buildUserStore loads the user directory from configuration.
func buildUserStore(cfg *config.Config) (auth.UserStore, error) {
	users := make([]*auth.User, 0, len(cfg.Users))
	for _, uc := range cfg.Users {
		u := &auth.User{
			ID:                uc.ID,
			Username:          uc.Username,
			PasswordHash:      uc.PasswordHash,
			Role:              rbac.Role(uc.Role),
			AccessibleRegions: uc.AccessibleRegions,
			EmailVerified:     uc.EmailVerified,
		}
		if uc.RegionID != "" {
			region := uc.RegionID
			u.RegionID = &region
		}
		users = append(users, u)
	}
	return auth.NewMemoryUserStore(users)
}
