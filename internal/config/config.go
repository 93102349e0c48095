// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

// Package config loads and validates the Portalgate configuration from
// defaults, an optional YAML file, and environment variables, in that
// order of precedence (env highest).
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Session  SessionConfig  `koanf:"session"`
	Lockout  LockoutConfig  `koanf:"lockout"`
	Authz    AuthzConfig    `koanf:"authz"`
	Logging  LoggingConfig  `koanf:"logging"`
	Users    []UserConfig   `koanf:"users"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment" validate:"oneof=development production"`
}

// SecurityConfig holds credential and transport security settings.
type SecurityConfig struct {
	// JWTSecret signs access and refresh tokens. Required, min 32 chars.
	JWTSecret string `koanf:"jwt_secret"`

	// Issuer is the iss claim on minted tokens.
	Issuer string `koanf:"issuer"`

	// AccessTTL is the access token and session lifetime.
	AccessTTL time.Duration `koanf:"access_ttl"`

	// RefreshTTL is the refresh token and session lifetime.
	RefreshTTL time.Duration `koanf:"refresh_ttl"`

	// RateLimitReqs is the per-IP request budget per window.
	RateLimitReqs int `koanf:"rate_limit_reqs"`

	// RateLimitWindow is the rate limit window.
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	// RateLimitDisabled turns off rate limiting entirely.
	RateLimitDisabled bool `koanf:"rate_limit_disabled"`

	// LoginRateLimitReqs is the stricter per-IP budget on the login
	// endpoint.
	LoginRateLimitReqs int `koanf:"login_rate_limit_reqs"`

	// CORSOrigins lists allowed CORS origins.
	CORSOrigins []string `koanf:"cors_origins"`
}

// SessionConfig selects and tunes the session store.
type SessionConfig struct {
	// Store is the backend: memory or badger.
	Store string `koanf:"store" validate:"oneof=memory badger"`

	// Path is the Badger database directory (badger store only).
	Path string `koanf:"path"`

	// CleanupInterval is how often expired sessions are reclaimed.
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// LockoutConfig tunes login throttling.
type LockoutConfig struct {
	Enabled            bool          `koanf:"enabled"`
	MaxAttempts        int           `koanf:"max_attempts"`
	Duration           time.Duration `koanf:"duration"`
	MaxDuration        time.Duration `koanf:"max_duration"`
	ExponentialBackoff bool          `koanf:"exponential_backoff"`
}

// AuthzConfig tunes the route policy enforcer and the audit trail.
type AuthzConfig struct {
	// ModelPath optionally overrides the embedded Casbin model.
	ModelPath string `koanf:"model_path"`

	// PolicyPath optionally overrides the embedded route policy.
	PolicyPath string `koanf:"policy_path"`

	// AutoReload re-reads a file-based policy periodically.
	AutoReload     bool          `koanf:"auto_reload"`
	ReloadInterval time.Duration `koanf:"reload_interval"`

	// CacheEnabled caches route enforcement results.
	CacheEnabled bool          `koanf:"cache_enabled"`
	CacheTTL     time.Duration `koanf:"cache_ttl"`

	// Audit controls the decision audit trail.
	Audit AuditConfig `koanf:"audit"`
}

// AuditConfig controls decision audit logging.
type AuditConfig struct {
	Enabled    bool    `koanf:"enabled"`
	LogAllowed bool    `koanf:"log_allowed"`
	LogDenied  bool    `koanf:"log_denied"`
	SampleRate float64 `koanf:"sample_rate" validate:"min=0,max=1"`
	BufferSize int     `koanf:"buffer_size"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// UserConfig is one account in the configured user directory.
// Passwords are stored as bcrypt hashes, never plaintext.
type UserConfig struct {
	ID                string   `koanf:"id" validate:"required"`
	Username          string   `koanf:"username" validate:"required"`
	PasswordHash      string   `koanf:"password_hash" validate:"required"`
	Role              string   `koanf:"role" validate:"required,oneof=owner secretariat company_admin student"`
	RegionID          string   `koanf:"region_id"`
	AccessibleRegions []string `koanf:"accessible_regions"`
	EmailVerified     bool     `koanf:"email_verified"`
}

// Validate checks the configuration for consistency. Struct tags cover
// per-field constraints; cross-field rules live here.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("security.jwt_secret must be at least 32 characters")
	}
	if c.Security.AccessTTL <= 0 {
		return fmt.Errorf("security.access_ttl must be positive")
	}
	if c.Security.RefreshTTL <= c.Security.AccessTTL {
		return fmt.Errorf("security.refresh_ttl must exceed security.access_ttl")
	}
	if c.Session.Store == "badger" && c.Session.Path == "" {
		return fmt.Errorf("session.path is required for the badger session store")
	}

	seen := make(map[string]struct{}, len(c.Users))
	for _, u := range c.Users {
		if _, dup := seen[u.Username]; dup {
			return fmt.Errorf("duplicate username %q in users", u.Username)
		}
		seen[u.Username] = struct{}{}
	}

	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
