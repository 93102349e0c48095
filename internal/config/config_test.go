// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testJWTSecret = "config-test-secret-32-characters!!"

// validConfig returns defaults patched to pass validation.
func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Security.JWTSecret = testJWTSecret
	cfg.Session.Store = "memory"
	cfg.Session.Path = ""
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"short jwt secret", func(c *Config) { c.Security.JWTSecret = "short" }, "jwt_secret"},
		{"refresh shorter than access", func(c *Config) {
			c.Security.AccessTTL = time.Hour
			c.Security.RefreshTTL = time.Minute
		}, "refresh_ttl"},
		{"badger without path", func(c *Config) {
			c.Session.Store = "badger"
			c.Session.Path = ""
		}, "session.path"},
		{"unknown store", func(c *Config) { c.Session.Store = "redis" }, "invalid configuration"},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "invalid configuration"},
		{"bad environment", func(c *Config) { c.Server.Environment = "staging" }, "invalid configuration"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "invalid configuration"},
		{"bad sample rate", func(c *Config) { c.Authz.Audit.SampleRate = 1.5 }, "invalid configuration"},
		{"user with invalid role", func(c *Config) {
			c.Users = []UserConfig{{ID: "u1", Username: "x", PasswordHash: "h", Role: "root"}}
		}, "invalid configuration"},
		{"duplicate usernames", func(c *Config) {
			c.Users = []UserConfig{
				{ID: "u1", Username: "x", PasswordHash: "h", Role: "student"},
				{ID: "u2", Username: "x", PasswordHash: "h", Role: "student"},
			}
		}, "duplicate username"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_DefaultsWithEnvSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", testJWTSecret)
	t.Setenv("SESSION_STORE", "memory")
	t.Setenv(ConfigPathEnvVar, "/nonexistent")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8484 {
		t.Errorf("Port = %d, want default 8484", cfg.Server.Port)
	}
	if cfg.Security.AccessTTL != 15*time.Minute {
		t.Errorf("AccessTTL = %v, want 15m", cfg.Security.AccessTTL)
	}
	if cfg.Session.Store != "memory" {
		t.Errorf("Session.Store = %q, want memory from env", cfg.Session.Store)
	}
	if cfg.IsProduction() {
		t.Error("IsProduction() = true for development default")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9000
security:
  jwt_secret: "` + testJWTSecret + `"
session:
  store: memory
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "9100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9100 {
		t.Errorf("Port = %d, want env override 9100", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want file value debug", cfg.Logging.Level)
	}
}

func TestLoad_UsersFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
security:
  jwt_secret: "` + testJWTSecret + `"
session:
  store: memory
users:
  - id: u1
    username: alice
    password_hash: "$2a$10$abcdefghijklmnopqrstuv"
    role: company_admin
    region_id: FUK
    accessible_regions: [TKY]
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Users) != 1 {
		t.Fatalf("len(Users) = %d, want 1", len(cfg.Users))
	}
	u := cfg.Users[0]
	if u.Username != "alice" || u.Role != "company_admin" || u.RegionID != "FUK" {
		t.Errorf("user = %+v, want alice/company_admin/FUK", u)
	}
	if len(u.AccessibleRegions) != 1 || u.AccessibleRegions[0] != "TKY" {
		t.Errorf("AccessibleRegions = %v, want [TKY]", u.AccessibleRegions)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"JWT_SECRET", "security.jwt_secret"},
		{"HTTP_PORT", "server.port"},
		{"SESSION_STORE", "session.store"},
		{"CASBIN_CACHE_TTL", "authz.cache_ttl"},
		{"AUDIT_ENABLED", "authz.audit.enabled"},
		{"LOG_LEVEL", "logging.level"},
		{"PATH", ""},
		{"RANDOM_VAR", ""},
	}

	for _, tt := range tests {
		if got := envTransformFunc(tt.key); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
