// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where the config file is searched, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/portalgate/config.yaml",
	"/etc/portalgate/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the built-in defaults. These are applied
// first, then overridden by the config file and environment.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8484,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Security: SecurityConfig{
			Issuer:             "portalgate",
			AccessTTL:          15 * time.Minute,
			RefreshTTL:         14 * 24 * time.Hour,
			RateLimitReqs:      100,
			RateLimitWindow:    time.Minute,
			LoginRateLimitReqs: 10,
			CORSOrigins:        []string{"*"},
		},
		Session: SessionConfig{
			Store:           "badger",
			Path:            "/data/sessions",
			CleanupInterval: 5 * time.Minute,
		},
		Lockout: LockoutConfig{
			Enabled:            true,
			MaxAttempts:        5,
			Duration:           15 * time.Minute,
			MaxDuration:        24 * time.Hour,
			ExponentialBackoff: true,
		},
		Authz: AuthzConfig{
			AutoReload:     false,
			ReloadInterval: 30 * time.Second,
			CacheEnabled:   true,
			CacheTTL:       5 * time.Minute,
			Audit: AuditConfig{
				Enabled:    true,
				LogAllowed: false,
				LogDenied:  true,
				SampleRate: 1.0,
				BufferSize: 1000,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from layered sources:
//
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables (highest precedence)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are paths whose env values arrive as comma-separated
// strings but unmarshal into slices.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields splits comma-separated env strings into slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to config paths.
// Unmapped variables are dropped so stray environment does not leak
// into the configuration.
func envTransformFunc(key string) string {
	envMappings := map[string]string{
		// Server
		"http_host":    "server.host",
		"http_port":    "server.port",
		"http_timeout": "server.timeout",
		"environment":  "server.environment",

		// Security
		"jwt_secret":            "security.jwt_secret",
		"jwt_issuer":            "security.issuer",
		"access_ttl":            "security.access_ttl",
		"refresh_ttl":           "security.refresh_ttl",
		"rate_limit_requests":   "security.rate_limit_reqs",
		"rate_limit_window":     "security.rate_limit_window",
		"disable_rate_limit":    "security.rate_limit_disabled",
		"login_rate_limit_reqs": "security.login_rate_limit_reqs",
		"cors_origins":          "security.cors_origins",

		// Session store
		"session_store":            "session.store",
		"session_store_path":       "session.path",
		"session_cleanup_interval": "session.cleanup_interval",

		// Lockout
		"lockout_enabled":      "lockout.enabled",
		"lockout_max_attempts": "lockout.max_attempts",
		"lockout_duration":     "lockout.duration",
		"lockout_max_duration": "lockout.max_duration",
		"lockout_backoff":      "lockout.exponential_backoff",

		// Authorization
		"casbin_model_path":      "authz.model_path",
		"casbin_policy_path":     "authz.policy_path",
		"casbin_auto_reload":     "authz.auto_reload",
		"casbin_reload_interval": "authz.reload_interval",
		"casbin_cache_enabled":   "authz.cache_enabled",
		"casbin_cache_ttl":       "authz.cache_ttl",
		"audit_enabled":          "authz.audit.enabled",
		"audit_log_allowed":      "authz.audit.log_allowed",
		"audit_log_denied":       "authz.audit.log_denied",
		"audit_sample_rate":      "authz.audit.sample_rate",
		"audit_buffer_size":      "authz.audit.buffer_size",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
