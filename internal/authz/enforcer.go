// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

package authz

import (
	"fmt"
	"os"
	"strings"
	"time"

	_ "embed"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"github.com/campusworks/portalgate/internal/rbac"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// EnforcerConfig holds configuration for the route policy enforcer.
type EnforcerConfig struct {
	// ModelPath is the path to a Casbin model file.
	// If empty, uses the embedded model.
	ModelPath string

	// PolicyPath is the path to a Casbin policy file.
	// If empty, uses the embedded policy.
	PolicyPath string

	// AutoReload enables automatic policy reload from PolicyPath.
	AutoReload bool

	// ReloadInterval is how often to check for policy changes.
	ReloadInterval time.Duration

	// CacheEnabled enables enforcement decision caching.
	CacheEnabled bool

	// CacheTTL is how long to cache route decisions.
	CacheTTL time.Duration
}

// DefaultEnforcerConfig returns default configuration.
func DefaultEnforcerConfig() *EnforcerConfig {
	return &EnforcerConfig{
		AutoReload:     true,
		ReloadInterval: 30 * time.Second,
		CacheEnabled:   true,
		CacheTTL:       time.Minute,
	}
}

// Enforcer evaluates coarse route-level policies: may this role touch
// this path with this method class at all. The fine-grained,
// resource-aware decisions stay in the engine; this layer only keeps
// wrong-role traffic away from handlers.
type Enforcer struct {
	config   *EnforcerConfig
	enforcer *casbin.SyncedEnforcer
	cache    *routeCache
}

// NewEnforcer creates a route policy enforcer. The role inheritance
// chain is generated from the rbac package ordering, not from the
// policy file, so the hierarchy has exactly one source of truth.
func NewEnforcer(config *EnforcerConfig) (*Enforcer, error) {
	if config == nil {
		config = DefaultEnforcerConfig()
	}

	var m model.Model
	var err error

	if config.ModelPath != "" && fileExists(config.ModelPath) {
		m, err = model.NewModelFromFile(config.ModelPath)
	} else {
		m, err = model.NewModelFromString(embeddedModel)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	var enforcer *casbin.SyncedEnforcer

	if config.PolicyPath != "" && fileExists(config.PolicyPath) {
		adapter := fileadapter.NewAdapter(config.PolicyPath)
		enforcer, err = casbin.NewSyncedEnforcer(m, adapter)
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
		if err == nil {
			err = loadEmbeddedPolicy(enforcer, embeddedPolicy)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	if err := syncRoleHierarchy(enforcer); err != nil {
		return nil, err
	}

	if config.AutoReload && config.PolicyPath != "" {
		enforcer.StartAutoLoadPolicy(config.ReloadInterval)
	}

	e := &Enforcer{
		config:   config,
		enforcer: enforcer,
	}

	if config.CacheEnabled {
		e.cache = newRouteCache(config.CacheTTL)
	}

	return e, nil
}

// syncRoleHierarchy installs grouping policies derived from the rbac
// ordering: each role inherits the permissions of the role directly
// below it.
func syncRoleHierarchy(enforcer *casbin.SyncedEnforcer) error {
	for i := 0; i < len(rbac.Roles)-1; i++ {
		higher, lower := rbac.Roles[i], rbac.Roles[i+1]
		if _, err := enforcer.AddGroupingPolicy(higher.String(), lower.String()); err != nil {
			return fmt.Errorf("failed to add role inheritance %s -> %s: %w", higher, lower, err)
		}
	}
	return nil
}

// loadEmbeddedPolicy parses and loads the embedded policy CSV.
// Only p rules are honored; g rules come from syncRoleHierarchy.
func loadEmbeddedPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 4 || strings.TrimSpace(parts[0]) != "p" {
			continue
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		if _, err := enforcer.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
			return fmt.Errorf("failed to add policy %v: %w", parts[1:], err)
		}
	}
	return nil
}

// Enforce checks if the role can perform the action on the route.
func (e *Enforcer) Enforce(role rbac.Role, object, action string) (bool, error) {
	subject := role.String()

	if e.cache != nil {
		if allowed, ok := e.cache.lookup(subject, object, action); ok {
			return allowed, nil
		}
	}

	allowed, err := e.enforcer.Enforce(subject, object, action)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}

	if e.cache != nil {
		e.cache.store(subject, object, action, allowed)
	}

	return allowed, nil
}

// GetPolicy returns all route policy rules.
func (e *Enforcer) GetPolicy() [][]string {
	//nolint:errcheck // GetPolicy only fails if enforcer is nil, which is a programming error
	policies, _ := e.enforcer.GetPolicy()
	return policies
}

// GetGroupingPolicy returns the generated role inheritance rules.
func (e *Enforcer) GetGroupingPolicy() [][]string {
	//nolint:errcheck // GetGroupingPolicy only fails if enforcer is nil, which is a programming error
	policies, _ := e.enforcer.GetGroupingPolicy()
	return policies
}

// LoadPolicy reloads the policy from storage and regenerates the role
// hierarchy. No-op when running on the embedded policy.
func (e *Enforcer) LoadPolicy() error {
	if e.config.PolicyPath == "" {
		return nil
	}
	if err := e.enforcer.LoadPolicy(); err != nil {
		return err
	}
	if err := syncRoleHierarchy(e.enforcer); err != nil {
		return err
	}
	if e.cache != nil {
		e.cache.invalidate()
	}
	return nil
}

// Close stops the enforcer and cleans up resources.
func (e *Enforcer) Close() {
	e.enforcer.StopAutoLoadPolicy()
	if e.cache != nil {
		e.cache.stop()
	}
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
