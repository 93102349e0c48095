// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

package authz

import (
	"testing"

	"github.com/campusworks/portalgate/internal/rbac"
)

// setupEnforcer creates an enforcer on the embedded policy and
// registers cleanup.
func setupEnforcer(t *testing.T) *Enforcer {
	t.Helper()
	enforcer, err := NewEnforcer(nil)
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	t.Cleanup(func() { enforcer.Close() })
	return enforcer
}

// assertEnforce checks that enforcement returns the expected result.
func assertEnforce(t *testing.T, enforcer *Enforcer, role rbac.Role, object, action string, want bool) {
	t.Helper()
	got, err := enforcer.Enforce(role, object, action)
	if err != nil {
		t.Errorf("Enforce(%s, %q, %q) error = %v", role, object, action, err)
		return
	}
	if got != want {
		t.Errorf("Enforce(%s, %q, %q) = %v, want %v", role, object, action, got, want)
	}
}

func TestEnforcer_EmbeddedPolicy(t *testing.T) {
	enforcer := setupEnforcer(t)

	tests := []struct {
		name   string
		role   rbac.Role
		object string
		action string
		want   bool
	}{
		{"student reads resources", rbac.RoleStudent, "/api/v1/resources", "read", true},
		{"student reads one resource", rbac.RoleStudent, "/api/v1/resources/c1", "read", true},
		{"student enrolls", rbac.RoleStudent, "/api/v1/resources/c1/enroll", "write", true},
		{"student withdraws", rbac.RoleStudent, "/api/v1/resources/c1/enroll", "delete", true},
		{"student cannot write resources", rbac.RoleStudent, "/api/v1/resources/c1", "write", false},
		{"student cannot delete resources", rbac.RoleStudent, "/api/v1/resources/c1", "delete", false},
		{"student enroll grant stays on enroll", rbac.RoleStudent, "/api/v1/resources/c1/publish", "write", false},
		{"student enroll grant stays on enroll for deletes", rbac.RoleStudent, "/api/v1/resources/c1/close", "delete", false},
		{"company_admin creates resources", rbac.RoleCompanyAdmin, "/api/v1/resources", "write", true},
		{"company_admin writes resources", rbac.RoleCompanyAdmin, "/api/v1/resources/c1", "write", true},
		{"company_admin inherits student read", rbac.RoleCompanyAdmin, "/api/v1/resources", "read", true},
		{"company_admin deletes pass the route layer", rbac.RoleCompanyAdmin, "/api/v1/resources/c1", "delete", true},
		{"company_admin cannot touch admin surface", rbac.RoleCompanyAdmin, "/api/v1/admin/authz/policies", "read", false},
		{"company_admin cannot publish", rbac.RoleCompanyAdmin, "/api/v1/resources/c1/publish", "write", false},
		{"secretariat publishes", rbac.RoleSecretariat, "/api/v1/resources/c1/publish", "write", true},
		{"secretariat deletes", rbac.RoleSecretariat, "/api/v1/resources/c1", "delete", true},
		{"owner inherits everything", rbac.RoleOwner, "/api/v1/resources/c1", "delete", true},
		{"unknown role denied", rbac.Role("superuser"), "/api/v1/resources", "read", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertEnforce(t, enforcer, tt.role, tt.object, tt.action, tt.want)
		})
	}
}

// Patterns are segment-anchored: the enroll grant must not leak write
// or delete onto the resource itself or onto sibling subpaths.
func TestEnforcer_PatternsAreSegmentAnchored(t *testing.T) {
	enforcer := setupEnforcer(t)

	assertEnforce(t, enforcer, rbac.RoleStudent, "/api/v1/resources/abc", "write", false)
	assertEnforce(t, enforcer, rbac.RoleStudent, "/api/v1/resources/abc", "delete", false)
	assertEnforce(t, enforcer, rbac.RoleStudent, "/api/v1/resources/abc/publish", "write", false)
	assertEnforce(t, enforcer, rbac.RoleStudent, "/api/v1/resources/abc/enroll", "write", true)
}

func TestEnforcer_HierarchyGeneratedFromRBAC(t *testing.T) {
	enforcer := setupEnforcer(t)

	groupings := enforcer.GetGroupingPolicy()
	if len(groupings) != len(rbac.Roles)-1 {
		t.Fatalf("got %d grouping policies, want %d", len(groupings), len(rbac.Roles)-1)
	}

	for i := 0; i < len(rbac.Roles)-1; i++ {
		found := false
		for _, g := range groupings {
			if len(g) >= 2 && g[0] == rbac.Roles[i].String() && g[1] == rbac.Roles[i+1].String() {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing inheritance %s -> %s", rbac.Roles[i], rbac.Roles[i+1])
		}
	}
}

func TestEnforcer_CacheConsistency(t *testing.T) {
	enforcer, err := NewEnforcer(&EnforcerConfig{CacheEnabled: true})
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	t.Cleanup(func() { enforcer.Close() })

	// Same query twice: second call is served from cache and must agree.
	first, err := enforcer.Enforce(rbac.RoleStudent, "/api/v1/resources", "read")
	if err != nil {
		t.Fatalf("Enforce() error = %v", err)
	}
	second, err := enforcer.Enforce(rbac.RoleStudent, "/api/v1/resources", "read")
	if err != nil {
		t.Fatalf("Enforce() error = %v", err)
	}
	if first != second {
		t.Errorf("cached decision %v != original %v", second, first)
	}
}

func TestEnforcer_PolicyListing(t *testing.T) {
	enforcer := setupEnforcer(t)

	if len(enforcer.GetPolicy()) == 0 {
		t.Error("GetPolicy() returned no rules, embedded policy not loaded")
	}
}
