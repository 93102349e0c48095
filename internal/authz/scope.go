// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

package authz

import (
	"github.com/campusworks/portalgate/internal/auth"
	"github.com/campusworks/portalgate/internal/rbac"
)

// Visible evaluates a resource's visibility scope against a principal.
//
// The check is deliberately role-blind: the admin bypass (owner and
// secretariat see everything) lives in the engine, not here, so that
// scope evaluation stays a pure function of the resource's shape and
// can be audited independently of the role hierarchy.
//
// Unknown or malformed scopes fail closed.
func Visible(p *auth.Principal, r *Resource) bool {
	if p == nil || r == nil {
		return false
	}

	switch r.Scope {
	case ScopePublic:
		return true

	case ScopeRegionBased:
		return regionVisible(p, r)

	case ScopeRestricted:
		return restrictedVisible(p, r)

	default:
		// Fail closed. A scope we do not recognize never defaults
		// to open.
		return false
	}
}

// regionVisible checks region_based visibility: the principal's home
// region is in the resource's visibility regions, or the accessible
// region set overlaps them.
func regionVisible(p *auth.Principal, r *Resource) bool {
	for _, region := range r.VisibilityRegions {
		if p.CanReachRegion(region) {
			return true
		}
	}
	return false
}

// restrictedVisible checks restricted visibility: the principal is on
// the resource's user allow-list or holds an allowed role. Empty
// allow-lists admit nobody.
func restrictedVisible(p *auth.Principal, r *Resource) bool {
	for _, id := range r.AllowedUsers {
		if id != "" && id == p.ID {
			return true
		}
	}
	return rbac.HasRole(p.Role, r.AllowedRoles)
}
