// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

package auth

import (
	"github.com/campusworks/portalgate/internal/rbac"
)

// Principal represents the authenticated actor making a request.
// It is built per-request from a verified credential, never persisted,
// and must be treated as immutable for the request's lifetime.
type Principal struct {
	// ID is the principal's unique user identifier.
	ID string `json:"id"`

	// Role is the principal's portal role.
	Role rbac.Role `json:"role"`

	// RegionID is the principal's home region, if any. Principals
	// without a region cannot act on region-scoped resources.
	RegionID *string `json:"region_id,omitempty"`

	// AccessibleRegions are the regions the principal may operate in,
	// in addition to the home region.
	AccessibleRegions []string `json:"accessible_regions,omitempty"`

	// EmailVerified indicates the principal completed email verification.
	EmailVerified bool `json:"email_verified"`

	// TOTPEnabled indicates the principal has TOTP second factor enabled.
	TOTPEnabled bool `json:"totp_enabled"`

	// SessionID identifies the session the credential was issued against.
	SessionID string `json:"session_id"`
}

// HasRegion reports whether the principal has a home region.
func (p *Principal) HasRegion() bool {
	return p.RegionID != nil && *p.RegionID != ""
}

// Region returns the principal's home region, or "" if absent.
func (p *Principal) Region() string {
	if p.RegionID == nil {
		return ""
	}
	return *p.RegionID
}

// CanReachRegion reports whether region is the principal's home region
// or one of its accessible regions. Region codes are opaque tags;
// matching is exact string equality.
func (p *Principal) CanReachRegion(region string) bool {
	if region == "" {
		return false
	}
	if p.Region() == region {
		return true
	}
	for _, r := range p.AccessibleRegions {
		if r == region {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the principal holds a globally privileged role.
func (p *Principal) IsAdmin() bool {
	return rbac.IsAdmin(p.Role)
}
