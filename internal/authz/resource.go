// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

package authz

import (
	"github.com/campusworks/portalgate/internal/rbac"
)

// VisibilityScope is the resource-level rule for who may see a resource.
type VisibilityScope string

const (
	// ScopePublic resources are visible to every principal.
	ScopePublic VisibilityScope = "public"

	// ScopeRegionBased resources are visible to principals whose region
	// associations overlap the resource's visibility regions.
	ScopeRegionBased VisibilityScope = "region_based"

	// ScopeRestricted resources are visible only to explicitly listed
	// users or roles.
	ScopeRestricted VisibilityScope = "restricted"
)

// LifecycleState is a resource's workflow stage. Enrollment-bearing
// resources move draft -> published -> closed.
type LifecycleState string

const (
	StateDraft     LifecycleState = "draft"
	StatePublished LifecycleState = "published"
	StateClosed    LifecycleState = "closed"
)

// EntityKind tags the portal entity a Resource generalizes.
type EntityKind string

const (
	KindClass        EntityKind = "class"
	KindCommittee    EntityKind = "committee"
	KindProject      EntityKind = "project"
	KindAnnouncement EntityKind = "announcement"
)

// Resource is the shared authorization view of a portal entity
// (class, committee, project, announcement). The engine operates only
// on these fields; entity-specific payloads live outside this package.
type Resource struct {
	// ID is the resource's unique identifier.
	ID string `json:"id"`

	// Kind tags which portal entity this resource represents.
	Kind EntityKind `json:"kind"`

	// OwnerID is the author/manager/chairperson user id.
	OwnerID string `json:"owner_id"`

	// Scope is the resource's visibility scope.
	Scope VisibilityScope `json:"visibility_scope"`

	// VisibilityRegions are the regions a region_based resource is
	// visible in. Non-empty for region_based scope; always includes the
	// creating principal's region at creation time.
	VisibilityRegions []string `json:"visibility_regions,omitempty"`

	// AllowedRoles lists roles that may see a restricted resource.
	AllowedRoles []rbac.Role `json:"allowed_roles,omitempty"`

	// AllowedUsers lists user ids that may see a restricted resource.
	AllowedUsers []string `json:"allowed_users,omitempty"`

	// State is the resource's lifecycle state.
	State LifecycleState `json:"lifecycle_state"`

	// Enrolled holds the user ids currently enrolled, for
	// enrollment-bearing resources.
	Enrolled map[string]bool `json:"enrolled,omitempty"`
}

// IsOwnedBy reports whether userID owns the resource.
func (r *Resource) IsOwnedBy(userID string) bool {
	return userID != "" && r.OwnerID == userID
}

// IsEnrolled reports whether userID is enrolled in the resource.
func (r *Resource) IsEnrolled(userID string) bool {
	return r.Enrolled[userID]
}

// ValidScope reports whether s is a known visibility scope.
func ValidScope(s VisibilityScope) bool {
	switch s {
	case ScopePublic, ScopeRegionBased, ScopeRestricted:
		return true
	}
	return false
}

// ValidState reports whether s is a known lifecycle state.
func ValidState(s LifecycleState) bool {
	switch s {
	case StateDraft, StatePublished, StateClosed:
		return true
	}
	return false
}

// NextStates returns the legal lifecycle transitions from s.
func NextStates(s LifecycleState) []LifecycleState {
	switch s {
	case StateDraft:
		return []LifecycleState{StatePublished}
	case StatePublished:
		return []LifecycleState{StateClosed}
	default:
		return nil
	}
}

// CanTransition reports whether a resource may move from one lifecycle
// state to another.
func CanTransition(from, to LifecycleState) bool {
	for _, next := range NextStates(from) {
		if next == to {
			return true
		}
	}
	return false
}
