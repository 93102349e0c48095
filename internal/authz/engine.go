// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

package authz

import (
	"github.com/campusworks/portalgate/internal/auth"
	"github.com/campusworks/portalgate/internal/rbac"
)

// Action names an operation the engine can decide on.
type Action string

const (
	ActionView             Action = "view"
	ActionEdit             Action = "edit"
	ActionDelete           Action = "delete"
	ActionPublish          Action = "publish"
	ActionEnroll           Action = "enroll"
	ActionCancelEnrollment Action = "cancel_enrollment"
)

// CanAccess decides whether the principal may view the resource.
//
// Admins see everything regardless of scope or state. Everyone else
// must pass the visibility scope check, and unpublished content is
// additionally hidden from non-owners: a draft class is the author's
// business until it is published.
func CanAccess(p *auth.Principal, r *Resource) Decision {
	if p == nil || r == nil {
		return Deny(ReasonNotVisible)
	}

	if rbac.IsAdmin(p.Role) {
		return Allow()
	}

	// Ownership overrides both scope and lifecycle: an author outside
	// their resource's regions still sees their own work.
	if r.IsOwnedBy(p.ID) {
		return Allow()
	}

	if !Visible(p, r) {
		return Deny(ReasonNotVisible)
	}

	if r.State == StateDraft {
		return Deny(ReasonNotPublished)
	}

	return Allow()
}

// CanEdit decides whether the principal may modify the resource.
//
// Grants are additive: admin, ownership, and the company_admin rule
// are OR'd, and no rule revokes what another grants. Company admins may
// edit non-public resources in reach but never public-scope resources
// they do not own; broader visibility requires higher privilege to
// mutate.
func CanEdit(p *auth.Principal, r *Resource) Decision {
	if p == nil || r == nil {
		return Deny(ReasonInsufficientRole)
	}

	if rbac.IsAdmin(p.Role) {
		return Allow()
	}

	if r.IsOwnedBy(p.ID) {
		return Allow()
	}

	if p.Role == rbac.RoleCompanyAdmin {
		if r.Scope == ScopePublic {
			return Deny(ReasonPublicScopeProtected)
		}
		return Allow()
	}

	return Deny(ReasonInsufficientRole)
}

// CanDelete decides whether the principal may delete the resource.
// Stricter than edit: company_admin alone is not enough to delete
// another's resource.
func CanDelete(p *auth.Principal, r *Resource) Decision {
	if p == nil || r == nil {
		return Deny(ReasonInsufficientRole)
	}

	if rbac.IsAdmin(p.Role) {
		return Allow()
	}

	if r.IsOwnedBy(p.ID) {
		return Allow()
	}

	if p.Role == rbac.RoleCompanyAdmin {
		return Deny(ReasonNotOwner)
	}

	return Deny(ReasonInsufficientRole)
}

// CanPublish decides whether the principal may publish the resource.
// Publishing is never delegated below admin, regardless of ownership.
func CanPublish(p *auth.Principal, r *Resource) Decision {
	if p == nil || r == nil {
		return Deny(ReasonInsufficientRole)
	}

	if rbac.IsAdmin(p.Role) {
		return Allow()
	}

	return Deny(ReasonInsufficientRole)
}

// CanEnroll decides whether the principal may enroll in the resource.
// Only students enroll, only in published resources, and never twice.
func CanEnroll(p *auth.Principal, r *Resource) Decision {
	if p == nil || r == nil {
		return Deny(ReasonInsufficientRole)
	}

	if p.Role != rbac.RoleStudent {
		return Deny(ReasonInsufficientRole)
	}

	if r.State != StatePublished {
		return Deny(ReasonInvalidState)
	}

	if r.IsEnrolled(p.ID) {
		return Deny(ReasonAlreadyEnrolled)
	}

	return Allow()
}

// CanCancelEnrollment decides whether the principal may withdraw from
// the resource. A student may withdraw while the resource is published
// or after it closes, but not from a draft (nothing to withdraw from).
func CanCancelEnrollment(p *auth.Principal, r *Resource) Decision {
	if p == nil || r == nil {
		return Deny(ReasonInsufficientRole)
	}

	if p.Role != rbac.RoleStudent {
		return Deny(ReasonInsufficientRole)
	}

	if r.State != StatePublished && r.State != StateClosed {
		return Deny(ReasonInvalidState)
	}

	if !r.IsEnrolled(p.ID) {
		return Deny(ReasonNotEnrolled)
	}

	return Allow()
}

// Decide dispatches to the per-action decision function.
func Decide(action Action, p *auth.Principal, r *Resource) Decision {
	switch action {
	case ActionView:
		return CanAccess(p, r)
	case ActionEdit:
		return CanEdit(p, r)
	case ActionDelete:
		return CanDelete(p, r)
	case ActionPublish:
		return CanPublish(p, r)
	case ActionEnroll:
		return CanEnroll(p, r)
	case ActionCancelEnrollment:
		return CanCancelEnrollment(p, r)
	default:
		return Deny(ReasonInsufficientRole)
	}
}
