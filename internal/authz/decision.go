// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

package authz

// DenialReason explains why the engine denied an action. Reasons are
// for logs and callers; handlers decide what, if anything, to reveal to
// the client (restricted-scope denials must not leak existence).
type DenialReason string

const (
	// ReasonNotVisible: the resource's visibility scope excludes the principal.
	ReasonNotVisible DenialReason = "not_visible"

	// ReasonNotPublished: unpublished content is hidden from non-owners.
	ReasonNotPublished DenialReason = "not_published"

	// ReasonNotOwner: the action requires ownership the principal lacks.
	ReasonNotOwner DenialReason = "not_owner"

	// ReasonInsufficientRole: the principal's role does not permit the action.
	ReasonInsufficientRole DenialReason = "insufficient_role"

	// ReasonPublicScopeProtected: company admins may not mutate
	// public-scope resources they do not own.
	ReasonPublicScopeProtected DenialReason = "public_scope_protected"

	// ReasonInvalidState: the action is illegal in the resource's
	// lifecycle state.
	ReasonInvalidState DenialReason = "invalid_state"

	// ReasonAlreadyEnrolled: the principal is already enrolled.
	ReasonAlreadyEnrolled DenialReason = "already_enrolled"

	// ReasonNotEnrolled: the principal has no enrollment to cancel.
	ReasonNotEnrolled DenialReason = "not_enrolled"
)

// Decision is the engine's output for a single (principal, resource,
// action) evaluation. Decisions are computed fresh per call and never
// cached across calls; role and resource state can change between them.
type Decision struct {
	// Allowed reports whether the action is permitted.
	Allowed bool `json:"allowed"`

	// Reason is set only when Allowed is false.
	Reason DenialReason `json:"reason,omitempty"`
}

// Allow returns a permitting decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a denying decision with the given reason.
func Deny(reason DenialReason) Decision {
	return Decision{Allowed: false, Reason: reason}
}
