// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

// Package rbac defines the portal role hierarchy.
//
// The four roles are totally ordered by privilege:
//
//	owner > secretariat > company_admin > student
//
// All role comparisons anywhere in the codebase must go through this
// package. No other package may compare role strings directly; that is
// how permission drift between services starts.
package rbac

import "fmt"

// Role identifies a principal's privilege level.
type Role string

// The four portal roles, from most to least privileged.
const (
	RoleOwner        Role = "owner"
	RoleSecretariat  Role = "secretariat"
	RoleCompanyAdmin Role = "company_admin"
	RoleStudent      Role = "student"
)

// Roles lists every valid role in descending privilege order.
var Roles = []Role{RoleOwner, RoleSecretariat, RoleCompanyAdmin, RoleStudent}

// ranks maps each role to its position in the hierarchy.
// Lower rank means more privilege; owner is rank 0.
var ranks = map[Role]int{
	RoleOwner:        0,
	RoleSecretariat:  1,
	RoleCompanyAdmin: 2,
	RoleStudent:      3,
}

// Parse converts a string to a Role. Unknown role names are rejected.
func Parse(s string) (Role, error) {
	r := Role(s)
	if _, ok := ranks[r]; !ok {
		return "", fmt.Errorf("invalid role: %q", s)
	}
	return r, nil
}

// IsValid reports whether r is one of the four portal roles.
func IsValid(r Role) bool {
	_, ok := ranks[r]
	return ok
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Rank returns the role's position in the hierarchy, strictly
// increasing from owner (0) to student (3). Unknown roles rank below
// student so that malformed input never gains privilege.
func Rank(r Role) int {
	if rank, ok := ranks[r]; ok {
		return rank
	}
	return len(ranks)
}

// AtLeast reports whether r carries at least the privilege of threshold.
func AtLeast(r, threshold Role) bool {
	return Rank(r) <= Rank(threshold)
}

// IsAdmin reports whether r is one of the two globally privileged
// roles (owner, secretariat).
func IsAdmin(r Role) bool {
	return r == RoleOwner || r == RoleSecretariat
}

// IsCompanyAdmin reports whether r is company_admin or above.
func IsCompanyAdmin(r Role) bool {
	return AtLeast(r, RoleCompanyAdmin)
}

// HasRole reports whether r is contained in the given set of roles.
func HasRole(r Role, roles []Role) bool {
	for _, candidate := range roles {
		if r == candidate {
			return true
		}
	}
	return false
}
