// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

package rbac

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Role
		wantErr bool
	}{
		{"owner", "owner", RoleOwner, false},
		{"secretariat", "secretariat", RoleSecretariat, false},
		{"company_admin", "company_admin", RoleCompanyAdmin, false},
		{"student", "student", RoleStudent, false},
		{"empty", "", "", true},
		{"unknown", "superuser", "", true},
		{"case sensitive", "Owner", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRank_TotalOrder(t *testing.T) {
	// Every pair of distinct roles must be comparable, with rank
	// strictly increasing from owner to student.
	for i := 0; i < len(Roles); i++ {
		for j := i + 1; j < len(Roles); j++ {
			hi, lo := Roles[i], Roles[j]
			if Rank(hi) >= Rank(lo) {
				t.Errorf("Rank(%s) = %d, want < Rank(%s) = %d", hi, Rank(hi), lo, Rank(lo))
			}
			if !AtLeast(hi, lo) {
				t.Errorf("AtLeast(%s, %s) = false, want true", hi, lo)
			}
			if AtLeast(lo, hi) {
				t.Errorf("AtLeast(%s, %s) = true, want false", lo, hi)
			}
		}
	}
}

func TestAtLeast_Reflexive(t *testing.T) {
	for _, r := range Roles {
		if !AtLeast(r, r) {
			t.Errorf("AtLeast(%s, %s) = false, want true", r, r)
		}
	}
}

func TestRank_UnknownRole(t *testing.T) {
	// Malformed roles rank below student; they never gain privilege.
	if Rank(Role("superuser")) <= Rank(RoleStudent) {
		t.Errorf("Rank(unknown) = %d, want > %d", Rank(Role("superuser")), Rank(RoleStudent))
	}
	if AtLeast(Role("superuser"), RoleStudent) {
		t.Error("AtLeast(unknown, student) = true, want false")
	}
}

func TestIsAdmin(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleOwner, true},
		{RoleSecretariat, true},
		{RoleCompanyAdmin, false},
		{RoleStudent, false},
		{Role("unknown"), false},
	}

	for _, tt := range tests {
		t.Run(tt.role.String(), func(t *testing.T) {
			if got := IsAdmin(tt.role); got != tt.want {
				t.Errorf("IsAdmin(%s) = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}

func TestIsCompanyAdmin(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleOwner, true},
		{RoleSecretariat, true},
		{RoleCompanyAdmin, true},
		{RoleStudent, false},
		{Role("unknown"), false},
	}

	for _, tt := range tests {
		t.Run(tt.role.String(), func(t *testing.T) {
			if got := IsCompanyAdmin(tt.role); got != tt.want {
				t.Errorf("IsCompanyAdmin(%s) = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}

func TestHasRole(t *testing.T) {
	allowed := []Role{RoleOwner, RoleSecretariat}

	if !HasRole(RoleOwner, allowed) {
		t.Error("HasRole(owner, {owner, secretariat}) = false, want true")
	}
	if HasRole(RoleStudent, allowed) {
		t.Error("HasRole(student, {owner, secretariat}) = true, want false")
	}
	if HasRole(RoleStudent, nil) {
		t.Error("HasRole(student, nil) = true, want false")
	}
}
