// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/campusworks/portalgate/internal/rbac"
)

// issueFor creates a live session and a signed access token for it.
func issueFor(t *testing.T, m *JWTManager, store SessionStore, p *Principal) string {
	t.Helper()

	id, err := NewSessionID()
	if err != nil {
		t.Fatalf("NewSessionID() error = %v", err)
	}
	err = store.Create(context.Background(), &Session{
		ID:        id,
		UserID:    p.ID,
		Role:      p.Role,
		Kind:      TokenAccess,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	token, err := m.Generate(p, TokenAccess, id)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	return token
}

func TestResolver_Resolve(t *testing.T) {
	m := newTestJWT(t)
	store := NewMemorySessionStore()
	resolver := NewResolver(m, store)

	token := issueFor(t, m, store, testPrincipal())

	p, err := resolver.Resolve(context.Background(), token)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if p.ID != "user-1" {
		t.Errorf("ID = %q, want %q", p.ID, "user-1")
	}
	if p.Role != rbac.RoleCompanyAdmin {
		t.Errorf("Role = %q, want %q", p.Role, rbac.RoleCompanyAdmin)
	}
	if p.Region() != "FUK" {
		t.Errorf("Region() = %q, want FUK", p.Region())
	}
	if p.SessionID == "" {
		t.Error("SessionID not carried onto principal")
	}
}

func TestResolver_EmptyCredential(t *testing.T) {
	resolver := NewResolver(newTestJWT(t), NewMemorySessionStore())

	if _, err := resolver.Resolve(context.Background(), ""); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("Resolve(\"\") error = %v, want ErrNoCredentials", err)
	}
}

func TestResolver_RevokedSession(t *testing.T) {
	m := newTestJWT(t)
	store := NewMemorySessionStore()
	resolver := NewResolver(m, store)

	token := issueFor(t, m, store, testPrincipal())

	// Verify first, then revoke: the token itself is still valid but
	// the session behind it is dead.
	if _, err := resolver.Resolve(context.Background(), token); err != nil {
		t.Fatalf("Resolve() before revocation error = %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if err := store.Revoke(context.Background(), claims.SessionID); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}

	if _, err := resolver.Resolve(context.Background(), token); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Resolve() after revocation error = %v, want ErrInvalidCredentials", err)
	}
}

func TestResolver_RejectsRefreshToken(t *testing.T) {
	m := newTestJWT(t)
	store := NewMemorySessionStore()
	resolver := NewResolver(m, store)

	p := testPrincipal()
	id, err := NewSessionID()
	if err != nil {
		t.Fatalf("NewSessionID() error = %v", err)
	}
	err = store.Create(context.Background(), &Session{
		ID: id, UserID: p.ID, Role: p.Role, Kind: TokenRefresh,
		CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	token, err := m.Generate(p, TokenRefresh, id)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if _, err := resolver.Resolve(context.Background(), token); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Resolve(refresh token) error = %v, want ErrInvalidCredentials", err)
	}
}

func TestResolver_MalformedClaims(t *testing.T) {
	m := newTestJWT(t)
	resolver := NewResolver(m, nil)

	tests := []struct {
		name string
		p    *Principal
	}{
		{"missing subject", &Principal{ID: "", Role: rbac.RoleStudent}},
		{"unknown role", &Principal{ID: "u1", Role: rbac.Role("superuser")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := m.Generate(tt.p, TokenAccess, "")
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if _, err := resolver.Resolve(context.Background(), token); !errors.Is(err, ErrMalformedClaims) {
				t.Errorf("Resolve() error = %v, want ErrMalformedClaims", err)
			}
		})
	}
}

func TestResolver_StatelessWithoutSessionStore(t *testing.T) {
	m := newTestJWT(t)
	resolver := NewResolver(m, nil)

	token, err := m.Generate(testPrincipal(), TokenAccess, "sess-x")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if _, err := resolver.Resolve(context.Background(), token); err != nil {
		t.Errorf("Resolve() without session store error = %v", err)
	}
}
