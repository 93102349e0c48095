// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

package authz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/campusworks/portalgate/internal/auth"
	"github.com/campusworks/portalgate/internal/rbac"
)

func TestInstrumentedSessionStore_Forwards(t *testing.T) {
	ctx := context.Background()
	store := InstrumentSessions(auth.NewMemorySessionStore())
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})

	now := time.Now()
	session := &auth.Session{
		ID:        "s1",
		UserID:    "u1",
		Role:      rbac.RoleStudent,
		Kind:      auth.TokenAccess,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	if err := store.Create(ctx, session); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.UserID != "u1" {
		t.Errorf("UserID = %q, want u1", got.UserID)
	}

	if ok, err := store.IsValid(ctx, "s1"); err != nil || !ok {
		t.Errorf("IsValid() = %v, %v; want true, nil", ok, err)
	}

	if err := store.Revoke(ctx, "s1"); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	if _, err := store.IsValid(ctx, "s1"); !errors.Is(err, auth.ErrSessionRevoked) {
		t.Errorf("IsValid(revoked) error = %v, want ErrSessionRevoked", err)
	}
}

func TestInstrumentedSessionStore_RevokeAllAndCleanup(t *testing.T) {
	ctx := context.Background()
	store := InstrumentSessions(auth.NewMemorySessionStore())

	now := time.Now()
	for _, id := range []string{"a", "b"} {
		if err := store.Create(ctx, &auth.Session{
			ID:        id,
			UserID:    "u1",
			Role:      rbac.RoleStudent,
			Kind:      auth.TokenAccess,
			CreatedAt: now,
			ExpiresAt: now.Add(time.Hour),
		}); err != nil {
			t.Fatalf("Create(%s) error = %v", id, err)
		}
	}

	count, err := store.RevokeAllForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("RevokeAllForUser() error = %v", err)
	}
	if count != 2 {
		t.Errorf("RevokeAllForUser() = %d, want 2", count)
	}

	if _, err := store.CleanupExpired(ctx); err != nil {
		t.Errorf("CleanupExpired() error = %v", err)
	}
}
