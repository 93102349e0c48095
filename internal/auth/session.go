// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/campusworks/portalgate/internal/rbac"
)

// Session is the server-side record a credential is issued against.
// A credential whose session is revoked or expired is dead regardless
// of its own expiry.
type Session struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Role      rbac.Role  `json:"role"`
	RegionID  *string    `json:"region_id,omitempty"`
	Kind      TokenKind  `json:"kind"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// Expired reports whether the session is past its expiry at t.
func (s *Session) Expired(t time.Time) bool {
	return t.After(s.ExpiresAt)
}

// Revoked reports whether the session has been revoked.
func (s *Session) Revoked() bool {
	return s.RevokedAt != nil
}

// SessionStore persists sessions. Implementations must be safe for
// concurrent use.
type SessionStore interface {
	// Create persists a new session.
	Create(ctx context.Context, session *Session) error

	// Get returns the session by id, or ErrSessionNotFound.
	Get(ctx context.Context, id string) (*Session, error)

	// Revoke marks a session revoked. Revoking an already-revoked
	// session is a no-op; revoking an unknown session returns
	// ErrSessionNotFound.
	Revoke(ctx context.Context, id string) error

	// RevokeAllForUser revokes every live session belonging to a user
	// and returns how many were revoked.
	RevokeAllForUser(ctx context.Context, userID string) (int, error)

	// IsValid reports whether the session exists, is not expired, and
	// is not revoked. The error distinguishes the failure:
	// ErrSessionNotFound, ErrSessionExpired, or ErrSessionRevoked.
	IsValid(ctx context.Context, id string) (bool, error)

	// CleanupExpired removes sessions past their expiry and returns
	// how many were removed.
	CleanupExpired(ctx context.Context) (int, error)

	// Close releases any resources held by the store.
	Close() error
}

// NewSessionID returns a 128-bit random session identifier.
func NewSessionID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// MemorySessionStore is an in-memory SessionStore for single-instance
// deployments and tests. State does not survive a restart.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	byUser   map[string]map[string]struct{}
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*Session),
		byUser:   make(map[string]map[string]struct{}),
	}
}

// Create persists a new session.
func (s *MemorySessionStore) Create(_ context.Context, session *Session) error {
	if session == nil || session.ID == "" {
		return fmt.Errorf("session id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *session
	s.sessions[session.ID] = &clone
	if _, ok := s.byUser[session.UserID]; !ok {
		s.byUser[session.UserID] = make(map[string]struct{})
	}
	s.byUser[session.UserID][session.ID] = struct{}{}
	return nil
}

// Get returns a copy of the session by id.
func (s *MemorySessionStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	clone := *session
	return &clone, nil
}

// Revoke marks the session revoked. Idempotent for live sessions.
func (s *MemorySessionStore) Revoke(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if session.RevokedAt != nil {
		return nil
	}
	now := time.Now()
	session.RevokedAt = &now
	return nil
}

// RevokeAllForUser revokes every live session of a user.
func (s *MemorySessionStore) RevokeAllForUser(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	revoked := 0
	now := time.Now()
	for id := range s.byUser[userID] {
		session, ok := s.sessions[id]
		if !ok || session.RevokedAt != nil {
			continue
		}
		session.RevokedAt = &now
		revoked++
	}
	return revoked, nil
}

// IsValid reports whether the session is live.
func (s *MemorySessionStore) IsValid(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return false, ErrSessionNotFound
	}
	if session.Revoked() {
		return false, ErrSessionRevoked
	}
	if session.Expired(time.Now()) {
		return false, ErrSessionExpired
	}
	return true, nil
}

// CleanupExpired removes expired sessions.
func (s *MemorySessionStore) CleanupExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, session := range s.sessions {
		if !session.Expired(now) {
			continue
		}
		delete(s.sessions, id)
		if ids, ok := s.byUser[session.UserID]; ok {
			delete(ids, id)
			if len(ids) == 0 {
				delete(s.byUser, session.UserID)
			}
		}
		removed++
	}
	return removed, nil
}

// Close is a no-op for the in-memory store.
func (s *MemorySessionStore) Close() error { return nil }
