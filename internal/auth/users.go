// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

package auth

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/campusworks/portalgate/internal/rbac"
)

// User is a portal account as stored in the user directory.
type User struct {
	ID                string    `json:"id"`
	Username          string    `json:"username"`
	PasswordHash      string    `json:"-"`
	Role              rbac.Role `json:"role"`
	RegionID          *string   `json:"region_id,omitempty"`
	AccessibleRegions []string  `json:"accessible_regions,omitempty"`
	EmailVerified     bool      `json:"email_verified"`
	TOTPEnabled       bool      `json:"totp_enabled"`
}

// Principal builds the request principal for this user. SessionID is
// filled in at token issue time.
func (u *User) Principal() *Principal {
	return &Principal{
		ID:                u.ID,
		Role:              u.Role,
		RegionID:          u.RegionID,
		AccessibleRegions: u.AccessibleRegions,
		EmailVerified:     u.EmailVerified,
		TOTPEnabled:       u.TOTPEnabled,
	}
}

// UserStore is the user directory the auth handlers read from.
type UserStore interface {
	// GetByUsername returns the user, or ErrUserNotFound.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByID returns the user, or ErrUserNotFound. Refresh rotation
	// re-reads the record by id so role and region changes propagate.
	GetByID(ctx context.Context, id string) (*User, error)
}

// MemoryUserStore is an in-memory user directory loaded from
// configuration at startup.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]*User
}

// NewMemoryUserStore creates a user store from the given users.
// Usernames must be unique.
func NewMemoryUserStore(users []*User) (*MemoryUserStore, error) {
	store := &MemoryUserStore{users: make(map[string]*User, len(users))}
	for _, u := range users {
		if u.Username == "" || u.ID == "" {
			return nil, fmt.Errorf("user requires id and username")
		}
		if !rbac.IsValid(u.Role) {
			return nil, fmt.Errorf("user %q has invalid role %q", u.Username, u.Role)
		}
		if _, exists := store.users[u.Username]; exists {
			return nil, fmt.Errorf("duplicate username %q", u.Username)
		}
		clone := *u
		store.users[u.Username] = &clone
	}
	return store, nil
}

// GetByUsername returns a copy of the user.
func (s *MemoryUserStore) GetByUsername(_ context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

// GetByID returns a copy of the user. The directory is keyed by
// username, so this scans; directory sizes are small.
func (s *MemoryUserStore) GetByID(_ context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.ID == id {
			clone := *u
			return &clone, nil
		}
	}
	return nil, ErrUserNotFound
}

// HashPassword produces a bcrypt hash for storing in the directory.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a password against its bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// dummyHash is compared against for unknown usernames so that login
// timing does not reveal whether an account exists.
var dummyHash = func() string {
	h, _ := bcrypt.GenerateFromPassword([]byte("portalgate-dummy-password"), bcrypt.DefaultCost)
	return string(h)
}()
