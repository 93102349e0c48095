// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind distinguishes short-lived access tokens from longer-lived
// refresh tokens. Each kind is tied to its own session.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// Claims are the portal JWT claims. The subject (RegisteredClaims.Subject)
// carries the user id.
type Claims struct {
	Role              string   `json:"role"`
	RegionID          *string  `json:"region_id,omitempty"`
	AccessibleRegions []string `json:"accessible_regions,omitempty"`
	EmailVerified     bool     `json:"email_verified"`
	TOTPEnabled       bool     `json:"totp_enabled"`
	SessionID         string   `json:"sid"`
	Kind              TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

// TokenVerifier is the external verification capability the principal
// resolver depends on. Any compliant verifier satisfies it; JWTManager
// is the in-process implementation.
type TokenVerifier interface {
	// Verify checks authenticity and expiry of a credential and
	// returns its claims. Returns ErrInvalidCredentials for anything
	// that does not verify.
	Verify(tokenString string) (*Claims, error)
}

// JWTManager creates and validates portal JWTs using HMAC-SHA256.
type JWTManager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewJWTManager creates a JWT manager. The secret must be at least 32
// bytes; the secret is held as []byte to keep it out of interned strings.
func NewJWTManager(secret, issuer string, accessTTL, refreshTTL time.Duration) (*JWTManager, error) {
	if len(secret) < 32 {
		return nil, errors.New("jwt secret must be at least 32 characters")
	}
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 14 * 24 * time.Hour
	}

	return &JWTManager{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// AccessTTL returns the access token lifetime.
func (m *JWTManager) AccessTTL() time.Duration { return m.accessTTL }

// RefreshTTL returns the refresh token lifetime.
func (m *JWTManager) RefreshTTL() time.Duration { return m.refreshTTL }

// Generate signs a token of the given kind for the principal, bound to
// sessionID. The token expiry matches the session expiry for its kind.
func (m *JWTManager) Generate(p *Principal, kind TokenKind, sessionID string) (string, error) {
	ttl := m.accessTTL
	if kind == TokenRefresh {
		ttl = m.refreshTTL
	}

	now := time.Now()
	claims := &Claims{
		Role:              p.Role.String(),
		RegionID:          p.RegionID,
		AccessibleRegions: p.AccessibleRegions,
		EmailVerified:     p.EmailVerified,
		TOTPEnabled:       p.TOTPEnabled,
		SessionID:         sessionID,
		Kind:              kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    m.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify validates a token's signature, algorithm, and time claims.
// The signing algorithm is pinned to HMAC to prevent algorithm
// confusion attacks.
func (m *JWTManager) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidCredentials
	}

	return claims, nil
}
