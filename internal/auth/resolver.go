// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

package auth

import (
	"context"
	"fmt"

	"github.com/campusworks/portalgate/internal/rbac"
)

// Resolver turns a raw bearer credential into a Principal. It verifies
// the credential, validates the claims payload, and checks that the
// backing session is still live. Verification failures of any kind
// collapse into ErrInvalidCredentials so callers cannot distinguish a
// forged token from an expired one.
type Resolver struct {
	verifier TokenVerifier
	sessions SessionStore
}

// NewResolver creates a principal resolver. sessions may be nil, in
// which case session liveness is not checked (stateless verification).
func NewResolver(verifier TokenVerifier, sessions SessionStore) *Resolver {
	return &Resolver{verifier: verifier, sessions: sessions}
}

// Resolve verifies credential and returns the Principal it identifies.
//
// Returns ErrNoCredentials for an empty credential, ErrMalformedClaims
// when the payload verified but lacks required fields, and
// ErrInvalidCredentials for everything else.
func (r *Resolver) Resolve(ctx context.Context, credential string) (*Principal, error) {
	if credential == "" {
		return nil, ErrNoCredentials
	}

	claims, err := r.verifier.Verify(credential)
	if err != nil {
		return nil, err
	}
	if claims.Kind != "" && claims.Kind != TokenAccess {
		return nil, fmt.Errorf("%w: not an access token", ErrInvalidCredentials)
	}

	p, err := principalFromClaims(claims)
	if err != nil {
		return nil, err
	}

	if r.sessions != nil && claims.SessionID != "" {
		if _, err := r.sessions.IsValid(ctx, claims.SessionID); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}
	}

	return p, nil
}

// principalFromClaims validates required claim fields and builds the
// Principal. A verified token with an empty subject or unknown role is
// malformed, not merely invalid.
func principalFromClaims(claims *Claims) (*Principal, error) {
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrMalformedClaims)
	}

	role, err := rbac.Parse(claims.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedClaims, err)
	}

	return &Principal{
		ID:                claims.Subject,
		Role:              role,
		RegionID:          claims.RegionID,
		AccessibleRegions: claims.AccessibleRegions,
		EmailVerified:     claims.EmailVerified,
		TOTPEnabled:       claims.TOTPEnabled,
		SessionID:         claims.SessionID,
	}, nil
}
