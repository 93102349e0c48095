// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

package auth

import "errors"

// Credential and session errors. The request guard maps these onto
// HTTP statuses; nothing below the guard speaks HTTP.
var (
	// ErrNoCredentials indicates no bearer credential was provided.
	ErrNoCredentials = errors.New("no credentials provided")

	// ErrInvalidCredentials indicates the credential failed
	// verification, expired, or refers to a dead session.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrMalformedClaims indicates the credential verified but its
	// payload lacks required fields.
	ErrMalformedClaims = errors.New("malformed claims")

	// ErrSessionNotFound is returned when a session is not in the store.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired is returned for a session past its expiry.
	ErrSessionExpired = errors.New("session expired")

	// ErrSessionRevoked is returned for a revoked session.
	ErrSessionRevoked = errors.New("session revoked")

	// ErrAccountLocked indicates too many failed login attempts.
	ErrAccountLocked = errors.New("account temporarily locked")

	// ErrUserNotFound indicates an unknown username at login.
	ErrUserNotFound = errors.New("user not found")
)

// Error codes for the structured denial payload.
const (
	CodeNoToken                 = "NO_TOKEN"
	CodeTokenVerificationFailed = "TOKEN_VERIFICATION_FAILED"
	CodeInsufficientPermissions = "INSUFFICIENT_PERMISSIONS"
	CodeRegionRequired          = "REGION_REQUIRED"
	CodeAccountLocked           = "ACCOUNT_LOCKED"
	CodeInvalidRequest          = "INVALID_REQUEST"
	CodeInternal                = "INTERNAL"
)
