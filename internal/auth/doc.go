// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

// Package auth implements authentication for the portal: credential
// verification, principal resolution, session management, login
// lockout, and the request guard middleware.
//
// The flow per request is:
//
//  1. Guard.Authenticate extracts the bearer credential from the
//     Authorization header or the access cookie.
//  2. Resolver.Resolve verifies the JWT, validates its claims, and
//     checks that the backing session is still live in the
//     SessionStore.
//  3. The resulting Principal is placed in the request context for
//     downstream role checks (Require, RequireAtLeast, RequireRegion)
//     and for the authz engine.
//
// Sessions exist server-side so a credential can be killed before it
// expires: logout revokes one session, logout-all revokes every
// session of a user. Two store implementations are provided, an
// in-memory store for tests and single-node setups and a Badger-backed
// store whose revocations survive restarts.
//
// Verification failures are deliberately indistinguishable to clients.
// A forged token, an expired token, and a revoked session all produce
// the same 401 response.
package auth
