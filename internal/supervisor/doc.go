// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

// Package supervisor builds the suture tree that runs Portalgate's
// long-lived components: the HTTP server and the background janitors
// that reclaim expired sessions and stale lockout entries. Failures
// restart the faulting service with backoff instead of taking the
// process down.
package supervisor
